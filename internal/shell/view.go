package shell

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	switch m.screen {
	case screenVoice:
		return m.voiceView()
	case screenChat:
		return m.chatView()
	default:
		return m.welcomeView()
	}
}

func (m Model) welcomeView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome to Echo, your personal voice assistant."))
	b.WriteString("\n\n")
	b.WriteString("• Simplify tasks with hands-free voice commands.\n")
	b.WriteString("• Access information, control media, and launch apps.\n\n")
	b.WriteString(subtitleStyle.Render("Get Started...."))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s Voice Mode    %s Chat Mode    %s Quit\n",
		keyStyle.Render("[v]"), keyStyle.Render("[c]"), keyStyle.Render("[q]"))
	return frameStyle.Render(b.String())
}

func (m Model) voiceView() string {
	header := titleStyle.Render("Echo - Voice Mode") + "  " + subtitleStyle.Render(m.state)
	help := helpStyle.Render(fmt.Sprintf("%s start  %s %s  %s stop  %s interrupt  %s back",
		keyStyle.Render("s"), keyStyle.Render("p"), m.pauseLabel(),
		keyStyle.Render("x"), keyStyle.Render("i"), keyStyle.Render("esc")))
	return strings.Join([]string{header, m.body(), statusStyle.Render(m.status), help}, "\n")
}

func (m Model) chatView() string {
	header := titleStyle.Render("Chat Mode - Text Conversation")
	if m.waiting {
		header += "  " + subtitleStyle.Render("thinking...")
	}
	help := helpStyle.Render(fmt.Sprintf("%s send  %s scroll  %s back",
		keyStyle.Render("enter"), keyStyle.Render("pgup/pgdn"), keyStyle.Render("esc")))
	return strings.Join([]string{header, m.body(), m.input.View(), help}, "\n")
}

// body falls back to plain items until the first window size arrives.
func (m Model) body() string {
	if !m.ready {
		items := m.voice
		if m.screen == screenChat {
			items = m.chat
		}
		return m.renderItems(items)
	}
	return m.viewport.View()
}

func (m Model) pauseLabel() string {
	if m.state == "Paused" {
		return "resume"
	}
	return "pause"
}
