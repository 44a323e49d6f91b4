// Package shell is the terminal front end: a welcome screen, a voice screen
// that drives the daemon's speech worker and a text chat screen.
package shell

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"echo/pkg/protocol"
)

const (
	voiceWelcome = "Welcome! Press 's' to start voice conversation."
	chatWelcome  = "Welcome to Chat Mode! Type your questions below and I'll respond using AI."
)

// Sender delivers shell events to the daemon.
type Sender interface {
	Send(e protocol.Event) error
}

type Model struct {
	sender Sender
	events <-chan protocol.Event

	screen screen
	width  int
	height int
	ready  bool

	voice   []item
	chat    []item
	state   string
	status  string
	waiting bool

	input    textinput.Model
	viewport viewport.Model
}

func New(sender Sender, events <-chan protocol.Event) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your message here..."
	ti.CharLimit = 2000
	ti.Prompt = "> "

	return Model{
		sender: sender,
		events: events,
		screen: screenWelcome,
		state:  "Idle",
		voice:  []item{{kind: itemEcho, text: voiceWelcome}},
		chat:   []item{{kind: itemEcho, text: chatWelcome}},
		input:  ti,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return disconnectedMsg{}
		}
		return eventMsg(e)
	}
}

func (m Model) send(e protocol.Event) tea.Cmd {
	return func() tea.Msg {
		if err := m.sender.Send(e); err != nil {
			return sendErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.ready = true
		m.refresh()
		return m, nil

	case eventMsg:
		m.apply(protocol.Event(msg))
		m.refresh()
		return m, m.waitForEvent()

	case disconnectedMsg:
		m.status = "Disconnected from daemon"
		return m, nil

	case sendErrMsg:
		m.status = "Send failed: " + msg.err.Error()
		m.waiting = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) apply(e protocol.Event) {
	switch e.Kind {
	case protocol.KindTranscript:
		m.voice = append(m.voice, item{kind: itemUser, text: e.Text})
	case protocol.KindResponse:
		if m.waiting {
			m.chat = append(m.chat, item{kind: itemEcho, text: e.Text})
			m.waiting = false
			return
		}
		m.voice = append(m.voice, item{kind: itemEcho, text: e.Text})
	case protocol.KindError:
		m.voice = append(m.voice, item{kind: itemError, text: "Error: " + e.Text})
	case protocol.KindStatus:
		m.status = e.Text
	case protocol.KindState:
		m.state = e.State
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.screen {
	case screenWelcome:
		switch msg.String() {
		case "v", "1":
			m.screen = screenVoice
		case "c", "2":
			m.screen = screenChat
			m.input.Focus()
		case "q", "esc":
			return m, tea.Quit
		}
		m.resize()
		m.refresh()
		return m, nil

	case screenVoice:
		switch msg.String() {
		case "s":
			if m.active() {
				return m, nil
			}
			return m, m.send(protocol.Control(protocol.ControlStart))
		case "p":
			switch m.state {
			case "Listening":
				return m, m.send(protocol.Control(protocol.ControlPause))
			case "Paused":
				return m, m.send(protocol.Control(protocol.ControlResume))
			}
			return m, nil
		case "x":
			return m, m.send(protocol.Control(protocol.ControlStop))
		case "i":
			return m, m.send(protocol.Control(protocol.ControlInterrupt))
		case "esc", "b":
			m.screen = screenWelcome
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case screenChat:
		switch msg.Type {
		case tea.KeyEsc:
			m.input.Blur()
			m.screen = screenWelcome
			return m, nil
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.chat = append(m.chat, item{kind: itemUser, text: text})
			m.waiting = true
			m.refresh()
			return m, m.send(protocol.Chat(text))
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) active() bool {
	switch m.state {
	case "Initializing", "Listening", "Paused":
		return true
	}
	return false
}

func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	reserved := 6
	if m.screen == screenChat {
		reserved += 2
	}
	w, h := max(10, m.width-4), max(3, m.height-reserved)
	if !m.ready {
		m.viewport = viewport.New(w, h)
	} else {
		m.viewport.Width, m.viewport.Height = w, h
	}
	m.input.Width = max(10, m.width-6)
}

func (m *Model) refresh() {
	items := m.voice
	if m.screen == screenChat {
		items = m.chat
	}
	m.viewport.SetContent(m.renderItems(items))
	m.viewport.GotoBottom()
}

func (m Model) renderItems(items []item) string {
	width := max(20, m.viewport.Width)
	bubbleWidth := width * 3 / 4

	lines := make([]string, 0, len(items))
	for _, it := range items {
		var line string
		switch it.kind {
		case itemUser:
			line = lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble(userBubble, it.text, bubbleWidth))
		case itemEcho:
			line = bubble(echoBubble, it.text, bubbleWidth)
		case itemError:
			line = errorBubble.Render(it.text)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n\n")
}

// bubble wraps text at most maxWidth wide; short text keeps its own width.
func bubble(style lipgloss.Style, text string, maxWidth int) string {
	w := min(lipgloss.Width(text)+style.GetHorizontalPadding(), maxWidth)
	return style.Width(w).Render(text)
}
