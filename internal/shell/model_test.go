package shell

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"echo/pkg/protocol"
)

type fakeSender struct {
	sent []protocol.Event
	err  error
}

func (f *fakeSender) Send(e protocol.Event) error {
	f.sent = append(f.sent, e)
	return f.err
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and runs any command it returns once.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	var out tea.Msg
	if cmd != nil {
		out = cmd()
	}
	return next.(Model), out
}

func newModel() (Model, *fakeSender) {
	s := &fakeSender{}
	m := New(s, make(chan protocol.Event))
	m, _ = stepNoCmd(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, s
}

func stepNoCmd(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_VoiceControls(t *testing.T) {
	t.Parallel()

	m, s := newModel()
	m, _ = step(t, m, key("v"))
	if m.screen != screenVoice {
		t.Fatalf("screen = %v, want voice", m.screen)
	}
	if !strings.Contains(m.View(), voiceWelcome) {
		t.Error("voice welcome missing")
	}

	m, _ = step(t, m, key("s"))
	m, _ = stepNoCmd(m, eventMsg(protocol.State("Listening")))
	m, _ = step(t, m, key("s"))
	m, _ = step(t, m, key("p"))
	m, _ = stepNoCmd(m, eventMsg(protocol.State("Paused")))
	m, _ = step(t, m, key("p"))
	m, _ = step(t, m, key("x"))

	want := []protocol.Event{
		protocol.Control(protocol.ControlStart),
		protocol.Control(protocol.ControlPause),
		protocol.Control(protocol.ControlResume),
		protocol.Control(protocol.ControlStop),
	}
	if len(s.sent) != len(want) {
		t.Fatalf("sent %+v, want %+v", s.sent, want)
	}
	for i := range want {
		if s.sent[i] != want[i] {
			t.Errorf("sent[%d] = %+v, want %+v", i, s.sent[i], want[i])
		}
	}
}

func TestModel_VoiceConversation(t *testing.T) {
	t.Parallel()

	m, _ := newModel()
	m, _ = step(t, m, key("v"))
	for _, e := range []protocol.Event{
		protocol.Transcript("what time is it", "time_date"),
		protocol.Response("The current time is 03:04 PM"),
		protocol.Error("Microphone error: unplugged"),
		protocol.Status("Listening..."),
	} {
		m, _ = stepNoCmd(m, eventMsg(e))
	}

	if n := len(m.voice); n != 4 {
		t.Fatalf("voice items = %d, want 4", n)
	}
	if m.voice[1].kind != itemUser || m.voice[2].kind != itemEcho || m.voice[3].text != "Error: Microphone error: unplugged" {
		t.Errorf("voice items = %+v", m.voice)
	}
	if m.status != "Listening..." {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_Chat(t *testing.T) {
	t.Parallel()

	m, s := newModel()
	m, _ = step(t, m, key("c"))
	if !strings.Contains(m.View(), "Chat Mode") {
		t.Error("chat screen not shown")
	}

	for _, r := range "tell me a joke" {
		m, _ = stepNoCmd(m, key(string(r)))
	}
	m, _ = step(t, m, key("enter"))
	if len(s.sent) != 1 || s.sent[0] != protocol.Chat("tell me a joke") {
		t.Fatalf("sent %+v", s.sent)
	}
	if !m.waiting {
		t.Error("not waiting for reply")
	}

	m, _ = step(t, m, key("enter"))
	if len(s.sent) != 1 {
		t.Error("empty input was sent")
	}

	m, _ = stepNoCmd(m, eventMsg(protocol.Response("Why did the gopher cross the road?")))
	if m.waiting {
		t.Error("still waiting after reply")
	}
	last := m.chat[len(m.chat)-1]
	if last.kind != itemEcho || last.text != "Why did the gopher cross the road?" {
		t.Errorf("last chat item = %+v", last)
	}
	if len(m.voice) != 1 {
		t.Errorf("chat reply leaked into voice view: %+v", m.voice)
	}

	m, _ = step(t, m, key("esc"))
	if m.screen != screenWelcome {
		t.Errorf("screen = %v after esc", m.screen)
	}
}

func TestModel_SendFailure(t *testing.T) {
	t.Parallel()

	m, s := newModel()
	s.err = errors.New("bus down")
	m, _ = step(t, m, key("v"))
	m, out := step(t, m, key("s"))
	m, _ = stepNoCmd(m, out)

	if m.status != "Send failed: bus down" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()

	m, _ := newModel()
	_, out := step(t, m, key("q"))
	if _, ok := out.(tea.QuitMsg); !ok {
		t.Errorf("q on welcome returned %T, want tea.QuitMsg", out)
	}
}
