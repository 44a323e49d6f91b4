package shell

import "echo/pkg/protocol"

type screen int

const (
	screenWelcome screen = iota
	screenVoice
	screenChat
)

type itemKind int

const (
	itemUser itemKind = iota
	itemEcho
	itemError
)

// item is one line of a conversation view.
type item struct {
	kind itemKind
	text string
}

// eventMsg carries a daemon event into the update loop.
type eventMsg protocol.Event

// disconnectedMsg means the event stream ended.
type disconnectedMsg struct{}

type sendErrMsg struct{ err error }
