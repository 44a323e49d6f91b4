package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

// Daemon to shell.
const (
	KindTranscript Kind = "transcript"
	KindResponse   Kind = "response"
	KindStatus     Kind = "status"
	KindError      Kind = "error"
	KindState      Kind = "state"
)

// Shell to daemon.
const (
	KindChat    Kind = "chat"
	KindControl Kind = "control"
)

// Control verbs carried in Event.Text of a control event.
const (
	ControlStart     = "start"
	ControlPause     = "pause"
	ControlResume    = "resume"
	ControlStop      = "stop"
	ControlInterrupt = "interrupt"
)

var controls = map[string]bool{
	ControlStart:     true,
	ControlPause:     true,
	ControlResume:    true,
	ControlStop:      true,
	ControlInterrupt: true,
}

// Event is one frame on the bus.
type Event struct {
	Kind   Kind   `json:"kind"`
	Text   string `json:"text,omitempty"`
	Intent string `json:"intent,omitempty"`
	State  string `json:"state,omitempty"`
}

var ErrInvalid = errors.New("protocol: invalid event")

func (e Event) Validate() error {
	switch e.Kind {
	case KindTranscript, KindResponse, KindStatus, KindError:
	case KindState:
		if e.State == "" {
			return fmt.Errorf("%w: state event without state", ErrInvalid)
		}
	case KindChat:
		if strings.TrimSpace(e.Text) == "" {
			return fmt.Errorf("%w: empty chat text", ErrInvalid)
		}
	case KindControl:
		if !controls[e.Text] {
			return fmt.Errorf("%w: unknown control %q", ErrInvalid, e.Text)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, e.Kind)
	}
	return nil
}

func Encode(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

func Transcript(text, intent string) Event {
	return Event{Kind: KindTranscript, Text: text, Intent: intent}
}

func Response(text string) Event { return Event{Kind: KindResponse, Text: text} }

func Status(text string) Event { return Event{Kind: KindStatus, Text: text} }

func Error(text string) Event { return Event{Kind: KindError, Text: text} }

func State(state string) Event { return Event{Kind: KindState, State: state} }

func Chat(text string) Event { return Event{Kind: KindChat, Text: text} }

func Control(verb string) Event { return Event{Kind: KindControl, Text: verb} }
