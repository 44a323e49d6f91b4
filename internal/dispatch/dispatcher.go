// Package dispatch turns an utterance into an action and a spoken reply.
//
// Rules are plain substring checks evaluated in a fixed order; the first rule
// that matches handles the utterance and anything left over goes to the AI
// chat. The order is independent of the intent classifier's table.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

type Player interface {
	Play(ctx context.Context, title string) error
}

type Encyclopedia interface {
	Summary(ctx context.Context, topic string) (string, error)
}

type Answers interface {
	Query(ctx context.Context, q string) (string, error)
}

type Opener interface {
	Open(ctx context.Context, url string) error
}

type Launcher interface {
	Launch(ctx context.Context, path string) error
}

type Terminator interface {
	Terminate(ctx context.Context, pattern string) (bool, error)
}

// Leveler sets a system level; fraction is in [0, 1].
type Leveler interface {
	SetLevel(ctx context.Context, fraction float64) error
}

type Asker interface {
	Ask(ctx context.Context, prompt string) string
}

var errUnavailable = errors.New("not available")

// Config wires collaborators. Any of them may be nil; a nil collaborator
// behaves like one whose every call fails.
type Config struct {
	Media        Player
	Encyclopedia Encyclopedia
	Answers      Answers
	Browser      Opener
	Launcher     Launcher
	Processes    Terminator
	Volume       Leveler
	Brightness   Leveler
	Chat         Asker

	Apps map[string]string
	Now  func() time.Time
}

type rule struct {
	name   string
	match  func(cmd string) bool
	handle func(ctx context.Context, cmd string) string
}

type Dispatcher struct {
	cfg   Config
	rules []rule
}

func New(cfg Config) *Dispatcher {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	d := &Dispatcher{cfg: cfg}
	d.rules = d.buildRules()
	return d
}

// Dispatch always returns a reply; collaborator failures and panics become
// apologies.
func (d *Dispatcher) Dispatch(ctx context.Context, utterance string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Dispatch panicked", "utterance", utterance, "panic", r)
			reply = apology(fmt.Errorf("%v", r))
		}
	}()

	cmd := strings.ToLower(strings.TrimSpace(utterance))
	for _, r := range d.rules {
		if r.match(cmd) {
			log.Debug("Dispatch", "rule", r.name, "cmd", cmd)
			return r.handle(ctx, cmd)
		}
	}

	log.Debug("Dispatch", "rule", "chat", "cmd", cmd)
	return d.ask(ctx, strings.TrimSpace(utterance))
}

// Route names the rule that would handle utterance, "chat" for the fallback.
func (d *Dispatcher) Route(utterance string) string {
	cmd := strings.ToLower(strings.TrimSpace(utterance))
	for _, r := range d.rules {
		if r.match(cmd) {
			return r.name
		}
	}
	return "chat"
}

func (d *Dispatcher) ask(ctx context.Context, prompt string) string {
	if d.cfg.Chat == nil {
		return "AI chat is not available. Set GEMINI_API_KEY or OPENAI_API_KEY."
	}
	return d.cfg.Chat.Ask(ctx, prompt)
}

func apology(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error: %v", err)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// strip removes every occurrence of each word, in order, and squeezes spaces.
func strip(s string, words ...string) string {
	for _, w := range words {
		s = strings.ReplaceAll(s, w, "")
	}
	return strings.Join(strings.Fields(s), " ")
}
