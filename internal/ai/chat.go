package ai

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"echo/internal/memory"
)

// Completer sends one fully assembled prompt to a generative model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	unavailableReply = "AI chat is not available. Set GEMINI_API_KEY or OPENAI_API_KEY."
	emptyReply       = "I couldn't process that."
)

// Chat is the fallback path for anything no command rule handles. A nil
// Completer means no AI backend was configured.
type Chat struct {
	completer Completer
	memory    *memory.Log
	system    string
	name      string
	timeout   time.Duration
}

type ChatConfig struct {
	Completer    Completer
	Memory       *memory.Log
	SystemPrompt string
	Name         string
	Timeout      time.Duration
}

func NewChat(cfg ChatConfig) *Chat {
	name := cfg.Name
	if name == "" {
		name = "Echo"
	}
	return &Chat{
		completer: cfg.Completer,
		memory:    cfg.Memory,
		system:    cfg.SystemPrompt,
		name:      name,
		timeout:   cfg.Timeout,
	}
}

func (c *Chat) Available() bool { return c.completer != nil }

// Ask never fails: errors come back as a sentence for the user.
func (c *Chat) Ask(ctx context.Context, prompt string) string {
	if c.completer == nil {
		return unavailableReply
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.completer.Complete(ctx, c.assemble(prompt))
	if err != nil {
		log.Error("AI query failed", "err", err)
		return fmt.Sprintf("I'm having trouble connecting to my AI service. Error: %v", err)
	}

	answer := strings.TrimSpace(out)
	if answer == "" {
		answer = emptyReply
	}

	if c.memory != nil {
		c.memory.Append(fmt.Sprintf("User: %s\n%s: %s", prompt, c.name, answer))
	}

	return answer
}

func (c *Chat) assemble(prompt string) string {
	var history string
	if c.memory != nil {
		history = c.memory.Render()
	}
	return fmt.Sprintf("%s\n%s\nUser: %s", c.system, history, prompt)
}
