// Package notify plays short cues for the user.
package notify

import (
	"fmt"
	"os"

	"echo/internal/audio"
)

type Chime struct {
	player *audio.Player
	path   string
}

// NewChime returns nil when the sound file is missing, so callers can skip cues.
func NewChime(player *audio.Player, path string) *Chime {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return &Chime{player: player, path: path}
}

// Ring plays the cue and waits for it to finish. A nil Chime is silent.
func (c *Chime) Ring() error {
	if c == nil {
		return nil
	}
	pb, err := c.player.Play(c.path)
	if err != nil {
		return fmt.Errorf("chime: %w", err)
	}
	pb.Wait()
	return nil
}
