package system

import (
	"context"
	"fmt"
	"os/exec"
)

// Launcher starts an application detached from the assistant.
type Launcher struct{}

func (Launcher) Launch(_ context.Context, path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}
	go cmd.Wait()
	return nil
}
