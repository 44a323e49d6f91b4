package web

import (
	"context"
	"fmt"
	log "log/slog"
	"os/exec"
	"runtime"
)

// Browser opens URLs with the desktop's default handler.
type Browser struct{}

func (Browser) Open(_ context.Context, u string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u)
	case "darwin":
		cmd = exec.Command("open", u)
	default:
		cmd = exec.Command("xdg-open", u)
	}

	log.Debug("Opening url", "url", u)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	go cmd.Wait()

	return nil
}
