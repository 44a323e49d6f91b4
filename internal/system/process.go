package system

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Processes terminates running programs by name.
type Processes struct{}

// Terminate sends SIGTERM to every process whose name contains pattern,
// ignoring case. Processes that vanish or deny access are skipped.
func (Processes) Terminate(ctx context.Context, pattern string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	needle := strings.ToLower(pattern)
	closed := false
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		if err := p.TerminateWithContext(ctx); err != nil {
			if !errors.Is(err, process.ErrorProcessNotRunning) {
				log.Debug("Terminate failed", "pid", p.Pid, "name", name, "err", err)
			}
			continue
		}
		log.Info("Terminated process", "pid", p.Pid, "name", name)
		closed = true
	}

	return closed, nil
}
