package shell

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"echo/pkg/protocol"
)

// Run connects to the daemon bus at url and blocks until the user quits.
func Run(ctx context.Context, url string) error {
	events := make(chan protocol.Event, 64)
	client, err := protocol.NewClient(protocol.ClientConfig{
		URL:    url,
		Reconn: time.Second,
		EmitOut: func(e protocol.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = client.Run(ctx)
		close(events)
	}()

	_, err = tea.NewProgram(New(client, events), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
