// Package web holds the network-facing collaborators of the dispatcher:
// encyclopedia summaries, instant answers, media playback and the browser.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

var (
	ErrNotFound       = errors.New("page not found")
	ErrDisambiguation = errors.New("topic is ambiguous")
)

// Opener hands a URL to whatever shows it to the user.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// SearchURL is the Google results page for q.
func SearchURL(q string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(q)
}

func get(ctx context.Context, client *http.Client, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "echo-assistant/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
