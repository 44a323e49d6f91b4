package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var videoIDRe = regexp.MustCompile(`watch\?v=([A-Za-z0-9_-]{11})`)

// YouTube plays the first search hit for a title in the browser.
type YouTube struct {
	client *http.Client
	base   string
	opener Opener
}

func NewYouTube(client *http.Client, opener Opener, base string) *YouTube {
	if client == nil {
		client = http.DefaultClient
	}
	if base == "" {
		base = "https://www.youtube.com"
	}
	return &YouTube{client: client, base: strings.TrimRight(base, "/"), opener: opener}
}

func (y *YouTube) Play(ctx context.Context, title string) error {
	results := y.base + "/results?search_query=" + url.QueryEscape(title)

	body, status, err := get(ctx, y.client, results)
	if err != nil {
		return fmt.Errorf("youtube search: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("youtube search: unexpected status %d", status)
	}

	m := videoIDRe.FindSubmatch(body)
	if m == nil {
		return y.opener.Open(ctx, results)
	}
	return y.opener.Open(ctx, y.base+"/watch?v="+string(m[1]))
}
