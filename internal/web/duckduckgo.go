package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DuckDuckGo queries the instant answer API.
type DuckDuckGo struct {
	client  *http.Client
	base    string
	timeout time.Duration
}

func NewDuckDuckGo(client *http.Client, base string) *DuckDuckGo {
	if client == nil {
		client = http.DefaultClient
	}
	if base == "" {
		base = "https://api.duckduckgo.com"
	}
	return &DuckDuckGo{client: client, base: strings.TrimRight(base, "/"), timeout: 5 * time.Second}
}

// Query returns the abstract, else the first related topic, else "".
func (d *DuckDuckGo) Query(ctx context.Context, q string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	v := url.Values{}
	v.Set("q", q)
	v.Set("format", "json")
	v.Set("no_redirect", "1")

	body, status, err := get(ctx, d.client, d.base+"/?"+v.Encode())
	if err != nil {
		return "", fmt.Errorf("duckduckgo: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("duckduckgo: unexpected status %d", status)
	}

	if abs := gjson.GetBytes(body, "AbstractText").String(); abs != "" {
		return abs, nil
	}
	return gjson.GetBytes(body, "RelatedTopics.0.Text").String(), nil
}
