package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

type Wikipedia struct {
	client    *http.Client
	base      string
	sentences int
}

func NewWikipedia(client *http.Client, base string) *Wikipedia {
	if client == nil {
		client = http.DefaultClient
	}
	if base == "" {
		base = "https://en.wikipedia.org"
	}
	return &Wikipedia{client: client, base: strings.TrimRight(base, "/"), sentences: 2}
}

// Summary returns the first two sentences of the article on topic.
func (w *Wikipedia) Summary(ctx context.Context, topic string) (string, error) {
	title := strings.ReplaceAll(strings.TrimSpace(topic), " ", "_")
	u := fmt.Sprintf("%s/api/rest_v1/page/summary/%s?redirect=true", w.base, url.PathEscape(title))

	body, status, err := get(ctx, w.client, u)
	if err != nil {
		return "", fmt.Errorf("wikipedia: %w", err)
	}

	switch {
	case status == http.StatusNotFound:
		return "", ErrNotFound
	case status != http.StatusOK:
		return "", fmt.Errorf("wikipedia: unexpected status %d", status)
	}

	if gjson.GetBytes(body, "type").String() == "disambiguation" {
		return "", ErrDisambiguation
	}

	extract := gjson.GetBytes(body, "extract").String()
	if strings.TrimSpace(extract) == "" {
		return "", ErrNotFound
	}

	return firstSentences(extract, w.sentences), nil
}

// firstSentences cuts text after the n-th sentence terminator that is
// followed by whitespace or the end of text.
func firstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	rs := []rune(text)
	count := 0
	for i, r := range rs {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(rs) && !unicode.IsSpace(rs[i+1]) {
			continue
		}
		count++
		if count == n {
			return string(rs[:i+1])
		}
	}
	return text
}
