// Package memory keeps the last few chat exchanges as context for the next
// AI query. Nothing is persisted.
package memory

import (
	"strings"
	"sync"
)

type Log struct {
	mu      sync.Mutex
	limit   int
	entries []string
}

func New(limit int) *Log {
	if limit < 1 {
		limit = 1
	}
	return &Log{limit: limit}
}

// Append adds entry and evicts from the front until the log is within its limit.
func (l *Log) Append(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append([]string(nil), l.entries[over:]...)
	}
}

// Render joins the entries oldest first, one per line.
func (l *Log) Render() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.entries, "\n")
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *Log) Limit() int { return l.limit }
