package intent

import (
	"strings"

	"echo/internal/config"
)

const Default = "ai_chat"

// Classifier labels utterances for display. It is maintained apart from the
// dispatcher rules and the two may disagree.
type Classifier struct {
	table []config.Intent
}

func NewClassifier(table []config.Intent) *Classifier {
	return &Classifier{table: append([]config.Intent(nil), table...)}
}

// Classify returns the first tag in table order whose keyword occurs in the
// lowercased utterance, or Default.
func (c *Classifier) Classify(utterance string) string {
	s := strings.ToLower(utterance)
	for _, row := range c.table {
		for _, kw := range row.Keywords {
			if kw != "" && strings.Contains(s, kw) {
				return row.Tag
			}
		}
	}
	return Default
}
