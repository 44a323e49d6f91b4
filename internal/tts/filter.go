package tts

import (
	"regexp"
	"strings"
)

var (
	emphasisRe  = regexp.MustCompile(`\*\*.*?\*\*|\*.*?\*|` + "`.*?`")
	newlineRe   = regexp.MustCompile(`[\n\r]+`)
	unspeakable = regexp.MustCompile(`[^a-zA-Z0-9.,!?'" ]`)
)

// Filter strips markdown emphasis and anything a voice should not read out.
// Each emphasis or backtick match loses its first and last character.
func Filter(text string) string {
	text = emphasisRe.ReplaceAllStringFunc(text, func(m string) string {
		return m[1 : len(m)-1]
	})
	text = newlineRe.ReplaceAllString(text, " ")
	text = unspeakable.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
