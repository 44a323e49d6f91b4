// Package stt turns 16 kHz mono utterances into text.
package stt

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnintelligible means the audio held no recognizable speech.
var ErrUnintelligible = errors.New("stt: could not understand audio")

// Whisper marks silence and noise with tokens like [BLANK_AUDIO] or (music).
var markerRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

func clean(text string) (string, error) {
	text = markerRe.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}
