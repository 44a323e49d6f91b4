package tts

import (
	"context"
	"fmt"
	"os"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// Google synthesizes MP3 through Cloud Text-to-Speech.
type Google struct {
	client *texttospeech.Client
}

func NewGoogle(ctx context.Context, opts ...option.ClientOption) (*Google, error) {
	c, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	return &Google{client: c}, nil
}

func (g *Google) Close() error { return g.client.Close() }

func (g *Google) Synthesize(ctx context.Context, text string, v Voice) (string, error) {
	rate := v.Rate
	if rate <= 0 {
		rate = 1
	}

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageOf(v.Name),
			Name:         v.Name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  rate,
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}

	return writeTemp("echo-tts-*.mp3", resp.GetAudioContent())
}

// languageOf takes the language tag from a voice name like "en-US-Neural2-F".
func languageOf(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

func writeTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return f.Name(), nil
}
