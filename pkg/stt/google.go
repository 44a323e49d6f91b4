package stt

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"echo/pkg/audioconv"
)

// Google recognizes speech with Cloud Speech-to-Text.
type Google struct {
	client    *speech.Client
	language  string
	recognize func(context.Context, *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

func NewGoogle(ctx context.Context, language string, opts ...option.ClientOption) (*Google, error) {
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Google{
		client:   c,
		language: language,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return c.Recognize(ctx, req)
		},
	}, nil
}

func (g *Google) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Google) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", ErrUnintelligible
	}

	resp, err := g.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: audioconv.SampleRate,
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioconv.PCM16(pcm)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	for _, res := range resp.GetResults() {
		if alts := res.GetAlternatives(); len(alts) > 0 && alts[0].GetTranscript() != "" {
			return clean(alts[0].GetTranscript())
		}
	}
	return "", ErrUnintelligible
}
