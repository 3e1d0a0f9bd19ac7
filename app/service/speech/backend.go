package speech

import (
	"context"

	"healcure/app/client/gemini"
	"healcure/app/client/speechkit"
	"healcure/app/service/playback"
)

// Clip is one synthesized utterance.
type Clip struct {
	Text    string
	Variant string
	Audio   []byte
	Format  playback.Format
}

// Synthesizer turns text into audio for a speech variant such as en-IN.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, variant string) (Clip, error)
}

type speechKitSynthesizer struct {
	client *speechkit.YandexSpeechKit
}

func (s speechKitSynthesizer) Synthesize(ctx context.Context, text, variant string) (Clip, error) {
	audio, err := s.client.Synthesize(ctx, text, variant)
	if err != nil {
		return Clip{}, err
	}

	return Clip{
		Text:    text,
		Variant: variant,
		Audio:   audio,
		Format:  playback.WAV,
	}, nil
}

type geminiSynthesizer struct {
	client *gemini.Client
}

func (s geminiSynthesizer) Synthesize(ctx context.Context, text, variant string) (Clip, error) {
	audio, err := s.client.Synthesize(ctx, text)
	if err != nil {
		return Clip{}, err
	}

	return Clip{
		Text:    text,
		Variant: variant,
		Audio:   audio,
		Format:  playback.PCM16(gemini.SpeechSampleRate, gemini.SpeechChannels),
	}, nil
}
