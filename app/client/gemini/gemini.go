package gemini

import (
	"context"
	"strings"

	"healcure/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
	"google.golang.org/genai"
)

// Audio returned by the TTS models: signed 16-bit little-endian mono PCM.
const (
	SpeechSampleRate = 24000
	SpeechChannels   = 1
)

type Client struct {
	cfg    *config.Config
	client *genai.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	apiKey := cfg.Generator.Gemini.APIKey
	if apiKey == "" {
		apiKey = cfg.Speech.Gemini.APIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, oops.In("gemini").Wrapf(err, "failed to create client")
	}

	return &Client{
		cfg:    cfg,
		client: client,
	}, nil
}

// Complete sends a single prompt and returns the text of the answer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := float32(c.cfg.Generator.Temperature)

	res, err := c.client.Models.GenerateContent(
		ctx,
		c.cfg.Generator.Gemini.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: int32(c.cfg.Generator.MaxTokens),
		},
	)
	if err != nil {
		return "", oops.
			In("gemini").
			With("model", c.cfg.Generator.Gemini.Model).
			Wrapf(err, "failed to generate content")
	}

	return strings.TrimSpace(res.Text()), nil
}

// Synthesize reads text aloud with the configured prebuilt voice.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	res, err := c.client.Models.GenerateContent(
		ctx,
		c.cfg.Speech.Gemini.Model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
						VoiceName: c.cfg.Speech.Gemini.Voice,
					},
				},
			},
		},
	)
	if err != nil {
		return nil, oops.
			In("gemini").
			With("model", c.cfg.Speech.Gemini.Model).
			Wrapf(err, "failed to synthesize speech")
	}

	audio := extractAudio(res)
	if len(audio) == 0 {
		return nil, oops.In("gemini").New("no audio in response")
	}

	return audio, nil
}

func extractAudio(res *genai.GenerateContentResponse) []byte {
	if res == nil {
		return nil
	}

	var result []byte
	for _, candidate := range res.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				result = append(result, part.InlineData.Data...)
			}
		}
		if len(result) > 0 {
			break
		}
	}

	return result
}
