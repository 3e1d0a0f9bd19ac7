package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"healcure/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const requestTimeout = time.Minute

// Client talks to any OpenAI compatible completion API.
type Client struct {
	cfg *config.Config
	llm *openai.LLM
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	llm, err := openai.New(
		openai.WithBaseURL(cfg.Generator.OpenAI.BaseURL),
		openai.WithToken(cfg.Generator.OpenAI.Token),
		openai.WithModel(cfg.Generator.OpenAI.Model),
		openai.WithHTTPClient(&http.Client{
			Timeout: requestTimeout,
		}),
		openai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, oops.In("openai").Wrapf(err, "failed to create client")
	}

	return &Client{
		cfg: cfg,
		llm: llm,
	}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(c.cfg.Generator.Temperature),
		llms.WithMaxTokens(c.cfg.Generator.MaxTokens),
	)
	if err != nil {
		return "", oops.
			In("openai").
			With("model", c.cfg.Generator.OpenAI.Model).
			Wrapf(err, "failed to generate completion")
	}

	return strings.TrimSpace(result), nil
}
