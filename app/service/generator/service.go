package generator

import (
	"context"
	"strings"
	"time"

	"healcure/app/client/gemini"
	"healcure/app/client/openai"
	"healcure/app/config"
	"healcure/app/i18n"
	"healcure/app/service/conversation"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	userPrefix      = "\n\nUser: "
	assistantSuffix = "\n\nAssistant:"
)

var _ conversation.AnswerGenerator = (*Service)(nil)

// Backend completes a fully built prompt.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	backend Backend
	name    string
	now     func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	var backend Backend

	switch cfg.Generator.Backend {
	case "gemini":
		client, err := do.Invoke[*gemini.Client](di)
		if err != nil {
			return nil, oops.In("generator").Wrapf(err, "failed to create gemini backend")
		}
		backend = client
	case "openai":
		client, err := do.Invoke[*openai.Client](di)
		if err != nil {
			return nil, oops.In("generator").Wrapf(err, "failed to create openai backend")
		}
		backend = client
	case "echo":
		backend = EchoBackend{}
	default:
		return nil, oops.In("generator").Errorf("unknown backend %q", cfg.Generator.Backend)
	}

	return NewWithBackend(cfg.Generator.Backend, backend), nil
}

func NewWithBackend(name string, backend Backend) *Service {
	return &Service{
		backend: backend,
		name:    name,
		now:     time.Now,
	}
}

// Generate answers text in the given locale.
func (s *Service) Generate(ctx context.Context, text string, locale i18n.Locale) (string, error) {
	prompt := BuildPrompt(locale, text, s.now())

	reply, err := s.backend.Complete(ctx, prompt)
	if err != nil {
		return "", oops.
			In("generator").
			With("backend", s.name).
			With("locale", locale).
			Wrap(err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", oops.In("generator").With("backend", s.name).New("backend returned empty answer")
	}

	return reply, nil
}

func BuildPrompt(locale i18n.Locale, text string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(i18n.Text(locale, i18n.SystemPrompt, i18n.FormatDate(locale, now)))
	sb.WriteString(userPrefix)
	sb.WriteString(strings.TrimSpace(text))
	sb.WriteString(assistantSuffix)

	return sb.String()
}

// EchoBackend answers with the user's own words, for running without a model.
type EchoBackend struct{}

func (EchoBackend) Complete(_ context.Context, prompt string) (string, error) {
	start := strings.LastIndex(prompt, userPrefix)
	end := strings.LastIndex(prompt, assistantSuffix)
	if start < 0 || end < start {
		return "", oops.In("generator").New("malformed prompt")
	}

	return "You said: " + prompt[start+len(userPrefix):end], nil
}
