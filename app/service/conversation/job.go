package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one GenerationRequest travelling to the answer generator.
type Job struct {
	ctx     context.Context
	Request GenerationRequest

	once    sync.Once
	resolve func(reply string, err error)
}

func NewJob(ctx context.Context, request GenerationRequest, resolve func(reply string, err error)) *Job {
	return &Job{
		ctx:     ctx,
		Request: request,
		resolve: resolve,
	}
}

func (j *Job) Context() context.Context {
	return j.ctx
}

// Resolve delivers the outcome. Only the first call has an effect.
func (j *Job) Resolve(reply string, err error) {
	j.once.Do(func() {
		j.resolve(reply, err)
	})
}

// Run asks generator for a reply and resolves the job with it.
func (j *Job) Run(ctx context.Context, generator AnswerGenerator, timeout time.Duration) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := generator.Generate(ctx, j.Request.UserMessageText, j.Request.Locale)

	slog.Debug("Generation finished",
		"locale", j.Request.Locale,
		"duration", time.Since(start),
		"failed", err != nil,
	)

	j.Resolve(reply, err)
}
