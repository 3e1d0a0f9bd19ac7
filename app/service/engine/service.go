package engine

import (
	"context"
	"log/slog"
	"time"

	"healcure/app/config"
	"healcure/app/service/conversation"
	"healcure/app/service/queue"

	"github.com/samber/do"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

var _ conversation.Dispatcher = (*Service)(nil)

// Service is the pool of workers that generate answers for queued jobs.
type Service struct {
	cfg       *config.Config
	queueSvc  *queue.Service
	generator conversation.AnswerGenerator
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:       do.MustInvoke[*config.Config](di),
		queueSvc:  do.MustInvoke[*queue.Service](di),
		generator: do.MustInvoke[conversation.AnswerGenerator](di),
	}, nil
}

// Dispatch enqueues job. A job that cannot be queued is resolved with an error
// right away, so its session still receives a reply.
func (s *Service) Dispatch(job *conversation.Job) {
	if s.queueSvc.Add(job) {
		return
	}

	job.Resolve("", oops.
		In("engine").
		With("queued", s.queueSvc.Len()).
		New("generation queue is unavailable"))
}

// Run processes jobs until ctx is done or the queue is closed. On exit the
// queue is closed, so later Dispatch calls fail fast, and jobs left in it are
// resolved with the cancellation error.
func (s *Service) Run(ctx context.Context) {
	slog.Info("Generation workers started", "workers", s.cfg.Chat.Workers)

	group, groupCtx := errgroup.WithContext(ctx)

	for i := range s.cfg.Chat.Workers {
		group.Go(func() error {
			s.runWorker(groupCtx, i)
			return nil
		})
	}

	_ = group.Wait()

	_ = s.queueSvc.Shutdown()
	s.drain(ctx)

	slog.Info("Generation workers stopped")
}

func (s *Service) runWorker(ctx context.Context, worker int) {
	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}

			if err := job.Context().Err(); err != nil {
				job.Resolve("", err)
				continue
			}

			start := time.Now()
			s.process(job)

			slog.Debug("Processed job",
				"worker", worker,
				"locale", job.Request.Locale,
				"duration", time.Since(start),
			)
		}
	}
}

func (s *Service) process(job *conversation.Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Generation panicked", "panic", r)
			job.Resolve("", oops.In("engine").Errorf("generation panicked: %v", r))
		}
	}()

	job.Run(job.Context(), s.generator, s.cfg.Chat.GenerationTimeout)
}

func (s *Service) drain(ctx context.Context) {
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}

	for job := range s.queueSvc.Channel() {
		job.Resolve("", cause)
	}
}
