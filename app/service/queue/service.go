package queue

import (
	"log/slog"
	"sync"

	"healcure/app/config"
	"healcure/app/service/conversation"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service buffers generation jobs between sessions and the engine workers.
type Service struct {
	queue chan *conversation.Job

	mu     sync.RWMutex
	closed bool
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewWithSize(cfg.Chat.QueueSize), nil
}

func NewWithSize(size int) *Service {
	return &Service{
		queue: make(chan *conversation.Job, size),
	}
}

// Add enqueues job without blocking and reports whether it was accepted.
func (s *Service) Add(job *conversation.Job) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		slog.Warn("Job queue is closed")
		return false
	}

	select {
	case s.queue <- job:
		return true
	default:
		slog.Warn("Job queue is full", "capacity", cap(s.queue))
		return false
	}
}

func (s *Service) Channel() <-chan *conversation.Job {
	return s.queue
}

func (s *Service) Len() int {
	return len(s.queue)
}

// Shutdown closes the queue. Later Add calls are rejected.
func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.queue)
	}

	return nil
}
