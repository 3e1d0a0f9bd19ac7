package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"healcure/app/config"
	"healcure/app/i18n"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const janitorInterval = time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

var _ do.Shutdownable = (*Service)(nil)

// Service keeps the live sessions.
type Service struct {
	cfg        *config.Config
	appCtx     context.Context
	dispatcher Dispatcher
	voices     VoiceProvider

	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:        do.MustInvoke[*config.Config](di),
		appCtx:     do.MustInvoke[context.Context](di),
		dispatcher: do.MustInvoke[Dispatcher](di),
		voices:     do.MustInvoke[VoiceProvider](di),
		sessions:   make(map[string]*Session),
	}, nil
}

// Start opens a new session in the given locale, or the default one when
// locale is empty.
func (s *Service) Start(locale i18n.Locale) (*Session, error) {
	if locale == "" {
		locale = i18n.Locale(s.cfg.Chat.DefaultLocale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.cfg.Chat.MaxSessions {
		return nil, oops.
			In("conversation").
			With("max_sessions", s.cfg.Chat.MaxSessions).
			Wrap(ErrTooManySessions)
	}

	session := NewSession(s.appCtx, locale, s.dispatcher, s.voices.NewVoice())
	s.sessions[session.ID()] = session

	slog.Info("Session started",
		"session_id", session.ID(),
		"locale", session.Locale(),
		"sessions", len(s.sessions),
	)

	return session, nil
}

func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, oops.In("conversation").With("session_id", id).Wrap(ErrSessionNotFound)
	}

	return session, nil
}

func (s *Service) End(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return oops.In("conversation").With("session_id", id).Wrap(ErrSessionNotFound)
	}

	session.End()

	slog.Info("Session ended", "session_id", id)

	return nil
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// RunJanitor ends sessions idle for longer than the configured TTL until ctx is done.
func (s *Service) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := s.evictIdle(now); evicted > 0 {
				slog.Info("Evicted idle sessions", "count", evicted)
			}
		}
	}
}

func (s *Service) evictIdle(now time.Time) int {
	var idle []*Session

	s.mu.Lock()
	for id, session := range s.sessions {
		if now.Sub(session.idleSince()) > s.cfg.Chat.SessionTTL {
			idle = append(idle, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range idle {
		session.End()
	}

	return len(idle)
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.End()
	}

	return nil
}
