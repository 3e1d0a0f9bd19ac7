package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"healcure/app/i18n"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Plain errors: errors.Is treats every oops error as equal to any other.
var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrSessionEnded = errors.New("session has ended")
)

// Exchange is the handle of one submitted user message.
type Exchange struct {
	User  Message
	reply chan Message
}

// Await blocks until the assistant reply to this exchange is appended.
func (e *Exchange) Await(ctx context.Context) (Message, error) {
	select {
	case msg := <-e.reply:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Session owns one conversation: the message log, the composing state,
// speech playback and the active locale.
type Session struct {
	id         string
	ctx        context.Context
	cancel     context.CancelFunc
	dispatcher Dispatcher
	voice      SpeechSynthesizer
	now        func() time.Time

	// serializes speech toggles so that synthesizer calls follow state changes
	toggleMu sync.Mutex

	mu          sync.Mutex
	locale      i18n.Locale
	log         ConversationLog
	seedID      string
	pending     int
	playback    PlaybackState
	speechToken uint64
	lastActive  time.Time
	ended       bool
}

func NewSession(
	ctx context.Context,
	locale i18n.Locale,
	dispatcher Dispatcher,
	voice SpeechSynthesizer,
) *Session {
	if !locale.Valid() {
		locale = i18n.English
	}
	if voice == nil {
		voice = silentVoice{}
	}

	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		id:         uuid.NewString(),
		ctx:        ctx,
		cancel:     cancel,
		dispatcher: dispatcher,
		voice:      voice,
		now:        time.Now,
		locale:     locale,
		playback:   PlaybackIdle,
	}

	seed := s.newMessage(AuthorAssistant, i18n.Text(locale, i18n.ChatWelcome))
	s.seedID = seed.ID
	s.log.append(seed)
	s.lastActive = seed.CreatedAt

	return s
}

func (s *Session) ID() string {
	return s.id
}

// Voice is the synthesizer this session speaks through.
func (s *Session) Voice() SpeechSynthesizer {
	return s.voice
}

func (s *Session) newMessage(author Author, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		CreatedAt: s.now(),
	}
}

// SubmitUserMessage appends the user message right away and asks for a reply
// in the background. The reply, generated or fallback, is always appended.
func (s *Session) SubmitUserMessage(text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, oops.In("conversation").With("session_id", s.id).Wrap(ErrSessionEnded)
	}

	userMsg := s.newMessage(AuthorUser, text)
	s.log.append(userMsg)
	s.pending++
	s.lastActive = userMsg.CreatedAt
	request := GenerationRequest{
		UserMessageText: text,
		Locale:          s.locale,
	}
	s.mu.Unlock()

	exchange := &Exchange{
		User:  userMsg,
		reply: make(chan Message, 1),
	}

	s.dispatcher.Dispatch(NewJob(s.ctx, request, func(reply string, err error) {
		exchange.reply <- s.completeExchange(request, reply, err)
	}))

	return exchange, nil
}

func (s *Session) completeExchange(request GenerationRequest, reply string, err error) Message {
	reply = strings.TrimSpace(reply)
	if err == nil && reply == "" {
		err = oops.In("conversation").New("empty reply")
	}

	if err != nil {
		slog.Warn("Answer generation failed, using fallback",
			"session_id", s.id,
			"locale", request.Locale,
			"error", err,
		)
		reply = i18n.Text(request.Locale, i18n.ChatFallback)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.newMessage(AuthorAssistant, reply)
	s.log.append(msg)
	s.pending--
	s.lastActive = msg.CreatedAt

	return msg
}

// ToggleSpeech stops playback when playing, otherwise reads the latest
// assistant message aloud. It returns the resulting playback state.
func (s *Session) ToggleSpeech() PlaybackState {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	s.lastActive = s.now()

	if s.playback == PlaybackPlaying {
		s.playback = PlaybackIdle
		s.speechToken++
		s.mu.Unlock()

		s.voice.Stop()
		return PlaybackIdle
	}

	last, ok := s.log.lastBy(AuthorAssistant)
	if !ok || s.ended {
		s.mu.Unlock()
		return PlaybackIdle
	}

	s.speechToken++
	token := s.speechToken
	s.playback = PlaybackPlaying
	variant := s.locale.SpeechVariant()
	s.mu.Unlock()

	s.voice.Speak(last.Text, variant, func() {
		s.speechFinished(token)
	})

	return s.Playback()
}

// speechFinished ignores completions of utterances that were stopped or superseded.
func (s *Session) speechFinished(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.speechToken != token || s.playback != PlaybackPlaying {
		return
	}

	s.playback = PlaybackIdle
}

// ToggleLocale switches language. History is left untouched except for the
// welcome seed, which follows the locale until the user says something.
func (s *Session) ToggleLocale() i18n.Locale {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locale = s.locale.Toggle()
	s.lastActive = s.now()

	if seed, ok := s.log.first(); ok && s.log.len() == 1 && seed.ID == s.seedID {
		s.log.reseed(Message{
			ID:        seed.ID,
			Author:    AuthorAssistant,
			Text:      i18n.Text(s.locale, i18n.ChatWelcome),
			CreatedAt: s.now(),
		})
	}

	return s.locale
}

func (s *Session) Locale() i18n.Locale {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.locale
}

func (s *Session) Composing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending > 0
}

func (s *Session) Playback() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.playback
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.log.snapshot()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:        s.id,
		Locale:    s.locale,
		Composing: s.pending > 0,
		Speech:    s.playback,
		Messages:  s.log.snapshot(),
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActive
}

// End stops speech and cancels outstanding generation contexts. Outstanding
// requests still resolve, with a fallback reply.
func (s *Session) End() {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	wasPlaying := s.playback == PlaybackPlaying
	s.playback = PlaybackIdle
	s.speechToken++
	s.mu.Unlock()

	if wasPlaying {
		s.voice.Stop()
	}
	s.cancel()
}

// silentVoice finishes every utterance immediately.
type silentVoice struct{}

func (silentVoice) Speak(_, _ string, onDone func()) {
	go onDone()
}

func (silentVoice) Stop() {}
