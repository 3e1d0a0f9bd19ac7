package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"healcure/app/client/gemini"
	"healcure/app/client/speechkit"
	"healcure/app/config"
	"healcure/app/service/conversation"
	"healcure/app/service/playback"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const maxUtteranceDuration = 5 * time.Minute

var (
	_ conversation.VoiceProvider = (*Service)(nil)
	_ do.Shutdownable            = (*Service)(nil)
)

// Service owns the speech device. Sessions talk to it through their own Voice,
// and only one utterance plays at a time.
type Service struct {
	appCtx      context.Context
	synthesizer Synthesizer
	player      playback.Player

	mu      sync.Mutex
	current *utterance
}

type utterance struct {
	voice   *Voice
	cancel  context.CancelFunc
	stopped bool
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	var synthesizer Synthesizer

	switch cfg.Speech.Backend {
	case "speechkit":
		client, err := do.Invoke[*speechkit.YandexSpeechKit](di)
		if err != nil {
			return nil, oops.In("speech").Wrapf(err, "failed to create speechkit backend")
		}
		synthesizer = speechKitSynthesizer{client: client}
	case "gemini":
		client, err := do.Invoke[*gemini.Client](di)
		if err != nil {
			return nil, oops.In("speech").Wrapf(err, "failed to create gemini backend")
		}
		synthesizer = geminiSynthesizer{client: client}
	}

	var player playback.Player = playback.NopPlayer{}
	if cfg.Speech.Player != "" && cfg.Speech.Player != "none" {
		player = &playback.ExecPlayer{Binary: cfg.Speech.Player}
	}

	return NewWithBackend(do.MustInvoke[context.Context](di), synthesizer, player), nil
}

// NewWithBackend builds the service around a synthesizer. A nil synthesizer
// makes every utterance finish immediately without sound.
func NewWithBackend(ctx context.Context, synthesizer Synthesizer, player playback.Player) *Service {
	return &Service{
		appCtx:      ctx,
		synthesizer: synthesizer,
		player:      player,
	}
}

func (s *Service) NewVoice() conversation.SpeechSynthesizer {
	return &Voice{svc: s}
}

func (s *Service) speak(voice *Voice, text, variant string, onDone func()) {
	if s.synthesizer == nil {
		slog.Debug("Speech is disabled", "variant", variant)
		go onDone()
		return
	}

	ctx, cancel := context.WithTimeout(s.appCtx, maxUtteranceDuration)
	utt := &utterance{
		voice:  voice,
		cancel: cancel,
	}

	s.mu.Lock()
	if prev := s.current; prev != nil {
		// interrupted, not stopped: its owner still gets onDone
		prev.cancel()
	}
	s.current = utt
	s.mu.Unlock()

	go func() {
		defer cancel()

		err := s.play(ctx, voice, text, variant)

		s.mu.Lock()
		if s.current == utt {
			s.current = nil
		}
		stopped := utt.stopped
		s.mu.Unlock()

		if stopped {
			return
		}

		if err != nil {
			slog.Warn("Speech playback failed",
				"variant", variant,
				"error", err,
			)
		}

		onDone()
	}()
}

func (s *Service) play(ctx context.Context, voice *Voice, text, variant string) error {
	clip, err := s.synthesizer.Synthesize(ctx, text, variant)
	if err != nil {
		return oops.In("speech").With("variant", variant).Wrapf(err, "failed to synthesize")
	}

	voice.setLastClip(clip)

	if err = s.player.Play(ctx, clip.Audio, clip.Format); err != nil {
		return oops.In("speech").With("variant", variant).Wrapf(err, "failed to play")
	}

	return nil
}

func (s *Service) stop(voice *Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.voice != voice {
		return
	}

	s.current.stopped = true
	s.current.cancel()
	s.current = nil
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.stopped = true
		s.current.cancel()
		s.current = nil
	}

	return nil
}

var _ conversation.SpeechSynthesizer = (*Voice)(nil)

// Voice is a session's handle on the speech device.
type Voice struct {
	svc *Service

	mu       sync.Mutex
	lastClip *Clip
}

func (v *Voice) Speak(text, variant string, onDone func()) {
	v.svc.speak(v, text, variant, onDone)
}

// Stop silences this voice. Utterances of other voices keep playing.
func (v *Voice) Stop() {
	v.svc.stop(v)
}

// LastClip returns the most recently synthesized audio of this voice.
func (v *Voice) LastClip() (Clip, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.lastClip == nil {
		return Clip{}, false
	}
	return *v.lastClip, true
}

func (v *Voice) setLastClip(clip Clip) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.lastClip = &clip
}
