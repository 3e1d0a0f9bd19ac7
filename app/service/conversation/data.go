package conversation

import (
	"context"
	"time"

	"healcure/app/i18n"
)

type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Message is never modified after it is appended, except for the welcome seed
// which is re-localized while it is the only message in the log.
type Message struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackPlaying PlaybackState = "playing"
)

type GenerationRequest struct {
	UserMessageText string
	Locale          i18n.Locale
}

type Snapshot struct {
	ID        string        `json:"id"`
	Locale    i18n.Locale   `json:"locale"`
	Composing bool          `json:"composing"`
	Speech    PlaybackState `json:"speech"`
	Messages  []Message     `json:"messages"`
}

// AnswerGenerator turns user text into an assistant reply.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string, locale i18n.Locale) (string, error)
}

// SpeechSynthesizer plays text aloud. Speak may interrupt a previous utterance,
// onDone fires when playback ends on its own (or fails), never after Stop.
type SpeechSynthesizer interface {
	Speak(text, variant string, onDone func())
	Stop()
}

// VoiceProvider hands every session its own view of the speech device.
type VoiceProvider interface {
	NewVoice() SpeechSynthesizer
}

// Dispatcher runs generation jobs without blocking the caller.
// Every dispatched job must eventually be resolved.
type Dispatcher interface {
	Dispatch(job *Job)
}
