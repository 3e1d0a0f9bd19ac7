package conversation

import (
	"context"
	"sync"
	"time"

	"healcure/app/i18n"
)

// manualDispatcher keeps jobs until the test resolves them.
type manualDispatcher struct {
	mu   sync.Mutex
	jobs []*Job
}

func (d *manualDispatcher) Dispatch(job *Job) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.jobs = append(d.jobs, job)
}

func (d *manualDispatcher) job(i int) *Job {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.jobs[i]
}

func (d *manualDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.jobs)
}

// goDispatcher runs every job on its own goroutine.
type goDispatcher struct {
	generator AnswerGenerator
	timeout   time.Duration
}

func (d *goDispatcher) Dispatch(job *Job) {
	go job.Run(job.Context(), d.generator, d.timeout)
}

type utterance struct {
	text    string
	variant string
	onDone  func()
}

type fakeVoice struct {
	mu     sync.Mutex
	spoken []utterance
	stops  int
}

func (v *fakeVoice) Speak(text, variant string, onDone func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.spoken = append(v.spoken, utterance{text: text, variant: variant, onDone: onDone})
}

func (v *fakeVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stops++
}

func (v *fakeVoice) last() utterance {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.spoken[len(v.spoken)-1]
}

func (v *fakeVoice) stopCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.stops
}

type fakeVoices struct {
	voice *fakeVoice
}

func (p *fakeVoices) NewVoice() SpeechSynthesizer {
	return p.voice
}

type generatorFunc func(ctx context.Context, prompt string, locale i18n.Locale) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string, locale i18n.Locale) (string, error) {
	return f(ctx, prompt, locale)
}
