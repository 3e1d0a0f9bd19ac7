package playback

import (
	"context"
	"strconv"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

// Format describes how a clip is encoded.
type Format struct {
	// Container is true for self describing audio such as WAV.
	Container  bool
	SampleRate int
	Channels   int
}

var WAV = Format{Container: true}

// PCM16 is raw signed 16-bit little-endian audio.
func PCM16(sampleRate, channels int) Format {
	return Format{
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

func (f Format) ContentType() string {
	if f.Container {
		return "audio/wav"
	}
	return "audio/L16;rate=" + strconv.Itoa(f.SampleRate) + ";channels=" + strconv.Itoa(f.Channels)
}

func (f Format) inputArgs() []string {
	if f.Container {
		return nil
	}

	return []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(f.SampleRate),
		"-ac", strconv.Itoa(f.Channels),
	}
}

// Player plays a clip and blocks until it ends or ctx is done.
type Player interface {
	Play(ctx context.Context, audio []byte, format Format) error
}

// ExecPlayer pipes clips into an external player process.
type ExecPlayer struct {
	Binary string

	// one process owns the audio device at a time
	mu sync.Mutex
}

func (p *ExecPlayer) Play(ctx context.Context, audio []byte, format Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stream, err := NewFFplayStream(ctx, p.Binary, format)
	if err != nil {
		return err
	}

	if err = stream.Start(); err != nil {
		return err
	}

	group := new(errgroup.Group)
	group.Go(func() error {
		if err := stream.Feed(audio); err != nil {
			// the player stopped reading its input
			_ = stream.Stop()
			return err
		}
		return nil
	})

	waitErr := stream.Wait()
	feedErr := group.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		return oops.In("playback").With("binary", p.Binary).Wrapf(waitErr, "player exited")
	}

	return feedErr
}

// NopPlayer discards clips. The client fetches them over HTTP instead.
type NopPlayer struct{}

func (NopPlayer) Play(ctx context.Context, _ []byte, _ Format) error {
	return ctx.Err()
}
