package playback

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/samber/oops"
)

type FFplayStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr io.ReadCloser
	mu     sync.Mutex
}

func NewFFplayStream(ctx context.Context, binary string, format Format) (*FFplayStream, error) {
	args := []string{
		"-nodisp",
		"-autoexit",
		"-loglevel", "warning",
	}
	args = append(args, format.inputArgs()...)
	args = append(args, "-i", "-")

	cmd := exec.CommandContext(ctx, binary, args...)
	slog.Debug("Running player", "cmd", binary+" "+strings.Join(args, " "))

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, oops.In("playback").Wrapf(err, "failed to create stdin pipe")
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, oops.In("playback").Wrapf(err, "failed to create stderr pipe")
	}

	return &FFplayStream{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
	}, nil
}

func (f *FFplayStream) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.cmd.Start(); err != nil {
		return oops.In("playback").Wrapf(err, "failed to start player")
	}

	go f.logStderr()

	return nil
}

// Feed writes the whole clip to the player and closes its input.
func (f *FFplayStream) Feed(audio []byte) error {
	defer f.stdin.Close()

	if _, err := f.stdin.Write(audio); err != nil {
		return oops.In("playback").Wrapf(err, "failed to write audio")
	}

	return nil
}

func (f *FFplayStream) Wait() error {
	return f.cmd.Wait()
}

func (f *FFplayStream) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cmd.Process != nil {
		return f.cmd.Process.Kill()
	}
	return nil
}

func (f *FFplayStream) logStderr() {
	scanner := bufio.NewScanner(f.stderr)
	for scanner.Scan() {
		slog.Debug("ffplay", "stderr", scanner.Text())
	}
}
