package playback

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlayerScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("player scripts need a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "player.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	return path
}

func TestFormatArgs(t *testing.T) {
	assert.Empty(t, WAV.inputArgs())
	assert.Equal(t, []string{"-f", "s16le", "-ar", "24000", "-ac", "1"}, PCM16(24000, 1).inputArgs())
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "audio/wav", WAV.ContentType())
	assert.Equal(t, "audio/L16;rate=24000;channels=1", PCM16(24000, 1).ContentType())
}

func TestNopPlayer(t *testing.T) {
	assert.NoError(t, NopPlayer{}.Play(context.Background(), []byte("RIFF"), WAV))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NopPlayer{}.Play(ctx, nil, WAV), context.Canceled)
}

func TestExecPlayerMissingBinary(t *testing.T) {
	player := &ExecPlayer{Binary: "healcure-no-such-player"}

	assert.Error(t, player.Play(context.Background(), []byte("RIFF"), WAV))
}

func TestExecPlayerPlaysClip(t *testing.T) {
	player := &ExecPlayer{Binary: writePlayerScript(t, "cat > /dev/null")}

	assert.NoError(t, player.Play(context.Background(), []byte("RIFF"), WAV))
}

func TestExecPlayerStopsStuckPlayer(t *testing.T) {
	player := &ExecPlayer{Binary: writePlayerScript(t, "exec 0<&-\nexec sleep 30")}

	done := make(chan error, 1)
	go func() {
		done <- player.Play(context.Background(), make([]byte, 1<<20), WAV)
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "player was not stopped")
	}
}
