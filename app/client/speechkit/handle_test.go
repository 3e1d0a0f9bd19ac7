package speechkit

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
)

type fakeStream struct {
	chunks [][]byte
	err    error
}

func (f *fakeStream) Recv() (*tts.UtteranceSynthesisResponse, error) {
	if len(f.chunks) == 0 {
		if f.err != nil {
			return nil, f.err
		}
		return nil, io.EOF
	}

	chunk := f.chunks[0]
	f.chunks = f.chunks[1:]

	var res tts.UtteranceSynthesisResponse
	res.SetAudioChunk(&tts.AudioChunk{Data: chunk})

	return &res, nil
}

func TestNewSynthesisRequest(t *testing.T) {
	req := newSynthesisRequest("Namaste", "john")

	assert.Equal(t, "Namaste", req.GetText())
	require.Len(t, req.GetHints(), 1)
	assert.Equal(t, "john", req.GetHints()[0].GetVoice())
	assert.Equal(t, tts.ContainerAudio_WAV, req.GetOutputAudioSpec().GetContainerAudio().GetContainerAudioType())
}

func TestReadAudio(t *testing.T) {
	audio, err := readAudio(&fakeStream{chunks: [][]byte{[]byte("RIFF"), []byte("data")}})
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFdata"), audio)
}

func TestReadAudioEmpty(t *testing.T) {
	_, err := readAudio(&fakeStream{})
	assert.Error(t, err)
}

func TestReadAudioError(t *testing.T) {
	failure := errors.New("unavailable")

	_, err := readAudio(&fakeStream{chunks: [][]byte{[]byte("RIFF")}, err: failure})
	assert.ErrorIs(t, err, failure)
}
