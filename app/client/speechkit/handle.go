package speechkit

import (
	"errors"
	"io"

	"github.com/samber/oops"
	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
)

func newSynthesisRequest(text, voice string) *tts.UtteranceSynthesisRequest {
	var voiceHint tts.Hints
	voiceHint.SetVoice(voice)

	var audioFormat tts.AudioFormatOptions
	audioFormat.SetContainerAudio(&tts.ContainerAudio{
		ContainerAudioType: tts.ContainerAudio_WAV,
	})

	var req tts.UtteranceSynthesisRequest
	req.SetText(text)
	req.SetHints([]*tts.Hints{&voiceHint})
	req.SetOutputAudioSpec(&audioFormat)
	req.SetLoudnessNormalizationType(tts.UtteranceSynthesisRequest_LUFS)

	return &req
}

type audioStream interface {
	Recv() (*tts.UtteranceSynthesisResponse, error)
}

// readAudio concatenates audio chunks until the server closes the stream.
func readAudio(stream audioStream) ([]byte, error) {
	var result []byte

	for {
		res, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, oops.Wrapf(err, "failed to receive tts")
		}

		result = append(result, res.GetAudioChunk().GetData()...)
	}

	if len(result) == 0 {
		return nil, oops.New("empty tts response")
	}

	return result, nil
}
