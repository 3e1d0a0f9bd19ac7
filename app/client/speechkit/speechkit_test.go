package speechkit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"healcure/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
	iampb "github.com/yandex-cloud/go-genproto/yandex/cloud/iam/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type utteranceStream struct {
	grpc.ClientStream
	*fakeStream
}

type fakeSynthesizer struct {
	mu       sync.Mutex
	requests []*tts.UtteranceSynthesisRequest
	auth     []string

	chunks [][]byte
	err    error
}

func (f *fakeSynthesizer) UtteranceSynthesis(ctx context.Context, in *tts.UtteranceSynthesisRequest, _ ...grpc.CallOption) (tts.Synthesizer_UtteranceSynthesisClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	md, _ := metadata.FromOutgoingContext(ctx)
	f.auth = append(f.auth, md.Get("authorization")...)
	f.requests = append(f.requests, in)

	if f.err != nil {
		return nil, f.err
	}

	return utteranceStream{fakeStream: &fakeStream{chunks: f.chunks}}, nil
}

type fakeIssuer struct {
	mu     sync.Mutex
	issued int
	ttl    time.Duration
	err    error
}

func (f *fakeIssuer) CreateIAMToken(context.Context) (*iampb.CreateIamTokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	f.issued++

	return &iampb.CreateIamTokenResponse{
		IamToken:  "token-" + strconv.Itoa(f.issued),
		ExpiresAt: timestamppb.New(time.Now().Add(f.ttl)),
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Speech: config.Speech{
			SpeechKit: config.SpeechKit{
				Voices: map[string]string{"en-IN": "john", "hi-IN": ""},
			},
		},
	}
}

func TestSynthesize(t *testing.T) {
	client := &fakeSynthesizer{chunks: [][]byte{[]byte("RIFF"), []byte("data")}}
	issuer := &fakeIssuer{ttl: time.Hour}
	kit := newWithClient(testConfig(), client, issuer)

	audio, err := kit.Synthesize(context.Background(), "Drink water", "en-IN")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFdata"), audio)

	require.Len(t, client.requests, 1)
	assert.Equal(t, "Drink water", client.requests[0].GetText())
	assert.Equal(t, "john", client.requests[0].GetHints()[0].GetVoice())
	assert.Equal(t, []string{"Bearer token-1"}, client.auth)
}

func TestSynthesizeReusesToken(t *testing.T) {
	client := &fakeSynthesizer{chunks: [][]byte{[]byte("RIFF")}}
	issuer := &fakeIssuer{ttl: time.Hour}
	kit := newWithClient(testConfig(), client, issuer)

	for range 3 {
		_, err := kit.Synthesize(context.Background(), "hello", "en-IN")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, issuer.issued)
	assert.Equal(t, []string{"Bearer token-1", "Bearer token-1", "Bearer token-1"}, client.auth)
}

func TestSynthesizeRenewsExpiringToken(t *testing.T) {
	client := &fakeSynthesizer{chunks: [][]byte{[]byte("RIFF")}}
	issuer := &fakeIssuer{ttl: time.Minute}
	kit := newWithClient(testConfig(), client, issuer)

	for range 2 {
		_, err := kit.Synthesize(context.Background(), "hello", "en-IN")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, issuer.issued)
	assert.Equal(t, []string{"Bearer token-1", "Bearer token-2"}, client.auth)
}

func TestSynthesizeUnknownVoice(t *testing.T) {
	client := &fakeSynthesizer{}
	issuer := &fakeIssuer{ttl: time.Hour}
	kit := newWithClient(testConfig(), client, issuer)

	_, err := kit.Synthesize(context.Background(), "नमस्ते", "hi-IN")
	assert.Error(t, err)

	_, err = kit.Synthesize(context.Background(), "bonjour", "fr-FR")
	assert.Error(t, err)

	assert.Empty(t, client.requests)
	assert.Zero(t, issuer.issued)
}

func TestSynthesizeTokenError(t *testing.T) {
	failure := errors.New("iam unavailable")
	client := &fakeSynthesizer{}
	kit := newWithClient(testConfig(), client, &fakeIssuer{err: failure})

	_, err := kit.Synthesize(context.Background(), "hello", "en-IN")
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, client.requests)
}

func TestSynthesizeStartError(t *testing.T) {
	failure := errors.New("unavailable")
	kit := newWithClient(testConfig(), &fakeSynthesizer{err: failure}, &fakeIssuer{ttl: time.Hour})

	_, err := kit.Synthesize(context.Background(), "hello", "en-IN")
	assert.ErrorIs(t, err, failure)
}

func TestShutdownWithoutConnection(t *testing.T) {
	kit := newWithClient(testConfig(), &fakeSynthesizer{}, &fakeIssuer{})

	assert.NoError(t, kit.Shutdown())
}
