package speechkit

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"healcure/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
	iampb "github.com/yandex-cloud/go-genproto/yandex/cloud/iam/v1"
	ycsdk "github.com/yandex-cloud/go-sdk"
	"github.com/yandex-cloud/go-sdk/iamkey"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

const (
	endpoint = "tts.api.cloud.yandex.net:443"

	// tokens are renewed this long before they expire
	tokenRefreshMargin = 5 * time.Minute
)

type synthesizer interface {
	UtteranceSynthesis(ctx context.Context, in *tts.UtteranceSynthesisRequest, opts ...grpc.CallOption) (tts.Synthesizer_UtteranceSynthesisClient, error)
}

type tokenIssuer interface {
	CreateIAMToken(ctx context.Context) (*iampb.CreateIamTokenResponse, error)
}

type YandexSpeechKit struct {
	cfg    *config.Config
	sdk    *ycsdk.SDK
	conn   *grpc.ClientConn
	client synthesizer
	tokens tokenIssuer

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(di *do.Injector) (*YandexSpeechKit, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	keyBytes, err := os.ReadFile(cfg.Speech.SpeechKit.KeyFile)
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "could not read service account key")
	}

	var key iamkey.Key
	if err = json.Unmarshal(keyBytes, &key); err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "could not parse service account key")
	}

	creds, err := ycsdk.ServiceAccountKey(&key)
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "could not create service account key")
	}

	sdk, err := ycsdk.Build(ctx, ycsdk.Config{
		Credentials: creds,
	})
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "failed to create Yandex SDK")
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})),
	)
	if err != nil {
		_ = sdk.Shutdown(context.Background())
		return nil, oops.In("speechkit").With("endpoint", endpoint).Wrapf(err, "failed to create tts connection")
	}

	result := newWithClient(cfg, tts.NewSynthesizerClient(conn), sdk)
	result.sdk = sdk
	result.conn = conn

	return result, nil
}

func newWithClient(cfg *config.Config, client synthesizer, tokens tokenIssuer) *YandexSpeechKit {
	return &YandexSpeechKit{
		cfg:    cfg,
		client: client,
		tokens: tokens,
	}
}

// Voice returns the voice configured for a speech variant such as hi-IN.
func (y *YandexSpeechKit) Voice(variant string) (string, bool) {
	voice, ok := y.cfg.Speech.SpeechKit.Voices[variant]
	return voice, ok && voice != ""
}

// Synthesize returns a WAV clip of text read by the voice of variant.
func (y *YandexSpeechKit) Synthesize(ctx context.Context, text, variant string) ([]byte, error) {
	voice, ok := y.Voice(variant)
	if !ok {
		return nil, oops.In("speechkit").With("variant", variant).New("no voice configured")
	}

	token, err := y.iamToken(ctx)
	if err != nil {
		return nil, err
	}

	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

	stream, err := y.client.UtteranceSynthesis(ctx, newSynthesisRequest(text, voice))
	if err != nil {
		return nil, oops.In("speechkit").With("voice", voice).Wrapf(err, "failed to start synthesis")
	}

	audio, err := readAudio(stream)
	if err != nil {
		return nil, oops.In("speechkit").With("voice", voice).Wrap(err)
	}

	return audio, nil
}

func (y *YandexSpeechKit) iamToken(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.token != "" && time.Now().Add(tokenRefreshMargin).Before(y.tokenExpiry) {
		return y.token, nil
	}

	res, err := y.tokens.CreateIAMToken(ctx)
	if err != nil {
		return "", oops.In("speechkit").Wrapf(err, "failed to create IAM token")
	}

	y.token = res.GetIamToken()
	y.tokenExpiry = res.GetExpiresAt().AsTime()

	return y.token, nil
}

func (y *YandexSpeechKit) Shutdown() error {
	var errs []error

	if y.conn != nil {
		errs = append(errs, y.conn.Close())
	}
	if y.sdk != nil {
		errs = append(errs, y.sdk.Shutdown(context.Background()))
	}

	return errors.Join(errs...)
}
