package detection

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"healcure/app/config"
	"healcure/app/i18n"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrCancelled        = errors.New("image selection cancelled")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrImageTooLarge    = errors.New("image too large")
	ErrImageNotFound    = errors.New("image not found")
	ErrUnknownSource    = errors.New("unknown image source")
)

type Source string

const (
	SourceGallery Source = "gallery"
	SourceCamera  Source = "camera"
)

func ParseSource(value string) (Source, bool) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case SourceGallery:
		return SourceGallery, true
	case SourceCamera:
		return SourceCamera, true
	default:
		return "", false
	}
}

type AnalysisStatus string

const (
	AnalysisPending     AnalysisStatus = "pending"
	AnalysisUnavailable AnalysisStatus = "unavailable"
)

// ImageHandle identifies an accepted image.
type ImageHandle struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

type Analysis struct {
	Status  AnalysisStatus `json:"status"`
	Message i18n.Key       `json:"-"`
}

// Pick is what the client's image picker produced.
type Pick struct {
	Source Source
	// Denied is set when the device refused camera or gallery access.
	Denied bool
	Data   []byte
}

// Classifier analyses an accepted image.
type Classifier interface {
	Classify(ctx context.Context, image ImageHandle, data []byte) (Analysis, error)
}

// StubClassifier stands in until a classification backend exists.
type StubClassifier struct{}

func (StubClassifier) Classify(context.Context, ImageHandle, []byte) (Analysis, error) {
	return Analysis{
		Status:  AnalysisUnavailable,
		Message: i18n.AnalysisUnavailable,
	}, nil
}

type stored struct {
	handle   ImageHandle
	data     []byte
	analysis Analysis
}

type Service struct {
	maxSize    int
	retained   int
	classifier Classifier

	mu     sync.RWMutex
	images map[string]*stored
	order  []string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewWithClassifier(cfg.Detection, StubClassifier{}), nil
}

func NewWithClassifier(cfg config.Detection, classifier Classifier) *Service {
	return &Service{
		maxSize:    cfg.MaxImageSize,
		retained:   cfg.Retained,
		classifier: classifier,
		images:     make(map[string]*stored),
	}
}

// Submit accepts a picked image and runs the classifier on it.
func (s *Service) Submit(ctx context.Context, pick Pick) (ImageHandle, Analysis, error) {
	errBuilder := oops.In("detection").With("source", pick.Source)

	if pick.Source != SourceGallery && pick.Source != SourceCamera {
		return ImageHandle{}, Analysis{}, errBuilder.Wrap(ErrUnknownSource)
	}
	if pick.Denied {
		return ImageHandle{}, Analysis{}, errBuilder.Wrap(ErrPermissionDenied)
	}
	if len(pick.Data) == 0 {
		return ImageHandle{}, Analysis{}, errBuilder.Wrap(ErrCancelled)
	}
	if len(pick.Data) > s.maxSize {
		return ImageHandle{}, Analysis{}, errBuilder.With("size", len(pick.Data)).Wrap(ErrImageTooLarge)
	}

	mime := mimetype.Detect(pick.Data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return ImageHandle{}, Analysis{}, errBuilder.With("mime", mime.String()).Wrap(ErrUnsupportedImage)
	}

	handle := ImageHandle{
		ID:          uuid.NewString(),
		Source:      pick.Source,
		ContentType: mime.String(),
		Size:        len(pick.Data),
		CreatedAt:   time.Now(),
	}

	analysis, err := s.classifier.Classify(ctx, handle, pick.Data)
	if err != nil {
		slog.Warn("Image classification failed", "image_id", handle.ID, "error", err)
		analysis = Analysis{
			Status:  AnalysisUnavailable,
			Message: i18n.AnalysisUnavailable,
		}
	}

	s.store(&stored{
		handle:   handle,
		data:     pick.Data,
		analysis: analysis,
	})

	slog.Info("Image accepted",
		"image_id", handle.ID,
		"source", handle.Source,
		"content_type", handle.ContentType,
		"size", handle.Size,
	)

	return handle, analysis, nil
}

func (s *Service) store(item *stored) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.images[item.handle.ID] = item
	s.order = append(s.order, item.handle.ID)

	for len(s.order) > s.retained {
		delete(s.images, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Service) Get(id string) (ImageHandle, Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.images[id]
	if !ok {
		return ImageHandle{}, Analysis{}, oops.In("detection").With("image_id", id).Wrap(ErrImageNotFound)
	}

	return item.handle, item.analysis, nil
}

// Data returns the raw bytes of an accepted image.
func (s *Service) Data(id string) (ImageHandle, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.images[id]
	if !ok {
		return ImageHandle{}, nil, oops.In("detection").With("image_id", id).Wrap(ErrImageNotFound)
	}

	return item.handle, item.data, nil
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.images)
}
