package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/observability"
)

var (
	// ErrImageRequired indicates the multipart request carried no file.
	ErrImageRequired = errors.New("image file is required")
	// ErrImageTooLarge indicates the payload exceeded the configured limit.
	ErrImageTooLarge = errors.New("image exceeds maximum allowed size")
	// ErrImageTypeNotAllowed indicates the content is not an image.
	ErrImageTypeNotAllowed = errors.New("only image files are accepted")
)

// ImageService turns an uploaded multipart file into a draft image.
type ImageService interface {
	Read(ctx context.Context, file *multipart.FileHeader) (*models.ImageFile, error)
	MaxBytes() int64
}

type imageService struct {
	maxSize int64
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewImageService constructs the image intake. maxBytes <= 0 falls back to 10MB.
func NewImageService(maxBytes int64, logger zerolog.Logger) ImageService {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &imageService{
		maxSize: maxBytes,
		logger:  logger.With().Str("component", "image_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/spot-form-api/internal/service/image"),
	}
}

func (s *imageService) MaxBytes() int64 {
	return s.maxSize
}

func (s *imageService) Read(ctx context.Context, file *multipart.FileHeader) (*models.ImageFile, error) {
	_, span := s.tracer.Start(ctx, "image.read")
	defer span.End()

	span.SetAttributes(attribute.Int64("image.max_bytes", s.maxSize))
	if file == nil {
		span.SetStatus(codes.Error, "missing file")
		return nil, ErrImageRequired
	}
	span.SetAttributes(
		attribute.String("image.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("image.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return nil, s.reject(span, "size", ErrImageTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		return nil, s.reject(span, "size", ErrImageTooLarge)
	}
	if buf.Len() == 0 {
		return nil, s.reject(span, "empty", ErrImageRequired)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("image.detected_mime", detected.String()))
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, s.reject(span, "type", ErrImageTypeNotAllowed)
	}

	span.SetStatus(codes.Ok, "accepted")
	return &models.ImageFile{
		Name:        sanitizeFileName(file.Filename, detected.Extension()),
		ContentType: detected.String(),
		Data:        buf.Bytes(),
	}, nil
}

func (s *imageService) reject(span trace.Span, reason string, err error) error {
	observability.ImageRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.logger.Debug().Str("reason", reason).Msg("image rejected")
	return err
}

// sanitizeFileName lowercases the base name and keeps only [a-z0-9_-]. The
// extension falls back to the one implied by the detected type.
func sanitizeFileName(name, detectedExt string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" || base == "." {
		base = "image"
	}
	if ext == "" {
		ext = detectedExt
	}
	return base + ext
}
