package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/storage"
	"github.com/dukerupert/bakehouse/internal/telemetry"
	"github.com/google/uuid"
)

const (
	// MaxImageBytes is the largest accepted product image.
	MaxImageBytes = 5 << 20

	// ImageField is the form field images are uploaded under.
	ImageField = "image"

	imagePrefix         = "products"
	defaultCacheControl = "public, max-age=3600"
	putAttempts         = 3
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ImageUpload is one file posted by the admin.
type ImageUpload struct {
	Filename    string
	ContentType string // as declared by the client; may be empty
	Size        int64  // as declared by the client; 0 if unknown
	Content     io.Reader

	// Key identifies the form field the upload came from. A second upload
	// with the same key is refused while the first runs. Empty disables the
	// guard.
	Key string
}

// StoredImage is the result of a successful upload.
type StoredImage struct {
	URL         string
	Path        string
	ContentType string
	Size        int64
}

// ImageService validates product images, stores them and attaches them to
// products. Objects are written before any product reference so a reference
// never points at an upload that failed.
type ImageService struct {
	storage      storage.Storage
	products     domain.ProductRepository
	cacheControl string
	uploads      *InFlight
	logger       *slog.Logger
	metrics      *telemetry.BusinessMetrics

	now    func() time.Time
	random io.Reader
}

func NewImageService(st storage.Storage, products domain.ProductRepository, cacheControl string, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *ImageService {
	if cacheControl == "" {
		cacheControl = defaultCacheControl
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageService{
		storage:      st,
		products:     products,
		cacheControl: cacheControl,
		uploads:      NewInFlight(),
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
		random:       rand.Reader,
	}
}

// Validate reads the upload into memory and checks its type and size. Nothing
// is written anywhere. The declared content type is trusted unless it is
// missing or generic, in which case the bytes are sniffed.
func (s *ImageService) Validate(u ImageUpload) ([]byte, string, error) {
	const op = "image.validate"

	if u.Content == nil {
		return nil, "", domain.NewValidationError(op, ImageField, msgImageRequired)
	}
	if u.Size > MaxImageBytes {
		return nil, "", domain.NewValidationError(op, ImageField, msgImageTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(u.Content, MaxImageBytes+1))
	if err != nil {
		return nil, "", domain.Invalid(op, "Could not read the uploaded image")
	}
	if len(data) == 0 {
		return nil, "", domain.NewValidationError(op, ImageField, msgImageRequired)
	}
	if len(data) > MaxImageBytes {
		return nil, "", domain.NewValidationError(op, ImageField, msgImageTooLarge)
	}

	contentType := normalizeContentType(u.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalizeContentType(http.DetectContentType(data))
	}
	if !allowedImageTypes[contentType] {
		return nil, "", domain.NewValidationError(op, ImageField, msgImageType)
	}

	return data, contentType, nil
}

// Upload validates and stores an image and returns its public URL. It does
// not touch any product.
func (s *ImageService) Upload(ctx context.Context, u ImageUpload) (*StoredImage, error) {
	const op = "image.upload"

	if u.Key != "" {
		release, ok := s.uploads.Acquire(u.Key)
		if !ok {
			return nil, ErrUploadBusy
		}
		defer release()
	}

	data, contentType, err := s.Validate(u)
	if err != nil {
		s.metrics.ImageUpload(telemetry.ResultRejected, 0)
		return nil, err
	}

	var lastErr error
	for range putAttempts {
		key, err := s.GeneratePath(u.Filename)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to generate image path")
		}

		url, err := s.storage.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
			ContentType:  contentType,
			CacheControl: s.cacheControl,
		})
		if err == nil {
			s.metrics.ImageUpload(telemetry.ResultOK, int64(len(data)))
			return &StoredImage{URL: url, Path: key, ContentType: contentType, Size: int64(len(data))}, nil
		}

		lastErr = err
		// Name collisions only need a fresh path.
		if !storage.IsConflict(err) {
			break
		}
	}

	s.metrics.ImageUpload(telemetry.ResultFailed, 0)
	s.logger.ErrorContext(ctx, "image upload failed", "error", lastErr, "filename", u.Filename)
	return nil, domain.Unavailable(lastErr, op, "Image upload failed. Please try again.")
}

// AttachToProduct uploads an image and points the product at it. If the
// upload fails the product keeps its previous image. If the product write
// fails the new object is removed again.
func (s *ImageService) AttachToProduct(ctx context.Context, id uuid.UUID, u ImageUpload) (*domain.Product, error) {
	if _, err := s.products.Get(ctx, id); err != nil {
		return nil, err
	}

	stored, err := s.Upload(ctx, u)
	if err != nil {
		return nil, err
	}

	p, err := s.products.SetImage(ctx, id, &stored.URL)
	if err != nil {
		s.metrics.ProductMutation("set_image", telemetry.ResultFailed)
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), stored.Path); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned image", "path", stored.Path, "error", delErr)
		}
		return nil, err
	}

	s.metrics.ProductMutation("set_image", telemetry.ResultOK)
	return p, nil
}

// RemoveFromProduct clears the product's image reference. The stored object
// is left in place.
func (s *ImageService) RemoveFromProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.products.SetImage(ctx, id, nil)
	if err != nil {
		s.metrics.ProductMutation("set_image", telemetry.ResultFailed)
		return nil, err
	}
	s.metrics.ProductMutation("set_image", telemetry.ResultOK)
	return p, nil
}

// GeneratePath returns products/<unix-millis>-<6 hex>-<sanitized name>.
func (s *ImageService) GeneratePath(filename string) (string, error) {
	b := make([]byte, 3)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	name := fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), hex.EncodeToString(b), SanitizeFilename(filename))
	return path.Join(imagePrefix, name), nil
}

// SanitizeFilename keeps the base name and replaces every character outside
// [A-Za-z0-9.-] with an underscore.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base(filename)
	if filename == "." || filename == "/" || filename == "" {
		return "image"
	}

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if strings.Trim(out, ".") == "" {
		return "image"
	}
	return out
}

func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
