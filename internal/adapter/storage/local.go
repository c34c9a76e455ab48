package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	pkgerrors "user-registry/pkg/errors"
	"user-registry/pkg/logger"
)

// maxRandomSuffix bounds the random part of generated filenames.
const maxRandomSuffix = 1_000_000_000

// LocalPhotoStore writes uploaded photos into a directory on local disk.
type LocalPhotoStore struct {
	dir  string
	now  func() time.Time
	intn func(n int) int
	log  *zap.Logger
}

// Option customises a LocalPhotoStore.
type Option func(*LocalPhotoStore)

// WithClock overrides the time source used for filenames.
func WithClock(now func() time.Time) Option {
	return func(s *LocalPhotoStore) { s.now = now }
}

// WithRandom overrides the random source used for filenames.
func WithRandom(intn func(n int) int) Option {
	return func(s *LocalPhotoStore) { s.intn = intn }
}

// NewLocalPhotoStore creates a store rooted at dir.
// EnsureDir must be called before the first Save.
func NewLocalPhotoStore(dir string, log *zap.Logger, opts ...Option) *LocalPhotoStore {
	s := &LocalPhotoStore{
		dir:  dir,
		now:  time.Now,
		intn: rand.IntN,
		log:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDir creates the storage directory and any missing parents.
func (s *LocalPhotoStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return pkgerrors.NewStartupError("storage directory", err)
	}
	s.log.Info("storage directory ready", zap.String("path", s.dir))
	return nil
}

// Filename builds "<unix millis>-<random 0..999999999><ext>" for an upload
// named original.
func (s *LocalPhotoStore) Filename(original string) string {
	return fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), s.intn(maxRandomSuffix), extension(original))
}

// extension returns the suffix of the final path element starting at its
// last dot. A dot that only opens the name, as in ".jpg" or "..", does not
// start an extension.
func extension(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if ext == base || base == ".." {
		return ""
	}
	return ext
}

// Save copies the uploaded file into the storage directory unmodified and
// returns the generated filename.
func (s *LocalPhotoStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", pkgerrors.NewStorageError("failed to open upload", err)
	}
	defer func() { _ = src.Close() }()

	name := s.Filename(fh.Filename)
	dst := filepath.Join(s.dir, name)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", pkgerrors.NewStorageError("failed to create photo file", err)
	}

	written, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", pkgerrors.NewStorageError("failed to write photo file", err)
	}

	logger.WithContext(ctx, s.log).Info("photo stored",
		zap.String("filename", name),
		zap.String("original", fh.Filename),
		zap.Int64("bytes", written),
	)
	return name, nil
}
