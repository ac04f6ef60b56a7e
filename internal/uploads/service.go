// Package uploads accepts supporting documents for applications and serves
// them back by name.
package uploads

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
)

const (
	DefaultMaxFileSize  = 10 * 1024 * 1024
	DefaultMaxFileCount = 5
)

var allowedTypes = regexp.MustCompile(`jpeg|jpg|png|pdf|doc|docx|xls|xlsx`)

// File is the response for a stored upload.
type File struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

type Service struct {
	backend  Backend
	maxSize  int64
	maxFiles int
	logger   logger.Logger
	now      func() time.Time
	suffix   func() int64
}

func NewService(backend Backend, maxSize int64, maxFiles int, log logger.Logger) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFileCount
	}
	return &Service{
		backend:  backend,
		maxSize:  maxSize,
		maxFiles: maxFiles,
		logger:   log.WithFields(map[string]interface{}{"component": "uploads"}),
		now:      time.Now,
		suffix:   func() int64 { return rand.Int63n(1e9) },
	}
}

func (s *Service) MaxFileSize() int64 { return s.maxSize }
func (s *Service) MaxFiles() int      { return s.maxFiles }

// Allowed reports whether both the extension and the MIME type name an
// accepted document type.
func Allowed(filename, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return allowedTypes.MatchString(ext) && allowedTypes.MatchString(mimeType)
}

// StoredName builds "<field>-<unixms>-<rand><ext>".
func StoredName(field, original string, now time.Time, suffix int64) string {
	return fmt.Sprintf("%s-%d-%d%s", field, now.UnixMilli(), suffix, filepath.Ext(original))
}

// ValidName rejects names that could escape the storage root.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

// Store checks and saves a single multipart file under field.
func (s *Service) Store(ctx context.Context, field string, fh *multipart.FileHeader) (*File, error) {
	if fh.Size > s.maxSize {
		return nil, errors.NewFileTooLargeError(s.maxSize)
	}
	if !Allowed(fh.Filename, fh.Header.Get("Content-Type")) {
		return nil, errors.NewInvalidFileTypeError(fh.Filename)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, errors.NewStorageFailedError(err)
	}
	defer src.Close()

	name := StoredName(field, fh.Filename, s.now(), s.suffix())
	size, err := s.backend.Save(ctx, name, io.LimitReader(src, s.maxSize+1), fh.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.NewStorageFailedError(err)
	}
	if size > s.maxSize {
		s.remove(ctx, name)
		return nil, errors.NewFileTooLargeError(s.maxSize)
	}

	s.logger.Info("file uploaded", map[string]interface{}{
		"filename":     name,
		"originalName": fh.Filename,
		"size":         size,
	})
	return &File{Filename: name, OriginalName: fh.Filename, Size: size, Path: "/uploads/" + name}, nil
}

// remove drops a stored object that must not be kept.
func (s *Service) remove(ctx context.Context, name string) {
	if err := s.backend.Delete(ctx, name); err != nil {
		s.logger.Warn("failed to remove rejected upload", map[string]interface{}{
			"filename": name,
			"error":    err.Error(),
		})
	}
}

// StoreAll saves up to MaxFiles files. Every file is checked before any is
// written, and a failure part way removes the files already written.
func (s *Service) StoreAll(ctx context.Context, field string, files []*multipart.FileHeader) ([]File, error) {
	if len(files) == 0 {
		return nil, errors.NewInvalidRequestError("No files uploaded")
	}
	if len(files) > s.maxFiles {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("at most %d files may be uploaded at once", s.maxFiles))
	}
	for _, fh := range files {
		if fh.Size > s.maxSize {
			return nil, errors.NewFileTooLargeError(s.maxSize)
		}
		if !Allowed(fh.Filename, fh.Header.Get("Content-Type")) {
			return nil, errors.NewInvalidFileTypeError(fh.Filename)
		}
	}

	out := make([]File, 0, len(files))
	for _, fh := range files {
		f, err := s.Store(ctx, field, fh)
		if err != nil {
			for _, done := range out {
				s.remove(ctx, done.Filename)
			}
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

// Open returns a stored file by name.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, *ObjectInfo, error) {
	return Open(ctx, s.backend, name)
}

// Backend exposes the underlying store.
func (s *Service) Backend() Backend { return s.backend }

// Open is a name-checked read from any backend.
func Open(ctx context.Context, b Backend, name string) (io.ReadCloser, *ObjectInfo, error) {
	if !ValidName(name) {
		return nil, nil, errors.NewFileNotFoundError(name)
	}
	rc, info, err := b.Open(ctx, name)
	if err != nil {
		if stderrors.Is(err, ErrNotExist) {
			return nil, nil, errors.NewFileNotFoundError(name)
		}
		return nil, nil, errors.NewStorageFailedError(err)
	}
	return rc, info, nil
}
