// Package archives bundles selected applications into a zip with a summary
// and keeps a copy for later download.
package archives

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"
	"msme-lender-platform/internal/uploads"
)

const namePrefix = "applications-archive-"

// Summary is written to summary.json inside every archive.
type Summary struct {
	TotalApplications int       `json:"totalApplications"`
	TotalAmount       float64   `json:"totalAmount"`
	Industries        []string  `json:"industries"`
	Regions           []string  `json:"regions"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// Archive is a generated zip.
type Archive struct {
	Filename string
	Data     []byte
	Summary  Summary
}

type Service struct {
	apps    store.ApplicationStore
	backend uploads.Backend
	logger  logger.Logger
	now     func() time.Time
}

func NewService(apps store.ApplicationStore, backend uploads.Backend, log logger.Logger) *Service {
	return &Service{
		apps:    apps,
		backend: backend,
		logger:  log.WithFields(map[string]interface{}{"component": "archives"}),
		now:     time.Now,
	}
}

// Create zips the applications whose ids are listed, in store order.
// Unknown ids are ignored; if none match, the call fails.
func (s *Service) Create(ctx context.Context, ids []string) (*Archive, error) {
	if ids == nil {
		return nil, errors.NewInvalidRequestError("Invalid application IDs")
	}

	all, err := s.apps.List(ctx)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]models.Application, 0, len(ids))
	for _, app := range all {
		if wanted[app.ID] {
			selected = append(selected, app)
		}
	}
	if len(selected) == 0 {
		return nil, errors.NewArchiveNotFoundError(fmt.Sprintf("requested %d ids", len(ids)))
	}

	now := s.now().UTC()
	summary := Summarize(selected, now)
	data, err := build(selected, summary)
	if err != nil {
		return nil, errors.NewArchiveCreationFailedError(err)
	}

	archive := &Archive{
		Filename: fmt.Sprintf("%s%d.zip", namePrefix, now.UnixMilli()),
		Data:     data,
		Summary:  summary,
	}
	if s.backend != nil {
		if _, err := s.backend.Save(ctx, archive.Filename, bytes.NewReader(data), "application/zip"); err != nil {
			s.logger.Warn("archive copy not saved", map[string]interface{}{
				"filename": archive.Filename,
				"error":    err.Error(),
			})
		}
	}

	s.logger.Info("archive created", map[string]interface{}{
		"filename":     archive.Filename,
		"applications": summary.TotalApplications,
		"bytes":        len(data),
	})
	return archive, nil
}

// List returns saved archives, newest first.
func (s *Service) List(ctx context.Context) ([]uploads.ObjectInfo, error) {
	if s.backend == nil {
		return []uploads.ObjectInfo{}, nil
	}
	objs, err := s.backend.List(ctx)
	if err != nil {
		return nil, errors.NewStorageFailedError(err)
	}
	out := make([]uploads.ObjectInfo, 0, len(objs))
	for _, o := range objs {
		if strings.HasPrefix(o.Name, namePrefix) && strings.HasSuffix(o.Name, ".zip") {
			out = append(out, o)
		}
	}
	return out, nil
}

// Open returns a saved archive by name.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, *uploads.ObjectInfo, error) {
	if s.backend == nil {
		return nil, nil, errors.NewFileNotFoundError(name)
	}
	return uploads.Open(ctx, s.backend, name)
}

// Summarize totals invoice amounts and collects the distinct industries and
// regions in first-seen order.
func Summarize(apps []models.Application, generatedAt time.Time) Summary {
	sum := Summary{
		TotalApplications: len(apps),
		Industries:        []string{},
		Regions:           []string{},
		GeneratedAt:       generatedAt,
	}
	seenIndustry := map[string]bool{}
	seenRegion := map[string]bool{}
	for _, app := range apps {
		sum.TotalAmount += app.InvoiceAmount
		if !seenIndustry[app.Industry] {
			seenIndustry[app.Industry] = true
			sum.Industries = append(sum.Industries, app.Industry)
		}
		if !seenRegion[app.Region] {
			seenRegion[app.Region] = true
			sum.Regions = append(sum.Regions, app.Region)
		}
	}
	return sum
}

func build(apps []models.Application, summary Summary) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := writeJSON(zw, "applications.json", apps); err != nil {
		return nil, err
	}
	if err := writeJSON(zw, "summary.json", summary); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(zw *zip.Writer, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
