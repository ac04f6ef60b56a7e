package archives

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store/memory"
	"msme-lender-platform/internal/uploads"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *memory.ApplicationStore {
	t.Helper()
	st := memory.NewApplicationStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	apps := []models.Application{
		{ID: "a", CompanyName: "A", Industry: "Retail", Region: "Doha", InvoiceAmount: 1000, CreatedAt: base},
		{ID: "b", CompanyName: "B", Industry: "Logistics", Region: "Doha", InvoiceAmount: 2500.5, CreatedAt: base.Add(time.Hour)},
		{ID: "c", CompanyName: "C", Industry: "Retail", Region: "Lusail", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range apps {
		require.NoError(t, st.Insert(context.Background(), &apps[i]))
	}
	return st
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = body
	}
	return files
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	backend, err := uploads.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	svc := NewService(seed(t), backend, logger.NewTestLogger(t))
	svc.now = func() time.Time { return time.UnixMilli(1735689600000) }

	archive, err := svc.Create(ctx, []string{"a", "b", "c", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, "applications-archive-1735689600000.zip", archive.Filename)

	files := readZip(t, archive.Data)
	require.Contains(t, files, "applications.json")
	require.Contains(t, files, "summary.json")

	var apps []models.Application
	require.NoError(t, json.Unmarshal(files["applications.json"], &apps))
	assert.Len(t, apps, 3)
	assert.Contains(t, string(files["applications.json"]), "\n  {")

	var summary Summary
	require.NoError(t, json.Unmarshal(files["summary.json"], &summary))
	assert.Equal(t, 3, summary.TotalApplications)
	assert.Equal(t, 3500.5, summary.TotalAmount)
	assert.Equal(t, []string{"Retail", "Logistics"}, summary.Industries)
	assert.Equal(t, []string{"Lusail", "Doha"}, summary.Regions)

	saved, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, archive.Filename, saved[0].Name)

	rc, _, err := svc.Open(ctx, archive.Filename)
	require.NoError(t, err)
	defer rc.Close()
	copyData, _ := io.ReadAll(rc)
	assert.Equal(t, archive.Data, copyData)
}

func TestCreate_Errors(t *testing.T) {
	svc := NewService(seed(t), nil, logger.NewTestLogger(t))

	_, err := svc.Create(context.Background(), nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, err = svc.Create(context.Background(), []string{"nope"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeArchiveNotFound))

	_, _, err = svc.Open(context.Background(), "applications-archive-1.zip")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
}

func TestList_FiltersNonArchives(t *testing.T) {
	ctx := context.Background()
	backend, err := uploads.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	_, err = backend.Save(ctx, "file-1-2.pdf", bytes.NewReader([]byte("pdf")), "application/pdf")
	require.NoError(t, err)
	_, err = backend.Save(ctx, "applications-archive-5.zip", bytes.NewReader([]byte("zip")), "application/zip")
	require.NoError(t, err)

	objs, err := NewService(memory.NewApplicationStore(), backend, logger.NewTestLogger(t)).List(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "applications-archive-5.zip", objs[0].Name)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Time{})
	assert.Equal(t, 0, s.TotalApplications)
	assert.Equal(t, []string{}, s.Industries)
}
