// pkg/lenderfile/lenderfile_test.go
package lenderfile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ShippedDefaultsMatchBuiltin(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "configs", "default-lenders.json"))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, f.Version)
	assert.Equal(t, Builtin(), f.Lenders)
	assert.NoError(t, Validate(f))
}

func TestBuiltin_AreValidDefaults(t *testing.T) {
	lenders := Builtin()
	require.Len(t, lenders, 3)
	for _, l := range lenders {
		assert.NoError(t, l.Validate(), l.Name)
		assert.True(t, l.IsDefault)
		assert.True(t, l.IsActive)
	}
	assert.Equal(t, Lender1ID, lenders[0].ID)
}

func TestParse_LegacyIDKey(t *testing.T) {
	data := []byte(`{
		"version": "1.0",
		"description": "legacy export",
		"lenders": [{
			"_id": "legacy-1", "name": "Legacy", "isDefault": true,
			"creditScore": {"high": 720, "medium": 680, "multipliers": {"high": 1.3, "medium": 1.1, "low": 0.9}},
			"documents": {"all4": 1.2, "any3": 1.1, "any2": 1.0, "onlyCR": 0.9},
			"bankStatement": {"available": 1.1, "notAvailable": 1.0},
			"auditedReport": {"available": 1.2, "notAvailable": 1.0}
		}]
	}`)

	f, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, f.Lenders, 1)
	assert.Equal(t, "legacy-1", f.Lenders[0].ID)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"no lenders", `{"version": "1.0"}`},
		{"lender without id", `{"lenders": [{"name": "x"}]}`},
		{"zero multiplier", `{"lenders": [{"id": "a", "name": "A",
			"creditScore": {"high": 720, "medium": 680, "multipliers": {"high": 1.3, "medium": 1.1, "low": 0}},
			"documents": {"all4": 1.2, "any3": 1.1, "any2": 1.0, "onlyCR": 0.9},
			"bankStatement": {"available": 1.1, "notAvailable": 1.0},
			"auditedReport": {"available": 1.2, "notAvailable": 1.0}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	good := func() *File { return NewFile(Builtin(), time.Now()) }

	assert.NoError(t, Validate(good()))

	f := good()
	f.Description = ""
	assert.ErrorContains(t, Validate(f), "description")

	f = good()
	f.Lenders[1].IsDefault = false
	assert.ErrorContains(t, Validate(f), "lender 2: isDefault must be true")

	f = good()
	f.Lenders[2].ID = f.Lenders[0].ID
	assert.ErrorContains(t, Validate(f), "duplicate id")

	f = good()
	f.Lenders[0].Documents.Any2 = -1
	assert.ErrorContains(t, Validate(f), "documents.any2")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "defaults.json")
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, Save(path, NewFile(Builtin(), now)))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-30T12:00:00Z", f.LastUpdated)
	assert.Equal(t, Builtin(), f.Lenders)
}

func TestBackupName(t *testing.T) {
	assert.Equal(t, "default-lenders-backup-2025-06-30.json",
		BackupName(time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)))
}
