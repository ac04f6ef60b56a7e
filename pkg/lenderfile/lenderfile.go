// Package lenderfile reads and writes the default-lenders file used to seed
// and reset the lender catalogue.
package lenderfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"msme-lender-platform/internal/common/validation"
	"msme-lender-platform/internal/models"
)

const (
	CurrentVersion     = "1.0"
	DefaultDescription = "Default lenders configuration for MSME Lender Platform"
)

// File is the on-disk layout of the default-lenders file.
type File struct {
	Version     string                `json:"version"`
	Description string                `json:"description"`
	LastUpdated string                `json:"lastUpdated"`
	BackupDate  string                `json:"backupDate,omitempty"`
	Lenders     []models.LenderConfig `json:"lenders"`
}

// fileLender accepts the legacy "_id" key written by older exports.
type fileLender struct {
	models.LenderConfig
	LegacyID string `json:"_id,omitempty"`
}

// NewFile wraps lenders in a file stamped with now.
func NewFile(lenders []models.LenderConfig, now time.Time) *File {
	ts := now.UTC().Format(time.RFC3339)
	return &File{
		Version:     CurrentVersion,
		Description: DefaultDescription,
		LastUpdated: ts,
		Lenders:     lenders,
	}
}

// Load reads, schema-checks and decodes a default-lenders file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes file contents. Every lender must carry an id and a full set
// of positive multipliers.
func Parse(data []byte) (*File, error) {
	res, err := validation.ValidateJSON(validation.SchemaDefaultLenders, data)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, fmt.Errorf("invalid default lenders file: %s", res.Summary())
	}

	var raw struct {
		Version     string       `json:"version"`
		Description string       `json:"description"`
		LastUpdated string       `json:"lastUpdated"`
		BackupDate  string       `json:"backupDate"`
		Lenders     []fileLender `json:"lenders"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode default lenders file: %w", err)
	}

	f := &File{
		Version:     raw.Version,
		Description: raw.Description,
		LastUpdated: raw.LastUpdated,
		BackupDate:  raw.BackupDate,
		Lenders:     make([]models.LenderConfig, 0, len(raw.Lenders)),
	}
	for _, fl := range raw.Lenders {
		l := fl.LenderConfig
		if l.ID == "" {
			l.ID = fl.LegacyID
		}
		if err := l.Validate(); err != nil {
			return nil, err
		}
		f.Lenders = append(f.Lenders, l)
	}
	return f, nil
}

// Validate applies the stricter checks used before restoring a file:
// version and description present, every lender flagged as default.
func Validate(f *File) error {
	if f.Version == "" {
		return fmt.Errorf("missing required field: version")
	}
	if f.Description == "" {
		return fmt.Errorf("missing required field: description")
	}
	seen := make(map[string]bool, len(f.Lenders))
	for i, l := range f.Lenders {
		if l.ID == "" || l.Name == "" {
			return fmt.Errorf("lender %d: id and name are required", i+1)
		}
		if !l.IsDefault {
			return fmt.Errorf("lender %d: isDefault must be true for default lenders", i+1)
		}
		if seen[l.ID] {
			return fmt.Errorf("lender %d: duplicate id %s", i+1, l.ID)
		}
		seen[l.ID] = true
		if err := l.Validate(); err != nil {
			return fmt.Errorf("lender %d: %w", i+1, err)
		}
	}
	return nil
}

// Save writes f as indented JSON, creating parent directories.
func Save(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// BackupName is the dated file name used for backups.
func BackupName(now time.Time) string {
	return fmt.Sprintf("default-lenders-backup-%s.json", now.UTC().Format("2006-01-02"))
}
