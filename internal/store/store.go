// Package store defines persistence for lenders and applications.
// Backends live in the memory, postgres and mongo subpackages; cache wraps a
// LenderStore with Redis.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"msme-lender-platform/internal/models"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("store: record not found")

// ErrInvalidDefaults is returned when a replacement set of default lenders
// cannot be stored as given.
var ErrInvalidDefaults = errors.New("store: invalid default lenders")

// LenderStore persists lender configurations.
type LenderStore interface {
	// List returns every lender, defaults first, then by name.
	List(ctx context.Context) ([]models.LenderConfig, error)
	Get(ctx context.Context, id string) (*models.LenderConfig, error)
	// Save inserts or replaces the lender with the same id.
	Save(ctx context.Context, lender *models.LenderConfig) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	// ReplaceDefaults swaps every default lender for defaults as one unit:
	// on error the previous defaults are still in place. It returns how
	// many defaults were stored before the call.
	ReplaceDefaults(ctx context.Context, defaults []models.LenderConfig) (int64, error)
	InsertMany(ctx context.Context, lenders []models.LenderConfig) error
}

// ApplicationStore persists financing applications.
type ApplicationStore interface {
	// List returns applications newest first.
	List(ctx context.Context) ([]models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	Insert(ctx context.Context, app *models.Application) error
	// Update replaces an existing application. Missing ids yield ErrNotFound.
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id string) error
}

// SortLenders orders lenders with defaults first, then by name, then by id.
func SortLenders(lenders []models.LenderConfig) {
	sort.SliceStable(lenders, func(i, j int) bool {
		if lenders[i].IsDefault != lenders[j].IsDefault {
			return lenders[i].IsDefault
		}
		if lenders[i].Name != lenders[j].Name {
			return lenders[i].Name < lenders[j].Name
		}
		return lenders[i].ID < lenders[j].ID
	})
}

// CheckDefaults reports whether defaults can replace the default lenders in
// existing: every id set and unique, every lender flagged default and no id
// shared with a user-added lender. It returns the number of defaults in
// existing.
func CheckDefaults(existing, defaults []models.LenderConfig) (int64, error) {
	var previous int64
	userIDs := make(map[string]bool, len(existing))
	for _, l := range existing {
		if l.IsDefault {
			previous++
		} else {
			userIDs[l.ID] = true
		}
	}

	seen := make(map[string]bool, len(defaults))
	for _, l := range defaults {
		switch {
		case l.ID == "":
			return 0, fmt.Errorf("%w: lender %q has no id", ErrInvalidDefaults, l.Name)
		case !l.IsDefault:
			return 0, fmt.Errorf("%w: lender %s is not flagged default", ErrInvalidDefaults, l.ID)
		case seen[l.ID]:
			return 0, fmt.Errorf("%w: duplicate id %s", ErrInvalidDefaults, l.ID)
		case userIDs[l.ID]:
			return 0, fmt.Errorf("%w: id %s belongs to a user-added lender", ErrInvalidDefaults, l.ID)
		}
		seen[l.ID] = true
	}
	return previous, nil
}

// SortApplications orders applications newest first.
func SortApplications(apps []models.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}
