// internal/store/memory/memory_test.go
package memory

import (
	"context"
	"testing"
	"time"

	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenderStore(t *testing.T) {
	ctx := context.Background()
	s := NewLenderStore()

	require.NoError(t, s.InsertMany(ctx, []models.LenderConfig{
		{ID: "1", Name: "Lender 1", IsDefault: true},
		{ID: "2", Name: "Lender 2", IsDefault: true},
	}))
	require.NoError(t, s.Save(ctx, &models.LenderConfig{ID: "u", Name: "Acme Capital"}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "u", all[2].ID)

	got, err := s.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "Acme Capital", got.Name)

	got.Name = "mutated"
	again, _ := s.Get(ctx, "u")
	assert.Equal(t, "Acme Capital", again.Name)

	n, err := s.ReplaceDefaults(ctx, []models.LenderConfig{{ID: "3", Name: "Lender 3", IsDefault: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.ErrorIs(t, s.Delete(ctx, "1"), store.ErrNotFound)
	_, err = s.Get(ctx, "3")
	require.NoError(t, err)
	assert.NoError(t, s.Delete(ctx, "u"))
	_, err = s.Get(ctx, "u")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLenderStore_ReplaceDefaultsRejectsBadSets(t *testing.T) {
	tests := []struct {
		name     string
		defaults []models.LenderConfig
	}{
		{"duplicate id", []models.LenderConfig{
			{ID: "9", Name: "A", IsDefault: true},
			{ID: "9", Name: "B", IsDefault: true},
		}},
		{"user lender id", []models.LenderConfig{{ID: "u", Name: "Clash", IsDefault: true}}},
		{"not flagged default", []models.LenderConfig{{ID: "9", Name: "Plain"}}},
		{"missing id", []models.LenderConfig{{Name: "Anon", IsDefault: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewLenderStore()
			require.NoError(t, s.InsertMany(ctx, []models.LenderConfig{
				{ID: "1", Name: "Lender 1", IsDefault: true},
				{ID: "u", Name: "Acme"},
			}))

			_, err := s.ReplaceDefaults(ctx, tt.defaults)
			assert.ErrorIs(t, err, store.ErrInvalidDefaults)

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "1", all[0].ID)
			assert.Equal(t, "Acme", all[1].Name)
		})
	}
}

func TestLenderStore_ListIsStableForSameNames(t *testing.T) {
	ctx := context.Background()
	s := NewLenderStore()
	require.NoError(t, s.InsertMany(ctx, []models.LenderConfig{
		{ID: "c", Name: "Acme"}, {ID: "a", Name: "Acme"}, {ID: "d", Name: "Acme"}, {ID: "b", Name: "Acme"},
	}))

	for i := 0; i < 20; i++ {
		all, err := s.List(ctx)
		require.NoError(t, err)
		ids := []string{}
		for _, l := range all {
			ids = append(ids, l.ID)
		}
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	}
}

func TestApplicationStore(t *testing.T) {
	ctx := context.Background()
	s := NewApplicationStore()
	now := time.Now()

	first := &models.Application{ID: "a", CompanyName: "Old Co", CreatedAt: now.Add(-time.Hour),
		UploadedFiles: map[string]interface{}{"cr": "cr.pdf"}}
	second := &models.Application{ID: "b", CompanyName: "New Co", CreatedAt: now}
	require.NoError(t, s.Insert(ctx, first))
	require.NoError(t, s.Insert(ctx, second))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.UploadedFiles["cr"] = "changed"
	got.Status = models.StatusApproved
	got.AssignedLender = &models.AssignedLender{LenderID: "1"}

	stored, _ := s.Get(ctx, "a")
	assert.Equal(t, "cr.pdf", stored.UploadedFiles["cr"])

	require.NoError(t, s.Update(ctx, got))
	stored, _ = s.Get(ctx, "a")
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Equal(t, "1", stored.AssignedLender.LenderID)

	assert.ErrorIs(t, s.Update(ctx, &models.Application{ID: "zzz"}), store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "zzz"), store.ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "a"))
}
