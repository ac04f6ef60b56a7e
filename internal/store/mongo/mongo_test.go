// internal/store/mongo/mongo_test.go
package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func toDoc(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func TestLenderStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ns := "test.lenders"

	mt.Run("list decodes in cursor order", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			toDoc(t, models.LenderConfig{ID: "1", Name: "Lender 1", IsDefault: true, CreatedAt: created}),
			toDoc(t, models.LenderConfig{ID: "u", Name: "Acme", CreatedAt: created}),
		))

		lenders, err := s.List(context.Background())
		require.NoError(t, err)
		require.Len(t, lenders, 2)
		assert.Equal(t, "1", lenders[0].ID)
		assert.True(t, lenders[0].IsDefault)
		assert.Equal(t, created, lenders[1].CreatedAt)
	})

	mt.Run("get found and missing", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, models.LenderConfig{ID: "1", Name: "Lender 1"})),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		l, err := s.Get(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "Lender 1", l.Name)

		_, err = s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	mt.Run("save upserts", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(t, s.Save(context.Background(), &models.LenderConfig{ID: "u", Name: "Acme"}))
	})

	mt.Run("delete reports missing", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		assert.NoError(t, s.Delete(context.Background(), "u"))
		assert.ErrorIs(t, s.Delete(context.Background(), "u"), store.ErrNotFound)
	})

	mt.Run("count", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		n, err := s.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	mt.Run("replace defaults", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				toDoc(t, models.LenderConfig{ID: "1", Name: "Lender 1", IsDefault: true}),
				toDoc(t, models.LenderConfig{ID: "2", Name: "Lender 2", IsDefault: true}),
				toDoc(t, models.LenderConfig{ID: "u", Name: "Acme"}),
			),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		removed, err := s.ReplaceDefaults(context.Background(), []models.LenderConfig{{ID: "1", Name: "Lender 1", IsDefault: true}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)
	})

	mt.Run("insert many", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(t, s.InsertMany(context.Background(), []models.LenderConfig{{ID: "1"}, {ID: "2"}}))
		assert.NoError(t, s.InsertMany(context.Background(), nil))
	})

	mt.Run("insert many duplicate key", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := s.InsertMany(context.Background(), []models.LenderConfig{{ID: "1"}})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseInsertFailed))
	})

	mt.Run("command error on list", func(mt *mtest.T) {
		s := NewLenderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized", Name: "Unauthorized"}))

		_, err := s.List(context.Background())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryExecutionFailed))
	})
}

// lenderColl serves Find from docs and fails ReplaceOne after okWrites calls.
type lenderColl struct {
	Collection
	docs       []interface{}
	okWrites   int
	replaced   []string
	deleteSeen bool
}

func (c *lenderColl) Find(context.Context, interface{}, ...*options.FindOptions) (*mongo.Cursor, error) {
	return mongo.NewCursorFromDocuments(c.docs, nil, nil)
}

func (c *lenderColl) ReplaceOne(_ context.Context, filter interface{}, _ interface{}, _ ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if len(c.replaced) >= c.okWrites {
		return nil, errors.New("write conflict")
	}
	c.replaced = append(c.replaced, filter.(bson.M)["_id"].(string))
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (c *lenderColl) DeleteMany(context.Context, interface{}, ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.deleteSeen = true
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func TestLenderStore_ReplaceDefaultsKeepsOldOnFailure(t *testing.T) {
	coll := &lenderColl{
		docs: []interface{}{
			models.LenderConfig{ID: "1", Name: "Lender 1", IsDefault: true},
			models.LenderConfig{ID: "2", Name: "Lender 2", IsDefault: true},
		},
		okWrites: 1,
	}
	s := NewLenderStoreWithCollection(coll)

	_, err := s.ReplaceDefaults(context.Background(), []models.LenderConfig{
		{ID: "1", Name: "Lender 1", IsDefault: true},
		{ID: "3", Name: "Lender 3", IsDefault: true},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseInsertFailed))
	assert.Equal(t, []string{"1"}, coll.replaced)
	assert.False(t, coll.deleteSeen, "old defaults must not be removed after a failed write")
}

func TestLenderStore_ReplaceDefaultsRejectsUserID(t *testing.T) {
	coll := &lenderColl{
		docs:     []interface{}{models.LenderConfig{ID: "u", Name: "Acme"}},
		okWrites: 10,
	}
	s := NewLenderStoreWithCollection(coll)

	_, err := s.ReplaceDefaults(context.Background(), []models.LenderConfig{{ID: "u", Name: "Clash", IsDefault: true}})
	assert.ErrorIs(t, err, store.ErrInvalidDefaults)
	assert.Empty(t, coll.replaced)
	assert.False(t, coll.deleteSeen)
}

func TestApplicationStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "test.applications"

	mt.Run("crud", func(mt *mtest.T) {
		s := NewApplicationStore(mt.DB)
		app := &models.Application{
			ID: "a1", CompanyName: "Acme", Email: "ops@acme.qa", Status: models.StatusPending,
			UploadedFiles: map[string]interface{}{},
			CreatedAt:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		}

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, app)),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, app)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, app))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Acme", list[0].CompanyName)

		got, err := s.Get(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)

		got.Status = models.StatusApproved
		require.NoError(t, s.Update(ctx, got))
		assert.ErrorIs(t, s.Update(ctx, &models.Application{ID: "zz"}), store.ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "a1"))
	})
}
