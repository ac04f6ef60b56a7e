// Package mongo stores lenders and applications in MongoDB collections
// keyed by their string ids.
package mongo

import (
	"context"
	stderrors "errors"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LendersCollection      = "lenders"
	ApplicationsCollection = "applications"
)

// Collection is the subset of *mongo.Collection used by the stores.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// findAll decodes every document matched by filter.
func findAll[T any](ctx context.Context, coll Collection, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []T{}
	for cursor.Next(ctx) {
		var entity T
		if err := cursor.Decode(&entity); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, cursor.Err()
}

func findByID[T any](ctx context.Context, coll Collection, id string) (*T, error) {
	var entity T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&entity)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

type LenderStore struct {
	coll Collection
}

func NewLenderStore(db *mongo.Database) *LenderStore {
	return &LenderStore{coll: db.Collection(LendersCollection)}
}

// NewLenderStoreWithCollection builds the store over any Collection.
func NewLenderStoreWithCollection(coll Collection) *LenderStore {
	return &LenderStore{coll: coll}
}

func (s *LenderStore) List(ctx context.Context) ([]models.LenderConfig, error) {
	opts := options.Find().SetSort(bson.D{{Key: "isDefault", Value: -1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	lenders, err := findAll[models.LenderConfig](ctx, s.coll, bson.M{}, opts)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list lenders", err)
	}
	return lenders, nil
}

func (s *LenderStore) Get(ctx context.Context, id string) (*models.LenderConfig, error) {
	l, err := findByID[models.LenderConfig](ctx, s.coll, id)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewQueryExecutionFailedError("get lender", err)
	}
	return l, err
}

func (s *LenderStore) Save(ctx context.Context, lender *models.LenderConfig) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": lender.ID}, lender, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (s *LenderStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete lender", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *LenderStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("count lenders", err)
	}
	return n, nil
}

// ReplaceDefaults upserts every new default first and only then removes
// the defaults that are not in the new set. A failure part way through
// leaves the old defaults readable.
func (s *LenderStore) ReplaceDefaults(ctx context.Context, defaults []models.LenderConfig) (int64, error) {
	existing, err := findAll[models.LenderConfig](ctx, s.coll, bson.M{}, options.Find())
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("list lenders", err)
	}
	previous, err := store.CheckDefaults(existing, defaults)
	if err != nil {
		return 0, err
	}

	ids := make([]string, len(defaults))
	for i := range defaults {
		ids[i] = defaults[i].ID
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": defaults[i].ID}, defaults[i], options.Replace().SetUpsert(true))
		if err != nil {
			return 0, errors.NewDatabaseInsertFailedError(err)
		}
	}

	filter := bson.M{"isDefault": true, "_id": bson.M{"$nin": ids}}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return 0, errors.NewQueryExecutionFailedError("delete default lenders", err)
	}
	return previous, nil
}

func (s *LenderStore) InsertMany(ctx context.Context, lenders []models.LenderConfig) error {
	if len(lenders) == 0 {
		return nil
	}
	docs := make([]interface{}, len(lenders))
	for i := range lenders {
		docs[i] = lenders[i]
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

type ApplicationStore struct {
	coll Collection
}

func NewApplicationStore(db *mongo.Database) *ApplicationStore {
	return &ApplicationStore{coll: db.Collection(ApplicationsCollection)}
}

func NewApplicationStoreWithCollection(coll Collection) *ApplicationStore {
	return &ApplicationStore{coll: coll}
}

func (s *ApplicationStore) List(ctx context.Context) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	apps, err := findAll[models.Application](ctx, s.coll, bson.M{}, opts)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	return apps, nil
}

func (s *ApplicationStore) Get(ctx context.Context, id string) (*models.Application, error) {
	a, err := findByID[models.Application](ctx, s.coll, id)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewQueryExecutionFailedError("get application", err)
	}
	return a, err
}

func (s *ApplicationStore) Insert(ctx context.Context, app *models.Application) error {
	if _, err := s.coll.InsertOne(ctx, app); err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (s *ApplicationStore) Update(ctx context.Context, app *models.Application) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": app.ID}, app)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update application", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ApplicationStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete application", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var (
	_ store.LenderStore      = (*LenderStore)(nil)
	_ store.ApplicationStore = (*ApplicationStore)(nil)
	_ Collection             = (*mongo.Collection)(nil)
)
