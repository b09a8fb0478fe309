package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

type PaginateWithTotal[E any] struct {
	Total int64
	Data  []*E
}

// baseRepo holds the collection helpers shared by the document
// repositories. Missing documents map to models.ErrNotFound and unique
// index violations to models.ErrDuplicate.
type baseRepo[E any] struct {
	coll *mongo.Collection
}

func newBaseRepo[E any](db *DB, name string) baseRepo[E] {
	return baseRepo[E]{coll: db.Collection(name)}
}

func (r *baseRepo[E]) insert(ctx context.Context, doc *E) (primitive.ObjectID, error) {
	result, err := r.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, fmt.Errorf("insert one: %w", models.ErrDuplicate)
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert one: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("invalid inserted id: %T %+v", result.InsertedID, result.InsertedID)
	}
	return oid, nil
}

func (r *baseRepo[E]) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*E, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	entities := []*E{}
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("cursor all: %w", err)
	}
	return entities, nil
}

func (r *baseRepo[E]) findOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (*E, error) {
	var entity E
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&entity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// findOneAndUpdate applies update and returns the document after it.
func (r *baseRepo[E]) findOneAndUpdate(ctx context.Context, filter any, update any, opts ...*options.FindOneAndUpdateOptions) (*E, error) {
	opts = append(opts, options.FindOneAndUpdate().SetReturnDocument(options.After))

	var entity E
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts...).Decode(&entity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, models.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepo[E]) findOneAndDelete(ctx context.Context, filter any) (*E, error) {
	var entity E
	err := r.coll.FindOneAndDelete(ctx, filter).Decode(&entity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepo[E]) deleteOne(ctx context.Context, filter any) error {
	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *baseRepo[E]) deleteMany(ctx context.Context, filter any) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *baseRepo[E]) count(ctx context.Context, filter any) (int64, error) {
	return r.coll.CountDocuments(ctx, filter)
}

func (r *baseRepo[E]) paginateWithTotal(ctx context.Context, filter any, limit, skip int64, opts ...*options.FindOptions) (*PaginateWithTotal[E], error) {
	group, ctx := errgroup.WithContext(ctx)
	var entities []*E
	var total int64

	group.Go(func() error {
		var err error
		entities, err = r.find(ctx, filter, append(opts, options.Find().SetSkip(skip).SetLimit(limit))...)
		return err
	})

	group.Go(func() error {
		var err error
		total, err = r.coll.CountDocuments(ctx, filter)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &PaginateWithTotal[E]{Total: total, Data: entities}, nil
}

// aggregate runs pipeline and decodes every result into T.
func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline bson.A) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("cursor all: %w", err)
	}
	return out, nil
}
