package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names every managed collection shares.
const (
	FieldID        = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldActive    = "is_active"
)

// Store is the document store boundary for a single collection. Documents
// travel as bson.M in both directions.
type Store interface {
	// Insert stores doc. doc must carry an _id.
	Insert(ctx context.Context, doc bson.M) error
	// FindByID returns the document with the given id or
	// mongo.ErrNoDocuments.
	FindByID(ctx context.Context, id primitive.ObjectID) (bson.M, error)
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	// UpdateByID applies set and returns the document after the update, or
	// mongo.ErrNoDocuments.
	UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (bson.M, error)
	Ping(ctx context.Context) error
}

// FindOptions narrows a Find call. Zero values mean "not set".
type FindOptions struct {
	Sort  bson.D
	Skip  int64
	Limit int64
}

// Populate expands the ids stored under Path with the matching documents
// of another collection.
type Populate struct {
	Path string
	From Store
}

// Schema describes the collection a Repository manages.
type Schema struct {
	// Name labels the resource in messages ("todo").
	Name string
	// Unique lists fields whose values must be unique across the whole
	// collection, soft-deleted documents included.
	Unique []string
}
