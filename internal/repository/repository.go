// Package repository implements a generic CRUD and soft-delete repository
// over a single document collection.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Patch is the input of Update, Remove and Restore. PatchID returns the id
// of the record to change, or "" when it is missing. Implementations with
// pointer receivers should tolerate a nil receiver.
type Patch interface {
	PatchID() string
}

// Option configures a Repository.
type Option func(*repoOptions)

type repoOptions struct {
	now      func() time.Time
	validate *validator.Validate
}

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *repoOptions) { o.now = now }
}

// WithValidator overrides the struct validator.
func WithValidator(v *validator.Validate) Option {
	return func(o *repoOptions) { o.validate = v }
}

// Repository mediates between callers and one collection of T documents.
// T must encode its lifecycle fields as _id, created_at, updated_at and
// is_active. P carries the fields of an update.
type Repository[T any, P Patch] struct {
	store    Store
	schema   Schema
	now      func() time.Time
	validate *validator.Validate
}

// New returns a Repository over store.
func New[T any, P Patch](store Store, schema Schema, opts ...Option) *Repository[T, P] {
	o := repoOptions{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.validate == nil {
		o.validate = NewValidator()
	}
	return &Repository[T, P]{store: store, schema: schema, now: o.now, validate: o.validate}
}

// Name returns the resource name from the schema.
func (r *Repository[T, P]) Name() string { return r.schema.Name }

// Store returns the underlying store, for use as a Populate source.
func (r *Repository[T, P]) Store() Store { return r.store }

// Ping checks that the store is reachable.
func (r *Repository[T, P]) Ping(ctx context.Context) error { return r.store.Ping(ctx) }

// timestamp returns the current time at the store's millisecond precision.
func (r *Repository[T, P]) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// Create validates candidate and inserts it as a new active record.
func (r *Repository[T, P]) Create(ctx context.Context, candidate *T) (*T, error) {
	const op = "create"
	if candidate == nil {
		return nil, illegalArgument(op, fmt.Sprintf("missing %s object", r.schema.Name))
	}
	details, err := fieldErrors(r.validate, candidate)
	if err != nil {
		return nil, err
	}
	if details != nil {
		return nil, validationFailed(op, r.schema.Name, details, nil)
	}

	doc, err := toDoc(candidate)
	if err != nil {
		return nil, err
	}
	if id, ok := doc[FieldID].(primitive.ObjectID); !ok || id.IsZero() {
		doc[FieldID] = primitive.NewObjectID()
	}
	if _, ok := doc[FieldCreatedAt]; !ok {
		doc[FieldCreatedAt] = r.timestamp()
	}
	doc[FieldActive] = true

	if err := r.store.Insert(ctx, doc); err != nil {
		return nil, r.storeError(op, err)
	}
	return decode[T](doc)
}

// FindAll lists active records matching filter. With empty opts the result
// is a plain list sorted ascending by sortField (created_at when empty);
// otherwise it is one page sorted by opts.Sort (created_at descending when
// unset).
func (r *Repository[T, P]) FindAll(ctx context.Context, opts ListOptions, filter bson.M, sortField string) (*Listing[T], error) {
	q := cloneFilter(filter)
	q[FieldActive] = true

	if !opts.IsZero() {
		sortDoc, err := opts.sortDoc(bson.D{{Key: FieldCreatedAt, Value: -1}})
		if err != nil {
			return nil, err
		}
		page, err := r.paginate(ctx, q, opts, sortDoc)
		if err != nil {
			return nil, err
		}
		return &Listing[T]{Page: page}, nil
	}

	if sortField == "" {
		sortField = FieldCreatedAt
	}
	docs, err := r.store.Find(ctx, q, FindOptions{Sort: bson.D{{Key: sortField, Value: 1}}})
	if err != nil {
		return nil, r.storeError("findAll", err)
	}
	items, err := decodeAll[T](docs)
	if err != nil {
		return nil, err
	}
	return &Listing[T]{Items: items}, nil
}

// Find runs filter as-is, soft-deleted records included, and expands the
// populate paths.
func (r *Repository[T, P]) Find(ctx context.Context, filter bson.M, populate ...Populate) ([]T, error) {
	docs, err := r.store.Find(ctx, cloneFilter(filter), FindOptions{})
	if err != nil {
		return nil, r.storeError("find", err)
	}
	if err := expand(ctx, docs, populate); err != nil {
		return nil, r.storeError("find", err)
	}
	return decodeAll[T](docs)
}

// FindByID returns the record with the given hex id, active or not.
func (r *Repository[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, illegalArgument("findById", fmt.Sprintf("missing %s id", r.schema.Name))
	}
	_, doc, err := r.find(ctx, "findById", id)
	if err != nil {
		return nil, err
	}
	return decode[T](doc)
}

// Search lists active records matching filter. Non-empty options (or any
// populate path) select pagination.
func (r *Repository[T, P]) Search(ctx context.Context, filter bson.M, opts ListOptions, populate ...Populate) (*Listing[T], error) {
	q := cloneFilter(filter)
	q[FieldActive] = true
	if len(populate) > 0 {
		opts.populate = append(opts.populate, populate...)
	}

	if !opts.IsZero() {
		sortDoc, err := opts.sortDoc(nil)
		if err != nil {
			return nil, err
		}
		page, err := r.paginate(ctx, q, opts, sortDoc)
		if err != nil {
			return nil, err
		}
		return &Listing[T]{Page: page}, nil
	}

	docs, err := r.store.Find(ctx, q, FindOptions{})
	if err != nil {
		return nil, r.storeError("search", err)
	}
	items, err := decodeAll[T](docs)
	if err != nil {
		return nil, err
	}
	return &Listing[T]{Items: items}, nil
}

// Update applies the fields set on patch to an existing record.
func (r *Repository[T, P]) Update(ctx context.Context, patch P) (*T, error) {
	return r.update(ctx, "update", patch, nil)
}

// Remove soft-deletes the record: is_active becomes false.
func (r *Repository[T, P]) Remove(ctx context.Context, patch P) (*T, error) {
	active := false
	return r.update(ctx, "remove", patch, &active)
}

// Restore reactivates a soft-deleted record.
func (r *Repository[T, P]) Restore(ctx context.Context, patch P) (*T, error) {
	active := true
	return r.update(ctx, "restore", patch, &active)
}

func (r *Repository[T, P]) update(ctx context.Context, op string, patch P, active *bool) (*T, error) {
	id := patch.PatchID()
	if id == "" {
		return nil, illegalArgument(op, fmt.Sprintf("missing %s or %s id", r.schema.Name, r.schema.Name))
	}

	set, err := toDoc(patch)
	if err != nil {
		return nil, err
	}
	// the id and the creation time never change
	delete(set, FieldID)
	delete(set, FieldCreatedAt)
	set[FieldUpdatedAt] = r.timestamp()
	if active != nil {
		set[FieldActive] = *active
	}

	oid, _, err := r.find(ctx, op, id)
	if err != nil {
		return nil, err
	}

	details, err := fieldErrors(r.validate, patch)
	if err != nil {
		return nil, err
	}
	if details != nil {
		return nil, validationFailed(op, r.schema.Name, details, nil)
	}

	updated, err := r.store.UpdateByID(ctx, oid, set)
	if err != nil {
		return nil, r.storeError(op, err)
	}
	return decode[T](updated)
}

// find loads one document by hex id. A malformed id is reported as an
// unclassified error.
func (r *Repository[T, P]) find(ctx context.Context, op, id string) (primitive.ObjectID, bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, nil, fmt.Errorf("%s: cast %q to ObjectId: %w", op, id, err)
	}
	doc, err := r.store.FindByID(ctx, oid)
	if err != nil {
		return oid, nil, r.storeError(op, err)
	}
	return oid, doc, nil
}

func (r *Repository[T, P]) paginate(ctx context.Context, filter bson.M, opts ListOptions, sortDoc bson.D) (*Page[T], error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	page := opts.Page
	if page <= 0 {
		page = defaultPage
	}

	total, err := r.store.Count(ctx, filter)
	if err != nil {
		return nil, r.storeError("paginate", err)
	}
	docs, err := r.store.Find(ctx, filter, FindOptions{Sort: sortDoc, Skip: (page - 1) * limit, Limit: limit})
	if err != nil {
		return nil, r.storeError("paginate", err)
	}
	if err := expand(ctx, docs, opts.populate); err != nil {
		return nil, r.storeError("paginate", err)
	}
	items, err := decodeAll[T](docs)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, limit, page), nil
}

// storeError maps store failures onto repository kinds.
func (r *Repository[T, P]) storeError(op string, err error) error {
	var re *Error
	switch {
	case errors.As(err, &re):
		if re.Kind == KindValidation && re.Op == "" {
			return validationFailed(op, r.schema.Name, re.Details, re.Err)
		}
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return notFound(op, r.schema.Name, err)
	case mongo.IsDuplicateKeyError(err):
		return validationFailed(op, r.schema.Name, duplicateDetails(err, r.schema.Unique), err)
	}
	return fmt.Errorf("%s %s: %w", r.schema.Name, op, err)
}
