package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore wraps col. Call EnsureIndexes once at startup so unique
// fields are enforced by the server.
func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

// EnsureIndexes creates one unique ascending index per unique field of
// schema. Index names follow the driver default (<field>_1).
func (m *MongoStore) EnsureIndexes(ctx context.Context, schema Schema) error {
	if len(schema.Unique) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(schema.Unique))
	for _, f := range schema.Unique {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: f, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}
	if _, err := m.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", m.col.Name(), err)
	}
	return nil
}

func (m *MongoStore) Insert(ctx context.Context, doc bson.M) error {
	_, err := m.col.InsertOne(ctx, doc)
	return err
}

func (m *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (bson.M, error) {
	var doc bson.M
	if err := m.col.FindOne(ctx, bson.M{FieldID: id}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *MongoStore) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	cur, err := m.col.Find(ctx, filter, fo)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoStore) Count(ctx context.Context, filter bson.M) (int64, error) {
	return m.col.CountDocuments(ctx, filter)
}

func (m *MongoStore) UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	if err := m.col.FindOneAndUpdate(ctx, bson.M{FieldID: id}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, nil)
}

// duplicateDetails names the unique fields a duplicate key error refers
// to. The server reports the violated index as "index: <field>_1".
func duplicateDetails(err error, unique []string) map[string]FieldError {
	details := map[string]FieldError{}
	for _, msg := range writeErrorMessages(err) {
		for _, f := range unique {
			if strings.Contains(msg, "index: "+f+"_1 ") {
				details[f] = uniqueError(f, duplicateValue(msg))
			}
		}
	}
	return details
}

func writeErrorMessages(err error) []string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		out := make([]string, 0, len(we.WriteErrors))
		for _, e := range we.WriteErrors {
			out = append(out, e.Message)
		}
		return out
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return []string{ce.Message}
	}
	return []string{err.Error()}
}

// duplicateValue extracts the value from `dup key: { name: "x" }`.
func duplicateValue(msg string) string {
	i := strings.Index(msg, "dup key: {")
	if i < 0 {
		return ""
	}
	rest := strings.TrimSuffix(strings.TrimSpace(msg[i+len("dup key: {"):]), "}")
	if j := strings.Index(rest, ":"); j >= 0 {
		rest = rest[j+1:]
	}
	return strings.Trim(strings.TrimSpace(rest), `"`)
}
