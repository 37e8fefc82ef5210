package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemoryStore is an in-process Store used for development without a
// database and in tests. Documents are kept in insertion order, which is
// the natural order of Find.
type MemoryStore struct {
	mu     sync.RWMutex
	unique []string
	docs   []bson.M
}

// NewMemoryStore returns an empty store enforcing the unique fields of
// schema.
func NewMemoryStore(schema Schema) *MemoryStore {
	return &MemoryStore{unique: schema.Unique}
}

func (m *MemoryStore) Insert(_ context.Context, doc bson.M) error {
	stored, err := normalize(doc)
	if err != nil {
		return err
	}
	id, ok := stored[FieldID].(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert: document has no ObjectId _id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(id) >= 0 {
		return &Error{Kind: KindValidation, Details: map[string]FieldError{FieldID: uniqueError(FieldID, id.Hex())}}
	}
	if details := m.conflicts(stored, -1); details != nil {
		return &Error{Kind: KindValidation, Details: details}
	}
	m.docs = append(m.docs, stored)
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id primitive.ObjectID) (bson.M, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, mongo.ErrNoDocuments
	}
	return normalize(m.docs[i])
}

func (m *MemoryStore) Find(_ context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	m.mu.RLock()
	matched := make([]bson.M, 0, len(m.docs))
	for _, d := range m.docs {
		if matches(d, filter) {
			matched = append(matched, d)
		}
	}
	m.mu.RUnlock()

	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j], opts.Sort)
		})
	}
	matched = window(matched, opts.Skip, opts.Limit)

	out := make([]bson.M, 0, len(matched))
	for _, d := range matched {
		c, err := normalize(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context, filter bson.M) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, d := range m.docs {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) UpdateByID(_ context.Context, id primitive.ObjectID, set bson.M) (bson.M, error) {
	patch, err := normalize(set)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, mongo.ErrNoDocuments
	}
	next := make(bson.M, len(m.docs[i])+len(patch))
	for k, v := range m.docs[i] {
		next[k] = v
	}
	for k, v := range patch {
		next[k] = v
	}
	if details := m.conflicts(next, i); details != nil {
		return nil, &Error{Kind: KindValidation, Details: details}
	}
	m.docs[i] = next
	return normalize(next)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored documents, active or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) indexOf(id primitive.ObjectID) int {
	for i, d := range m.docs {
		if d[FieldID] == id {
			return i
		}
	}
	return -1
}

// conflicts reports unique fields of doc already used by another document.
// skip is the index of doc itself when it is being updated.
func (m *MemoryStore) conflicts(doc bson.M, skip int) map[string]FieldError {
	var details map[string]FieldError
	for _, f := range m.unique {
		v, ok := doc[f]
		if !ok || v == nil {
			continue
		}
		for i, other := range m.docs {
			if i == skip {
				continue
			}
			if ov, ok := other[f]; ok && equal(ov, v) {
				if details == nil {
					details = map[string]FieldError{}
				}
				details[f] = uniqueError(f, v)
				break
			}
		}
	}
	return details
}

// normalize deep-copies doc through a BSON round trip so stored values have
// the same Go types the driver decodes (primitive.DateTime, bson.A, ...).
func normalize(doc bson.M) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func window(docs []bson.M, skip, limit int64) []bson.M {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return docs[:0]
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}
