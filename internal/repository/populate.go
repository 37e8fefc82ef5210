package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// expand replaces the ids stored under each populate path with the
// referenced documents. A single id becomes a document (or nil when the
// reference is dangling); an array of ids becomes an array of the
// documents that exist.
func expand(ctx context.Context, docs []bson.M, populate []Populate) error {
	for _, p := range populate {
		if p.Path == "" || p.From == nil {
			continue
		}
		ids := collectIDs(docs, p.Path)
		if len(ids) == 0 {
			continue
		}
		refs, err := p.From.Find(ctx, bson.M{FieldID: bson.M{"$in": ids}}, FindOptions{})
		if err != nil {
			return fmt.Errorf("populate %s: %w", p.Path, err)
		}
		byID := make(map[primitive.ObjectID]bson.M, len(refs))
		for _, ref := range refs {
			if oid, ok := ref[FieldID].(primitive.ObjectID); ok {
				byID[oid] = ref
			}
		}
		for _, d := range docs {
			switch v := d[p.Path].(type) {
			case primitive.ObjectID:
				if ref, ok := byID[v]; ok {
					d[p.Path] = ref
				} else {
					d[p.Path] = nil
				}
			case bson.A:
				out := bson.A{}
				for _, item := range v {
					if oid, ok := item.(primitive.ObjectID); ok {
						if ref, ok := byID[oid]; ok {
							out = append(out, ref)
						}
					}
				}
				d[p.Path] = out
			}
		}
	}
	return nil
}

func collectIDs(docs []bson.M, path string) bson.A {
	seen := map[primitive.ObjectID]bool{}
	ids := bson.A{}
	add := func(v any) {
		if oid, ok := v.(primitive.ObjectID); ok && !seen[oid] {
			seen[oid] = true
			ids = append(ids, oid)
		}
	}
	for _, d := range docs {
		switch v := d[path].(type) {
		case bson.A:
			for _, item := range v {
				add(item)
			}
		default:
			add(v)
		}
	}
	return ids
}
