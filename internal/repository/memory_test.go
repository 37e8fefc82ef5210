package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(Schema{Unique: []string{"name"}})
	id := primitive.NewObjectID()

	require.NoError(t, m.Insert(ctx, bson.M{FieldID: id, "name": "a", "at": time.Unix(10, 0)}))
	err := m.Insert(ctx, bson.M{FieldID: id, "name": "b"})
	require.True(t, IsValidation(err))

	err = m.Insert(ctx, bson.M{FieldID: primitive.NewObjectID(), "name": "a"})
	require.True(t, IsValidation(err))
	require.Contains(t, DetailsOf(err), "name")

	got, err := m.FindByID(ctx, id)
	require.NoError(t, err)
	// stored values carry driver types
	require.IsType(t, primitive.DateTime(0), got["at"])

	// returned documents are copies
	got["name"] = "mutated"
	again, err := m.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "a", again["name"])

	_, err = m.FindByID(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, mongo.ErrNoDocuments)

	updated, err := m.UpdateByID(ctx, id, bson.M{"name": "z", "extra": int32(1)})
	require.NoError(t, err)
	require.Equal(t, "z", updated["name"])
	require.Equal(t, int32(1), updated["extra"])

	_, err = m.UpdateByID(ctx, primitive.NewObjectID(), bson.M{"name": "y"})
	require.ErrorIs(t, err, mongo.ErrNoDocuments)

	n, err := m.Count(ctx, bson.M{"name": "z"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, m.Ping(ctx))
}

func TestMemoryStoreFindWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(Schema{})
	for i := int32(1); i <= 5; i++ {
		require.NoError(t, m.Insert(ctx, bson.M{FieldID: primitive.NewObjectID(), "n": i, "odd": i%2 == 1}))
	}

	docs, err := m.Find(ctx, bson.M{}, FindOptions{Sort: bson.D{{Key: "n", Value: -1}}, Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, int32(4), docs[0]["n"])
	require.Equal(t, int32(3), docs[1]["n"])

	docs, err = m.Find(ctx, bson.M{}, FindOptions{Skip: 10})
	require.NoError(t, err)
	require.Empty(t, docs)

	docs, err = m.Find(ctx, bson.M{"odd": true}, FindOptions{Sort: bson.D{{Key: "odd", Value: 1}, {Key: "n", Value: -1}}})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, int32(5), docs[0]["n"])
}

func TestMatches(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := bson.M{
		"name":  "alpha",
		"n":     int32(5),
		"when":  primitive.NewDateTimeFromTime(time.Unix(100, 0)),
		"tags":  bson.A{"x", "y"},
		"ref":   oid,
		"inner": bson.M{"level": int64(2)},
		"null":  nil,
	}

	cases := []struct {
		name   string
		filter bson.M
		want   bool
	}{
		{"empty", bson.M{}, true},
		{"equality", bson.M{"name": "alpha"}, true},
		{"equality miss", bson.M{"name": "beta"}, false},
		{"numbers across widths", bson.M{"n": int64(5)}, true},
		{"array element", bson.M{"tags": "y"}, true},
		{"null matches missing", bson.M{"absent": nil}, true},
		{"null matches null", bson.M{"null": nil}, true},
		{"null vs value", bson.M{"name": nil}, false},
		{"dotted path", bson.M{"inner.level": 2}, true},
		{"object id", bson.M{"ref": oid}, true},
		{"$gt", bson.M{"n": bson.M{"$gt": 4}}, true},
		{"$lte", bson.M{"n": bson.M{"$lte": 4}}, false},
		{"$gte on dates", bson.M{"when": bson.M{"$gte": time.Unix(50, 0)}}, true},
		{"$lt on missing", bson.M{"absent": bson.M{"$lt": 1}}, false},
		{"$ne", bson.M{"name": bson.M{"$ne": "beta"}}, true},
		{"$in", bson.M{"name": bson.M{"$in": bson.A{"beta", "alpha"}}}, true},
		{"$nin", bson.M{"name": bson.M{"$nin": []string{"alpha"}}}, false},
		{"$exists true", bson.M{"tags": bson.M{"$exists": true}}, true},
		{"$exists false", bson.M{"absent": bson.M{"$exists": false}}, true},
		{"$or", bson.M{"$or": bson.A{bson.M{"name": "beta"}, bson.M{"n": int32(5)}}}, true},
		{"$and", bson.M{"$and": []bson.M{{"name": "alpha"}, {"n": int32(6)}}}, false},
		{"$nor", bson.M{"$nor": bson.A{bson.M{"name": "beta"}}}, true},
		{"unsupported operator", bson.M{"name": bson.M{"$regex": "al"}}, false},
		{"type mismatch", bson.M{"n": "5"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, matches(doc, tc.filter))
		})
	}
}

func TestLessMissingFirst(t *testing.T) {
	withName := bson.M{"name": "b"}
	without := bson.M{}

	asc := bson.D{{Key: "name", Value: 1}}
	require.True(t, less(without, withName, asc))
	require.False(t, less(withName, without, asc))

	desc := bson.D{{Key: "name", Value: -1}}
	require.True(t, less(withName, without, desc))
	require.False(t, less(withName, withName, desc))
}

func TestDuplicateValue(t *testing.T) {
	require.Equal(t, "x", duplicateValue(`E11000 duplicate key error index: name_1 dup key: { name: "x" }`))
	require.Equal(t, "", duplicateValue("some other failure"))
}
