package store

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestWhereClause(t *testing.T) {
	where, args, err := whereClause(nil)
	if err != nil {
		t.Fatalf("empty filter: %v", err)
	}
	if where != "TRUE" || len(args) != 0 {
		t.Errorf("expected TRUE with no args, got %q %v", where, args)
	}

	where, args, err = whereClause(bson.D{
		{Key: "_id", Value: "u1"},
		{Key: "genre.name", Value: "Comedy"},
	})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	wantWhere := "id = $1 AND (doc::jsonb @> $2::jsonb OR doc::jsonb @> $3::jsonb)"
	if where != wantWhere {
		t.Errorf("expected %q, got %q", wantWhere, where)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != "u1" {
		t.Errorf("expected id arg u1, got %v", args[0])
	}
	if args[1] != `{"genre":{"name":"Comedy"}}` {
		t.Errorf("unexpected scalar containment: %v", args[1])
	}
	if args[2] != `{"genre":{"name":["Comedy"]}}` {
		t.Errorf("unexpected array containment: %v", args[2])
	}
}

func TestJSONRoundTripKeepsOrder(t *testing.T) {
	doc := bson.D{
		{Key: "_id", Value: "m1"},
		{Key: "name", Value: "Avatar"},
		{Key: "genre", Value: bson.D{{Key: "name", Value: "Sci-Fi"}, {Key: "description", Value: "d"}}},
		{Key: "stars", Value: bson.A{"a", "b"}},
	}

	encoded, err := encodeJSON(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(encoded, `{"_id":"m1","name":"Avatar"`) {
		t.Errorf("expected field order preserved, got %s", encoded)
	}

	decoded, err := decodeJSON(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !valuesEqual(doc, decoded) {
		t.Errorf("expected %v, got %v", doc, decoded)
	}
}
