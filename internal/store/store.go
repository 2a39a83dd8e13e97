// Package store is the document storage layer behind the API.
//
// Documents, filters, projections and sorts are ordered bson.D values so that
// field order survives every backend. Filters match by equality and accept
// dotted paths ("genre.name"); a filter on an array field matches when the
// array contains the value. Projections follow MongoDB rules: any 1 makes the
// projection inclusive (plus _id unless excluded), otherwise listed fields are
// dropped. Every update bumps the version marker stored under VersionField.
package store

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// IDField is the identity field of every document.
	IDField = "_id"

	// VersionField is the internal revision counter maintained by the store.
	VersionField = "__v"
)

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Update is a single-document mutation. The set of variants is closed:
// Set, Push and Pull.
type Update interface {
	update()
}

// Set overwrites the listed top-level fields.
type Set struct {
	Fields bson.D
}

// Push appends Value to the array Field unless it is already present.
type Push struct {
	Field string
	Value any
}

// Pull removes every occurrence of Value from the array Field.
type Pull struct {
	Field string
	Value any
}

func (Set) update()  {}
func (Push) update() {}
func (Pull) update() {}

// Backend defines the operations every document backend implements.
type Backend interface {
	FindOne(ctx context.Context, collection string, filter, projection bson.D) (bson.D, error)
	Find(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error)
	UpdateOne(ctx context.Context, collection string, filter bson.D, update Update) (bson.D, error)
	InsertOne(ctx context.Context, collection string, doc bson.D) error
	DeleteOne(ctx context.Context, collection string, filter bson.D) error
	Close(ctx context.Context) error
}

// Store wraps a Backend with identity and version bookkeeping.
type Store struct {
	backend Backend
}

// New constructs a Store for the provided backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// FindOne returns the first document matching filter, or ErrNotFound.
func (s *Store) FindOne(ctx context.Context, collection string, filter, projection bson.D) (bson.D, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	return s.backend.FindOne(ctx, collection, filter, projection)
}

// Find returns every document matching filter in sort order, or insertion
// order when sort is empty.
func (s *Store) Find(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	return s.backend.Find(ctx, collection, filter, projection, sort)
}

// UpdateOne applies update to the first document matching filter and returns
// the document as it is after the update.
func (s *Store) UpdateOne(ctx context.Context, collection string, filter bson.D, update Update) (bson.D, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	return s.backend.UpdateOne(ctx, collection, filter, update)
}

// InsertOne stores doc and returns its identifier. A missing _id is generated;
// the version marker always starts at zero.
func (s *Store) InsertOne(ctx context.Context, collection string, doc bson.D) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}

	id, _ := Lookup(doc, IDField)
	idStr, ok := id.(string)
	if !ok || idStr == "" {
		idStr = uuid.NewString()
	}

	out := make(bson.D, 0, len(doc)+2)
	out = append(out, bson.E{Key: IDField, Value: idStr})
	for _, elem := range doc {
		if elem.Key == IDField || elem.Key == VersionField {
			continue
		}
		out = append(out, elem)
	}
	out = append(out, bson.E{Key: VersionField, Value: int32(0)})

	if err := s.backend.InsertOne(ctx, collection, out); err != nil {
		return "", err
	}
	return idStr, nil
}

// DeleteOne removes the first document matching filter, or returns ErrNotFound.
func (s *Store) DeleteOne(ctx context.Context, collection string, filter bson.D) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	return s.backend.DeleteOne(ctx, collection, filter)
}

// Close releases the backend.
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

func checkCollection(name string) error {
	if !collectionPattern.MatchString(name) {
		return ErrInvalidCollection
	}
	return nil
}
