package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/myflix-app/apiserver/internal/store"
	"github.com/myflix-app/apiserver/types"
)

// DocumentStore defines the persistence operations the services rely on.
type DocumentStore interface {
	FindOne(ctx context.Context, collection string, filter, projection bson.D) (bson.D, error)
	Find(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error)
	UpdateOne(ctx context.Context, collection string, filter bson.D, update store.Update) (bson.D, error)
	InsertOne(ctx context.Context, collection string, doc bson.D) (string, error)
	DeleteOne(ctx context.Context, collection string, filter bson.D) error
}

// RecordService is the generic read path shared by every route: single
// lookups with projection and multi-document lookups with sort.
type RecordService struct {
	docs DocumentStore
}

func NewRecordService(docs DocumentStore) *RecordService {
	return &RecordService{docs: docs}
}

// FindRecord returns the one document matching filter, shaped for a client:
//   - the version marker is removed;
//   - a result with a single remaining field is unwrapped to that field's value;
//   - when the last filter key is a dotted path ("genre.name"), the field named
//     by its last segment is removed from the result, since the caller already
//     supplied it.
func (s *RecordService) FindRecord(ctx context.Context, collection string, filter, projection bson.D) (any, error) {
	doc, err := s.docs.FindOne(ctx, collection, filter, projection)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("No results found")
		}
		return nil, internal("failed to find record", err)
	}

	doc = withoutField(doc, store.VersionField)

	var result any = doc
	if len(doc) == 1 {
		result = doc[0].Value
	}

	if len(filter) > 0 {
		last := filter[len(filter)-1].Key
		if i := strings.LastIndex(last, "."); i >= 0 {
			if sub, ok := result.(bson.D); ok {
				result = withoutField(sub, last[i+1:])
			}
		}
	}
	return result, nil
}

// FindRecords returns every document matching filter in sort order. An empty
// match is an empty slice, not an error.
func (s *RecordService) FindRecords(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error) {
	docs, err := s.docs.Find(ctx, collection, filter, projection, sort)
	if err != nil {
		return nil, internal("failed to find records", err)
	}
	for i := range docs {
		docs[i] = withoutField(docs[i], store.VersionField)
	}
	return docs, nil
}

// GetList returns the ids held in one of the caller's relationship lists.
// filter must address the user by _id.
func (s *RecordService) GetList(ctx context.Context, callerID string, filter bson.D, list ListName) ([]string, error) {
	if err := authorizeFilter(callerID, filter); err != nil {
		return nil, err
	}
	if !list.Valid() {
		return nil, badRequest("Unknown list %q.", list)
	}

	projection := bson.D{{Key: string(list), Value: 1}, {Key: store.IDField, Value: 0}}
	doc, err := s.docs.FindOne(ctx, types.UsersCollection, filter, projection)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("No results found")
		}
		return nil, internal("failed to load list", err)
	}

	value, _ := store.Lookup(doc, string(list))
	return stringList(value), nil
}

// PopulateList resolves ids against collection, keeping list order. Ids whose
// document no longer exists are skipped.
func (s *RecordService) PopulateList(ctx context.Context, collection string, ids []string) ([]bson.D, error) {
	docs := make([]bson.D, 0, len(ids))
	for _, id := range ids {
		doc, err := s.docs.FindOne(ctx, collection, bson.D{{Key: store.IDField, Value: id}}, nil)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, internal("failed to populate list", err)
		}
		docs = append(docs, withoutField(doc, store.VersionField))
	}
	return docs, nil
}

func withoutField(doc bson.D, key string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, elem := range doc {
		if elem.Key != key {
			out = append(out, elem)
		}
	}
	return out
}

// listItem returns the stored element of a list whose id string is item.
// Legacy lists may hold ObjectIDs, so the stored value, not item, is what a
// Pull must match.
func listItem(value any, item string) (any, bool) {
	var items []any
	switch typed := value.(type) {
	case bson.A:
		items = typed
	case []any:
		items = typed
	case []string:
		if slices.Contains(typed, item) {
			return item, true
		}
		return nil, false
	}
	for _, stored := range items {
		if idString(stored) == item {
			return stored, true
		}
	}
	return nil, false
}

func idString(value any) string {
	switch id := value.(type) {
	case string:
		return id
	case bson.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

func stringList(value any) []string {
	var items []any
	switch typed := value.(type) {
	case bson.A:
		items = typed
	case []any:
		items = typed
	case []string:
		return append([]string{}, typed...)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, idString(item))
	}
	return out
}
