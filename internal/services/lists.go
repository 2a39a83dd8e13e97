package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/myflix-app/apiserver/internal/store"
	"github.com/myflix-app/apiserver/types"
)

// ListName names one of a user's relationship lists. The value is the
// stored field name.
type ListName string

const (
	FavoriteMovies ListName = "favoriteMovies"
	ToWatchMovies  ListName = "toWatchMovies"
	FavoriteActors ListName = "favoriteActors"
)

func (l ListName) Valid() bool {
	switch l {
	case FavoriteMovies, ToWatchMovies, FavoriteActors:
		return true
	}
	return false
}

// Collection is where the ids held by the list point to.
func (l ListName) Collection() string {
	if l == FavoriteActors {
		return types.ActorsCollection
	}
	return types.MoviesCollection
}

// EditKind is the transition applied to a list.
type EditKind int

const (
	Add EditKind = iota + 1
	Remove
)

func (k EditKind) String() string {
	switch k {
	case Add:
		return "add"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// ListEdit describes a single add or remove of Item on List.
type ListEdit struct {
	Kind EditKind
	List ListName
	Item string
}

// ListService mutates relationship lists.
type ListService struct {
	docs     DocumentStore
	records  *RecordService
	activity *Activity
}

func NewListService(docs DocumentStore, activity *Activity) *ListService {
	return &ListService{docs: docs, records: NewRecordService(docs), activity: activity}
}

// List returns the caller's list. With populate the referenced documents are
// returned in list order, otherwise the raw ids.
func (s *ListService) List(ctx context.Context, callerID, userID string, list ListName, populate bool) (any, error) {
	ids, err := s.records.GetList(ctx, callerID, bson.D{{Key: store.IDField, Value: userID}}, list)
	if err != nil {
		return nil, err
	}
	if !populate {
		return ids, nil
	}
	return s.records.PopulateList(ctx, list.Collection(), ids)
}

// EditList applies edit to the list of userID on behalf of callerID and
// returns the confirmation message. bodyItemID is the item id the client sent
// in the request body; it must agree with edit.Item. Every check runs before
// the store is written.
func (s *ListService) EditList(ctx context.Context, callerID, userID, bodyItemID string, edit ListEdit) (string, error) {
	if bodyItemID != edit.Item {
		return "", badRequest("Request body and path parameters do not match.")
	}
	if err := Authorize(callerID, userID); err != nil {
		return "", err
	}
	if !edit.List.Valid() {
		return "", badRequest("Unknown list %q.", edit.List)
	}

	filter := bson.D{{Key: store.IDField, Value: userID}}
	doc, err := s.docs.FindOne(ctx, types.UsersCollection, filter, bson.D{{Key: string(edit.List), Value: 1}})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", notFound("User not found")
		}
		return "", internal("failed to load user", err)
	}

	value, _ := store.Lookup(doc, string(edit.List))
	stored, present := listItem(value, edit.Item)

	var (
		update  store.Update
		message string
		event   ActivityType
	)
	switch edit.Kind {
	case Add:
		if present {
			return "", badRequest("That item is already in your %s list. Try adding another one.", edit.List)
		}
		update = store.Push{Field: string(edit.List), Value: edit.Item}
		message = "Item with ID " + edit.Item + " has been added to your " + string(edit.List) + " list."
		event = ActivityListAdded
	case Remove:
		if !present {
			return "", badRequest("That item is not in your %s list. Try removing another one.", edit.List)
		}
		update = store.Pull{Field: string(edit.List), Value: stored}
		message = "Item with ID " + edit.Item + " has been removed from your " + string(edit.List) + " list."
		event = ActivityListRemoved
	default:
		return "", badRequest("Unsupported list action %q.", edit.Kind)
	}

	if _, err := s.docs.UpdateOne(ctx, types.UsersCollection, filter, update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", notFound("User not found")
		}
		return "", internal("failed to update list", err)
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:   event,
		UserID: userID,
		List:   string(edit.List),
		ItemID: edit.Item,
	})
	return message, nil
}
