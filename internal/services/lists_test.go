package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/myflix-app/apiserver/types"
)

func TestEditListAddToEmptyList(t *testing.T) {
	docs := newTestStore()
	seedUser(t, docs, "u1", "u1@example.com")
	lists := NewListService(docs, nil)

	msg, err := lists.EditList(context.Background(), "u1", "u1", "m1", ListEdit{Kind: Add, List: FavoriteMovies, Item: "m1"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if want := "Item with ID m1 has been added to your favoriteMovies list."; msg != want {
		t.Errorf("expected %q, got %q", want, msg)
	}
	if got := userList(t, docs, "u1", FavoriteMovies); len(got) != 1 || got[0] != "m1" {
		t.Errorf("expected [m1], got %v", got)
	}
}

func TestEditListRemove(t *testing.T) {
	docs := newTestStore()
	seedUser(t, docs, "u1", "u1@example.com", "m1", "m2")
	lists := NewListService(docs, nil)

	msg, err := lists.EditList(context.Background(), "u1", "u1", "m1", ListEdit{Kind: Remove, List: FavoriteMovies, Item: "m1"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if want := "Item with ID m1 has been removed from your favoriteMovies list."; msg != want {
		t.Errorf("expected %q, got %q", want, msg)
	}
	if got := userList(t, docs, "u1", FavoriteMovies); len(got) != 1 || got[0] != "m2" {
		t.Errorf("expected [m2], got %v", got)
	}
}

func TestEditListRejectsDuplicateAdd(t *testing.T) {
	docs := newTestStore()
	seedUser(t, docs, "u1", "u1@example.com")
	lists := NewListService(docs, nil)
	ctx := context.Background()
	edit := ListEdit{Kind: Add, List: ToWatchMovies, Item: "m7"}

	if _, err := lists.EditList(ctx, "u1", "u1", "m7", edit); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := lists.EditList(ctx, "u1", "u1", "m7", edit)
	assertKind(t, err, ErrBadRequest)
	if want := "That item is already in your toWatchMovies list. Try adding another one."; Message(err) != want {
		t.Errorf("expected %q, got %q", want, Message(err))
	}

	got := userList(t, docs, "u1", ToWatchMovies)
	if len(got) != 1 {
		t.Errorf("expected m7 exactly once, got %v", got)
	}
}

func TestEditListRejectsAbsentRemove(t *testing.T) {
	docs := newTestStore()
	seedUser(t, docs, "u1", "u1@example.com", "m1")
	lists := NewListService(docs, nil)

	_, err := lists.EditList(context.Background(), "u1", "u1", "m9", ListEdit{Kind: Remove, List: FavoriteMovies, Item: "m9"})
	assertKind(t, err, ErrBadRequest)
	if want := "That item is not in your favoriteMovies list. Try removing another one."; Message(err) != want {
		t.Errorf("expected %q, got %q", want, Message(err))
	}
	if got := userList(t, docs, "u1", FavoriteMovies); len(got) != 1 || got[0] != "m1" {
		t.Errorf("expected list unchanged, got %v", got)
	}
}

func TestEditListBodyMismatchTouchesNothing(t *testing.T) {
	docs := &countingStore{DocumentStore: newTestStore()}
	lists := NewListService(docs, nil)

	_, err := lists.EditList(context.Background(), "u1", "u1", "m3", ListEdit{Kind: Add, List: FavoriteMovies, Item: "m2"})
	assertKind(t, err, ErrBadRequest)
	if Message(err) != "Request body and path parameters do not match." {
		t.Errorf("unexpected message %q", Message(err))
	}
	if docs.total() != 0 {
		t.Errorf("expected no store access, got %d calls", docs.total())
	}
}

func TestEditListOwnership(t *testing.T) {
	base := newTestStore()
	seedUser(t, base, "u1", "u1@example.com")
	docs := &countingStore{DocumentStore: base}
	lists := NewListService(docs, nil)
	ctx := context.Background()

	for _, target := range []string{"u1", "ghost"} {
		for _, kind := range []EditKind{Add, Remove} {
			_, err := lists.EditList(ctx, "intruder", target, "m1", ListEdit{Kind: kind, List: FavoriteActors, Item: "m1"})
			assertKind(t, err, ErrNotAuthorized)
		}
		_, err := lists.List(ctx, "intruder", target, FavoriteActors, true)
		assertKind(t, err, ErrNotAuthorized)
	}

	if docs.total() != 0 {
		t.Errorf("expected no store access, got %d calls", docs.total())
	}
}

func TestEditListUnknownUser(t *testing.T) {
	lists := NewListService(newTestStore(), nil)

	_, err := lists.EditList(context.Background(), "u1", "u1", "m1", ListEdit{Kind: Add, List: FavoriteMovies, Item: "m1"})
	assertKind(t, err, ErrNotFound)
}

func TestEditListPublishesActivity(t *testing.T) {
	docs := newTestStore()
	seedUser(t, docs, "u1", "u1@example.com")
	pub := &recordingPublisher{}
	lists := NewListService(docs, NewActivity(pub, "user-activity", nil))

	if _, err := lists.EditList(context.Background(), "u1", "u1", "a1", ListEdit{Kind: Add, List: FavoriteActors, Item: "a1"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(pub.payloads) != 1 || pub.channels[0] != "user-activity" {
		t.Fatalf("expected one event on user-activity, got %v", pub.channels)
	}
	var event ActivityEvent
	if err := json.Unmarshal(pub.payloads[0], &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != ActivityListAdded || event.UserID != "u1" || event.List != "favoriteActors" || event.ItemID != "a1" {
		t.Errorf("unexpected event %+v", event)
	}
	if event.At.IsZero() {
		t.Errorf("expected event timestamp")
	}
}

func TestEditListConcurrentAddsKeepListUnique(t *testing.T) {
	docs := newTestStore()
	seedUser(t, docs, "u1", "u1@example.com")
	lists := NewListService(docs, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = lists.EditList(context.Background(), "u1", "u1", "m1", ListEdit{Kind: Add, List: FavoriteMovies, Item: "m1"})
		}()
	}
	wg.Wait()

	if got := userList(t, docs, "u1", FavoriteMovies); len(got) != 1 {
		t.Errorf("expected m1 exactly once, got %v", got)
	}
}

func TestListPopulate(t *testing.T) {
	docs := newTestStore()
	seedCatalog(t, docs)
	seedUser(t, docs, "u1", "u1@example.com", "m2")
	lists := NewListService(docs, nil)
	ctx := context.Background()

	raw, err := lists.List(ctx, "u1", "u1", FavoriteMovies, false)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if ids := raw.([]string); len(ids) != 1 || ids[0] != "m2" {
		t.Errorf("expected [m2], got %v", ids)
	}

	populated, err := lists.List(ctx, "u1", "u1", FavoriteMovies, true)
	if err != nil {
		t.Fatalf("list movies: %v", err)
	}
	if _, ok := populated.([]bson.D); !ok {
		t.Fatalf("expected documents, got %T", populated)
	}
}

func TestEditListRemovesLegacyObjectID(t *testing.T) {
	docs := newTestStore()
	legacy := bson.NewObjectID()
	insert(t, docs, types.UsersCollection, bson.D{
		{Key: "_id", Value: "u1"},
		{Key: "username", Value: "legacyuser"},
		{Key: "email", Value: "legacy@example.com"},
		{Key: "favoriteMovies", Value: bson.A{legacy, "m2"}},
	})
	lists := NewListService(docs, nil)
	ctx := context.Background()

	_, err := lists.EditList(ctx, "u1", "u1", legacy.Hex(), ListEdit{Kind: Add, List: FavoriteMovies, Item: legacy.Hex()})
	assertKind(t, err, ErrBadRequest)

	if _, err := lists.EditList(ctx, "u1", "u1", legacy.Hex(), ListEdit{Kind: Remove, List: FavoriteMovies, Item: legacy.Hex()}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := userList(t, docs, "u1", FavoriteMovies); len(got) != 1 || got[0] != "m2" {
		t.Errorf("expected [m2] after removing the ObjectID, got %v", got)
	}
}
