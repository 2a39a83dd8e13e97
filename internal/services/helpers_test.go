package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/myflix-app/apiserver/internal/store"
	"github.com/myflix-app/apiserver/types"
)

func newTestStore() *store.Store {
	return store.New(store.NewMemoryBackend(map[string][]string{
		types.UsersCollection:  {"email", "username"},
		types.MoviesCollection: {"name"},
	}))
}

func insert(t *testing.T, s DocumentStore, collection string, v any) string {
	t.Helper()
	doc, err := store.ToDocument(v)
	if err != nil {
		t.Fatalf("encode %T: %v", v, err)
	}
	id, err := s.InsertOne(context.Background(), collection, doc)
	if err != nil {
		t.Fatalf("insert into %s: %v", collection, err)
	}
	return id
}

func seedCatalog(t *testing.T, s DocumentStore) {
	t.Helper()
	insert(t, s, types.MoviesCollection, types.Movie{
		ID:          "m1",
		Name:        "Avatar",
		Description: "A marine on an alien planet.",
		Genre:       types.Genre{Name: "Science Fiction", Description: "Speculative futures."},
		Director:    types.Director{Name: "James Cameron", Bio: "Canadian filmmaker.", BirthYear: 1954},
		Rating:      7.8,
		ReleaseYear: 2009,
		Featured:    true,
		Stars:       []types.Star{{Actor: "Sam Worthington", Character: "Jake Sully"}},
	})
	insert(t, s, types.MoviesCollection, types.Movie{
		ID:          "m2",
		Name:        "Superbad",
		Description: "Two teenagers and one party.",
		Genre:       types.Genre{Name: "Comedy", Description: "Made to make you laugh."},
		Director:    types.Director{Name: "Greg Mottola", Bio: "American director."},
		Rating:      7.6,
		ReleaseYear: 2007,
		Stars:       []types.Star{{Actor: "Jonah Hill", Character: "Seth"}},
	})
	insert(t, s, types.MoviesCollection, types.Movie{
		ID:          "m3",
		Name:        "Titanic",
		Description: "An ill-fated voyage.",
		Genre:       types.Genre{Name: "Drama", Description: "Serious stories."},
		Director:    types.Director{Name: "James Cameron", Bio: "Canadian filmmaker.", BirthYear: 1954},
		Rating:      7.9,
		ReleaseYear: 1997,
		Featured:    true,
	})
	insert(t, s, types.ActorsCollection, types.Actor{ID: "a1", Name: "Jonah Hill", BirthCountry: "USA", Occupations: []string{"actor"}, StarsIn: []string{"Superbad"}})
}

func seedUser(t *testing.T, s DocumentStore, id, email string, favorites ...string) {
	t.Helper()
	if favorites == nil {
		favorites = []string{}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	insert(t, s, types.UsersCollection, types.User{
		ID:             id,
		Username:       "user" + id,
		Password:       string(hashed),
		Email:          email,
		FavoriteMovies: favorites,
		ToWatchMovies:  []string{},
		FavoriteActors: []string{},
	})
}

func userList(t *testing.T, s DocumentStore, id string, list ListName) []string {
	t.Helper()
	doc, err := s.FindOne(context.Background(), types.UsersCollection, bson.D{{Key: store.IDField, Value: id}}, nil)
	if err != nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	value, _ := store.Lookup(doc, string(list))
	return stringList(value)
}

// countingStore records how many calls reach the wrapped store.
type countingStore struct {
	DocumentStore
	mu     sync.Mutex
	reads  int
	writes int
}

func (c *countingStore) FindOne(ctx context.Context, collection string, filter, projection bson.D) (bson.D, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.DocumentStore.FindOne(ctx, collection, filter, projection)
}

func (c *countingStore) Find(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.DocumentStore.Find(ctx, collection, filter, projection, sort)
}

func (c *countingStore) UpdateOne(ctx context.Context, collection string, filter bson.D, update store.Update) (bson.D, error) {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.DocumentStore.UpdateOne(ctx, collection, filter, update)
}

func (c *countingStore) DeleteOne(ctx context.Context, collection string, filter bson.D) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.DocumentStore.DeleteOne(ctx, collection, filter)
}

func (c *countingStore) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads + c.writes
}

var errBackend = errors.New("connection reset")

// failingStore fails every call with errBackend.
type failingStore struct{}

func (failingStore) FindOne(context.Context, string, bson.D, bson.D) (bson.D, error) {
	return nil, errBackend
}

func (failingStore) Find(context.Context, string, bson.D, bson.D, bson.D) ([]bson.D, error) {
	return nil, errBackend
}

func (failingStore) UpdateOne(context.Context, string, bson.D, store.Update) (bson.D, error) {
	return nil, errBackend
}

func (failingStore) InsertOne(context.Context, string, bson.D) (string, error) {
	return "", errBackend
}

func (failingStore) DeleteOne(context.Context, string, bson.D) error {
	return errBackend
}

// recordingPublisher captures published activity payloads.
type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, data)
	return "id", p.err
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
