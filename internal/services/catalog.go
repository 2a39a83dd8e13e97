package services

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/myflix-app/apiserver/internal/store"
	"github.com/myflix-app/apiserver/types"
)

var sortFieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(\.[A-Za-z][A-Za-z0-9]*)*$`)

// SortParam is one field=direction pair from a query string, in request order.
type SortParam struct {
	Field     string
	Direction string
}

// ParseSort turns query pairs into a sort document. Directions must be
// "1" or "-1".
func ParseSort(params []SortParam) (bson.D, error) {
	order := bson.D{}
	for _, p := range params {
		if !sortFieldPattern.MatchString(p.Field) {
			return nil, badRequest("Cannot sort by %q.", p.Field)
		}
		switch p.Direction {
		case "1":
			order = append(order, bson.E{Key: p.Field, Value: 1})
		case "-1":
			order = append(order, bson.E{Key: p.Field, Value: -1})
		default:
			return nil, badRequest("Sort value for %s must be 1 or -1.", p.Field)
		}
	}
	return order, nil
}

// MovieFavorites counts how many users hold a movie in their favorites.
type MovieFavorites struct {
	Name           string `json:"name"`
	UsersFavorited int    `json:"usersFavorited"`
}

// CatalogService serves the read-only movie and actor catalog.
type CatalogService struct {
	docs    DocumentStore
	records *RecordService
}

func NewCatalogService(docs DocumentStore) *CatalogService {
	return &CatalogService{docs: docs, records: NewRecordService(docs)}
}

func (s *CatalogService) Movies(ctx context.Context, order bson.D) ([]bson.D, error) {
	return s.records.FindRecords(ctx, types.MoviesCollection, nil, nil, order)
}

func (s *CatalogService) Movie(ctx context.Context, name string) (any, error) {
	return s.records.FindRecord(ctx, types.MoviesCollection, bson.D{{Key: "name", Value: name}}, nil)
}

func (s *CatalogService) MovieStars(ctx context.Context, name string) (any, error) {
	return s.records.FindRecord(ctx, types.MoviesCollection,
		bson.D{{Key: "name", Value: name}},
		bson.D{{Key: "stars", Value: 1}, {Key: store.IDField, Value: 0}},
	)
}

// Genre returns the genre embedded in any movie of that genre, without its
// name.
func (s *CatalogService) Genre(ctx context.Context, name string) (any, error) {
	return s.records.FindRecord(ctx, types.MoviesCollection,
		bson.D{{Key: "genre.name", Value: name}},
		bson.D{{Key: "genre", Value: 1}, {Key: store.IDField, Value: 0}},
	)
}

// Director returns the director embedded in any movie they directed, without
// their name.
func (s *CatalogService) Director(ctx context.Context, name string) (any, error) {
	return s.records.FindRecord(ctx, types.MoviesCollection,
		bson.D{{Key: "director.name", Value: name}},
		bson.D{{Key: "director", Value: 1}, {Key: store.IDField, Value: 0}},
	)
}

// FeaturedMovies returns the names of featured movies.
func (s *CatalogService) FeaturedMovies(ctx context.Context) ([]string, error) {
	docs, err := s.records.FindRecords(ctx, types.MoviesCollection,
		bson.D{{Key: "featured", Value: true}},
		bson.D{{Key: "name", Value: 1}, {Key: store.IDField, Value: 0}},
		nil,
	)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		if name, ok := store.Lookup(doc, "name"); ok {
			if title, ok := name.(string); ok {
				names = append(names, title)
			}
		}
	}
	return names, nil
}

// FavoriteMovies ranks movies by how many users favorited them, most
// favorited first. Ties are ordered by name. Ids of movies that no longer
// exist are ignored.
func (s *CatalogService) FavoriteMovies(ctx context.Context) ([]MovieFavorites, error) {
	users, err := s.records.FindRecords(ctx, types.UsersCollection, nil,
		bson.D{{Key: string(FavoriteMovies), Value: 1}, {Key: store.IDField, Value: 0}},
		nil,
	)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, user := range users {
		ids, _ := store.Lookup(user, string(FavoriteMovies))
		for _, id := range stringList(ids) {
			counts[id]++
		}
	}

	byName := map[string]int{}
	for id, n := range counts {
		doc, err := s.docs.FindOne(ctx, types.MoviesCollection,
			bson.D{{Key: store.IDField, Value: id}},
			bson.D{{Key: "name", Value: 1}, {Key: store.IDField, Value: 0}},
		)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, internal("failed to resolve favorite movie", err)
		}
		name, _ := store.Lookup(doc, "name")
		if title, ok := name.(string); ok {
			byName[title] += n
		}
	}

	ranking := make([]MovieFavorites, 0, len(byName))
	for name, n := range byName {
		ranking = append(ranking, MovieFavorites{Name: name, UsersFavorited: n})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].UsersFavorited != ranking[j].UsersFavorited {
			return ranking[i].UsersFavorited > ranking[j].UsersFavorited
		}
		return ranking[i].Name < ranking[j].Name
	})
	return ranking, nil
}

func (s *CatalogService) Actors(ctx context.Context, order bson.D) ([]bson.D, error) {
	return s.records.FindRecords(ctx, types.ActorsCollection, nil, nil, order)
}

func (s *CatalogService) Actor(ctx context.Context, name string) (any, error) {
	return s.records.FindRecord(ctx, types.ActorsCollection, bson.D{{Key: "name", Value: name}}, nil)
}
