package store

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func movieDoc() bson.D {
	return bson.D{
		{Key: "_id", Value: "m1"},
		{Key: "name", Value: "Avatar"},
		{Key: "genre", Value: bson.D{
			{Key: "name", Value: "Science Fiction"},
			{Key: "description", Value: "Speculative futures."},
		}},
		{Key: "director", Value: bson.D{
			{Key: "name", Value: "James Cameron"},
			{Key: "birthYear", Value: int32(1954)},
		}},
		{Key: "rating", Value: 7.8},
		{Key: "stars", Value: bson.A{
			bson.D{{Key: "actor", Value: "Sam Worthington"}, {Key: "character", Value: "Jake Sully"}},
		}},
		{Key: "tags", Value: bson.A{"3d", "epic"}},
		{Key: "__v", Value: int32(0)},
	}
}

func TestLookup(t *testing.T) {
	doc := movieDoc()

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{path: "name", want: "Avatar", wantOK: true},
		{path: "genre.name", want: "Science Fiction", wantOK: true},
		{path: "director.birthYear", want: int32(1954), wantOK: true},
		{path: "genre.missing", wantOK: false},
		{path: "name.first", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Lookup(doc, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	doc := movieDoc()

	tests := []struct {
		name   string
		filter bson.D
		want   bool
	}{
		{name: "empty filter", filter: nil, want: true},
		{name: "top-level equality", filter: bson.D{{Key: "name", Value: "Avatar"}}, want: true},
		{name: "nested path", filter: bson.D{{Key: "genre.name", Value: "Science Fiction"}}, want: true},
		{name: "numeric types compare by value", filter: bson.D{{Key: "director.birthYear", Value: 1954}}, want: true},
		{name: "array contains", filter: bson.D{{Key: "tags", Value: "epic"}}, want: true},
		{name: "mismatch", filter: bson.D{{Key: "name", Value: "Titanic"}}, want: false},
		{name: "missing field", filter: bson.D{{Key: "featured", Value: true}}, want: false},
		{name: "all conditions required", filter: bson.D{{Key: "name", Value: "Avatar"}, {Key: "rating", Value: 1.0}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(doc, tt.filter); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestProjectInclusion(t *testing.T) {
	got := Project(movieDoc(), bson.D{{Key: "director", Value: 1}, {Key: "_id", Value: 0}})
	if len(got) != 1 || got[0].Key != "director" {
		t.Fatalf("expected only director, got %v", got)
	}

	got = Project(movieDoc(), bson.D{{Key: "name", Value: 1}})
	if len(got) != 2 || got[0].Key != "_id" || got[1].Key != "name" {
		t.Fatalf("expected _id and name in document order, got %v", got)
	}

	got = Project(movieDoc(), bson.D{{Key: "genre.description", Value: 1}, {Key: "_id", Value: 0}})
	genre, ok := Lookup(got, "genre")
	if !ok {
		t.Fatalf("expected genre in %v", got)
	}
	if sub := genre.(bson.D); len(sub) != 1 || sub[0].Key != "description" {
		t.Errorf("expected only genre.description, got %v", sub)
	}
}

func TestProjectExclusion(t *testing.T) {
	got := Project(movieDoc(), bson.D{{Key: "stars", Value: 0}, {Key: "genre.description", Value: 0}})
	if _, ok := Lookup(got, "stars"); ok {
		t.Errorf("expected stars to be excluded")
	}
	if _, ok := Lookup(got, "genre.description"); ok {
		t.Errorf("expected genre.description to be excluded")
	}
	if _, ok := Lookup(got, "genre.name"); !ok {
		t.Errorf("expected genre.name to remain")
	}
	if got[0].Key != "_id" {
		t.Errorf("expected _id to remain first, got %q", got[0].Key)
	}
}

func TestProjectDoesNotAliasSource(t *testing.T) {
	src := movieDoc()
	got := Project(src, nil)
	got[1].Value = "changed"
	if name, _ := Lookup(src, "name"); name != "Avatar" {
		t.Errorf("source document was modified: %v", name)
	}
}

func TestSortDocuments(t *testing.T) {
	docs := []bson.D{
		{{Key: "name", Value: "b"}, {Key: "rating", Value: 7.0}, {Key: "year", Value: int32(2001)}},
		{{Key: "name", Value: "a"}, {Key: "rating", Value: 9.0}, {Key: "year", Value: int32(2001)}},
		{{Key: "name", Value: "c"}, {Key: "rating", Value: 7.0}, {Key: "year", Value: int32(1999)}},
		{{Key: "name", Value: "d"}},
	}

	SortDocuments(docs, bson.D{{Key: "rating", Value: -1}, {Key: "year", Value: 1}})

	want := []string{"a", "c", "b", "d"}
	for i, name := range want {
		if got, _ := Lookup(docs[i], "name"); got != name {
			t.Errorf("position %d: expected %q, got %v", i, name, got)
		}
	}
}

func TestSortDocumentsDates(t *testing.T) {
	older := bson.NewDateTimeFromTime(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := bson.NewDateTimeFromTime(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC))
	docs := []bson.D{
		{{Key: "name", Value: "young"}, {Key: "birthDate", Value: newer}},
		{{Key: "name", Value: "old"}, {Key: "birthDate", Value: older}},
	}

	SortDocuments(docs, bson.D{{Key: "birthDate", Value: 1}})

	if got, _ := Lookup(docs[0], "name"); got != "old" {
		t.Errorf("expected old first, got %v", got)
	}
}

func TestApply(t *testing.T) {
	doc := bson.D{
		{Key: "_id", Value: "u1"},
		{Key: "favoriteMovies", Value: bson.A{"m1"}},
		{Key: "__v", Value: int32(3)},
	}

	pushed, err := Apply(doc, Push{Field: "favoriteMovies", Value: "m2"})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	list, _ := Lookup(pushed, "favoriteMovies")
	if arr := list.(bson.A); len(arr) != 2 || arr[1] != "m2" {
		t.Errorf("expected [m1 m2], got %v", arr)
	}
	if v, _ := Lookup(pushed, "__v"); v != int32(4) {
		t.Errorf("expected version 4, got %v", v)
	}

	again, err := Apply(pushed, Push{Field: "favoriteMovies", Value: "m2"})
	if err != nil {
		t.Fatalf("push again: %v", err)
	}
	list, _ = Lookup(again, "favoriteMovies")
	if arr := list.(bson.A); len(arr) != 2 {
		t.Errorf("expected push of present value to keep length 2, got %v", arr)
	}

	pulled, err := Apply(pushed, Pull{Field: "favoriteMovies", Value: "m1"})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	list, _ = Lookup(pulled, "favoriteMovies")
	if arr := list.(bson.A); len(arr) != 1 || arr[0] != "m2" {
		t.Errorf("expected [m2], got %v", arr)
	}

	set, err := Apply(doc, Set{Fields: bson.D{{Key: "email", Value: "a@b.c"}}})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if email, _ := Lookup(set, "email"); email != "a@b.c" {
		t.Errorf("expected email to be set, got %v", email)
	}

	if _, err := Apply(doc, Push{Field: "_id", Value: "x"}); err == nil {
		t.Errorf("expected push onto a non-array to fail")
	}

	created, err := Apply(bson.D{{Key: "_id", Value: "u2"}}, Push{Field: "toWatchMovies", Value: "m9"})
	if err != nil {
		t.Fatalf("push onto missing field: %v", err)
	}
	if list, _ := Lookup(created, "toWatchMovies"); len(list.(bson.A)) != 1 {
		t.Errorf("expected list to be created, got %v", list)
	}
}

func TestToDocumentRoundTrip(t *testing.T) {
	type sample struct {
		ID   string   `bson:"_id"`
		Name string   `bson:"name"`
		Tags []string `bson:"tags"`
	}

	doc, err := ToDocument(sample{ID: "x", Name: "n", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("to document: %v", err)
	}
	if doc[0].Key != "_id" || doc[1].Key != "name" || doc[2].Key != "tags" {
		t.Fatalf("expected struct field order, got %v", doc)
	}

	var out sample
	if err := FromDocument(doc, &out); err != nil {
		t.Fatalf("from document: %v", err)
	}
	if out.Name != "n" || len(out.Tags) != 1 {
		t.Errorf("unexpected decode: %+v", out)
	}
}
