package types

// Collection names used by the document store.
const (
	MoviesCollection = "movies"
	ActorsCollection = "actors"
	UsersCollection  = "users"
)
