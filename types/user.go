package types

import "time"

// User represents an account in the system.
// It contains identity, credentials, and the three relationship lists.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"_id,omitempty" bson:"_id,omitempty"`

	// Username is the login name chosen by the user.
	Username string `json:"username" bson:"username"`

	// Password stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	Password string `json:"-" bson:"password"`

	// Email is the user's email address. It is unique across users.
	Email string `json:"email" bson:"email"`

	// BirthDate is optional.
	BirthDate *time.Time `json:"birthDate,omitempty" bson:"birthDate,omitempty"`

	// FavoriteMovies holds movie ids in insertion order, without duplicates.
	FavoriteMovies []string `json:"favoriteMovies" bson:"favoriteMovies"`

	// ToWatchMovies holds movie ids in insertion order, without duplicates.
	ToWatchMovies []string `json:"toWatchMovies" bson:"toWatchMovies"`

	// FavoriteActors holds actor ids in insertion order, without duplicates.
	FavoriteActors []string `json:"favoriteActors" bson:"favoriteActors"`
}
