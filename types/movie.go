package types

// Movie is a catalog entry. Movies are seeded out of band and are read-only
// through the API.
type Movie struct {
	// ID is the opaque document identifier.
	ID string `json:"_id,omitempty" bson:"_id,omitempty"`

	// Name is the unique title of the movie.
	Name string `json:"name" bson:"name" validate:"required"`

	// Description is a short synopsis.
	Description string `json:"description" bson:"description"`

	// Genre is embedded in every movie; genre lookups match on Genre.Name.
	Genre Genre `json:"genre" bson:"genre"`

	// Director is embedded in every movie; director lookups match on Director.Name.
	Director Director `json:"director" bson:"director"`

	// Image is the asset key or URL of the poster.
	Image string `json:"image,omitempty" bson:"image,omitempty"`

	// Rating is the average score, typically on a 0-10 scale.
	Rating float64 `json:"rating,omitempty" bson:"rating,omitempty"`

	// ReleaseYear is the year of the first theatrical release.
	ReleaseYear int `json:"releaseYear,omitempty" bson:"releaseYear,omitempty"`

	// Featured marks movies listed by /featured-movies.
	Featured bool `json:"featured" bson:"featured"`

	// Stars is the billed cast in credit order.
	Stars []Star `json:"stars" bson:"stars"`
}

// Genre describes a movie genre.
type Genre struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
}

// Director describes the director of a movie.
type Director struct {
	Name      string `json:"name" bson:"name"`
	Bio       string `json:"bio" bson:"bio"`
	BirthYear int    `json:"birthYear,omitempty" bson:"birthYear,omitempty"`
	DeathYear int    `json:"deathYear,omitempty" bson:"deathYear,omitempty"`
}

// Star pairs an actor with the character they play.
type Star struct {
	Actor     string `json:"actor" bson:"actor"`
	Character string `json:"character" bson:"character"`
}
