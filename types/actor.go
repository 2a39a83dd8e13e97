package types

import "time"

// Actor is a catalog entry for a performer.
type Actor struct {
	ID           string     `json:"_id,omitempty" bson:"_id,omitempty"`
	Name         string     `json:"name" bson:"name" validate:"required"`
	Bio          string     `json:"bio" bson:"bio"`
	BirthDate    time.Time  `json:"birthDate" bson:"birthDate"`
	DeathDate    *time.Time `json:"deathDate,omitempty" bson:"deathDate,omitempty"`
	BirthCountry string     `json:"birthCountry" bson:"birthCountry"`
	Image        string     `json:"image,omitempty" bson:"image,omitempty"`
	Occupations  []string   `json:"occupations" bson:"occupations"`
	StarsIn      []string   `json:"starsIn" bson:"starsIn"`
}
