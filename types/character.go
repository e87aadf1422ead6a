package types

import "time"

// Character represents a fictional-character record in the catalog.
// Every character belongs to exactly one user, who owns the record.
type Character struct {
	// ID is the unique identifier of the character.
	ID int `json:"id" db:"id"`

	// Name is the character's name. Names are unique across the catalog.
	Name string `json:"name" db:"name"`

	// Age is the character's age, when known.
	Age *int `json:"age" db:"age"`

	// Anime is the title of the series the character appears in.
	Anime string `json:"anime" db:"anime"`

	// Hierarchy is the character's rank or standing within its series
	// (e.g., "Hokage", "Captain", "Villain").
	Hierarchy string `json:"hierarchy" db:"hierarchy"`

	// Abilities is a free-form description of the character's powers.
	Abilities string `json:"abilities" db:"abilities"`

	// NotableMoments describes memorable scenes featuring the character.
	NotableMoments string `json:"notable_moments" db:"notable_moments"`

	// PortraitKey is the object-storage key of the character's portrait
	// image, empty when no portrait has been uploaded.
	PortraitKey string `json:"portrait_key,omitempty" db:"portrait_key"`

	// UserID is the ID of the user who owns this record.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp at which the character was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the character.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CharacterFilter narrows character listings and catalog searches.
// Zero values leave the corresponding predicate out of the query.
type CharacterFilter struct {
	// Anime matches characters whose series title contains the value.
	Anime string

	// Hierarchy matches characters whose hierarchy contains the value.
	Hierarchy string

	// Limit caps the number of returned rows. Zero means the default.
	Limit int
}
