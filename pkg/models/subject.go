package models

// Subject is a static catalog entry. Color holds the two gradient stops the
// subject card is rendered with; it is stored JSON-encoded in the database.
type Subject struct {
	ID          string   `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Icon        string   `json:"icon" db:"icon"`
	Color       []string `json:"color" db:"-"`
	Description string   `json:"description" db:"description"`
}
