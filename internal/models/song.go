package models

import "time"

// Song is an entry of the assignable song catalog. Songs exist independently of any
// event scheduling and are attached to events via set-list entries.
type Song struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// Title of the song
	Title string `db:"title" json:"title" validate:"required"`
	// The performing artist
	Artist string `db:"artist" json:"artist,omitempty"`
	// The musical key the song is played in
	Key string `db:"key" json:"key,omitempty"`
	// Link to a reference recording
	VideoURL string `db:"videoUrl" json:"videoUrl,omitempty" validate:"omitempty,url"`
	// The ID of the user that created this song
	CreatedBy uint `db:"createdBy" json:"createdBy"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}
