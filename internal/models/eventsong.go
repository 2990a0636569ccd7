package models

import "time"

// An EventSong links a song from the catalog to an event's set list.
// The (EventID, SongID) pair is unique per event; Position establishes the playback
// sequence, ties broken by insertion order.
type EventSong struct {
	// Internal ID of the set-list entry
	ID uint `db:"id" json:"id"`
	// The event the entry belongs to
	EventID uint `db:"eventId" json:"eventId"`
	// The song that has been assigned
	SongID uint `db:"songId" json:"songId" validate:"required"`
	// The position of the entry inside the set list - a string-encoded integer,
	// carried as "order" on the wire
	Position string `db:"position" json:"order"`
	// Creation timestamp of the entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
}

// An EventSongDetail contains the set-list position together with the full song data.
// This variant is used when showing an event's set list to the user.
type EventSongDetail struct {
	Song
	// The position of the song inside the set list
	Position string `db:"position" json:"order"`
}
