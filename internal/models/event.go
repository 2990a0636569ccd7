package models

import "time"

// Event describes a scheduled occurrence - a service or rehearsal - with an
// assignable song set list
type Event struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// Title of the event
	Title string `db:"title" json:"title" validate:"required"`
	// A little description of the event
	Description string `db:"description" json:"description,omitempty"`
	// When does/did the event take place?
	Date time.Time `db:"date" json:"date" validate:"required"`
	// The ID of the user that created this event
	CreatedBy uint `db:"createdBy" json:"createdBy"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}
