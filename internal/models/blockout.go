package models

import (
	"time"

	"github.com/haldre/rota/internal/schedule"
)

// Blockout is a date range during which a user declares themselves unavailable.
// Both day bounds are inclusive; StartDate must not be after EndDate.
type Blockout struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// The user this blockout belongs to
	UserID uint `db:"userId" json:"userId"`
	// First day of the unavailability window
	StartDate time.Time `db:"startDate" json:"startDate" validate:"required"`
	// Last day of the unavailability window - inclusive up to the end of the day
	EndDate time.Time `db:"endDate" json:"endDate" validate:"required"`
	// An optional free-text reason
	Reason string `db:"reason" json:"reason,omitempty"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}

// Status classifies the blockout relative to the given reference time
func (b *Blockout) Status(now time.Time) schedule.Status {
	return schedule.StatusOf(now, b.StartDate, b.EndDate)
}

// Overlaps checks whether the blockout intersects the probe interval with inclusive
// calendar-day semantics on both ends
func (b *Blockout) Overlaps(probeStart, probeEnd time.Time) bool {
	return schedule.Overlaps(b.StartDate, b.EndDate, probeStart, probeEnd)
}
