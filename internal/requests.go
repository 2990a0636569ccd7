package internal

import "time"

// -- Request data -----------------------------------------------------------------------------------------------------

// EventListRequest describes a paginated event listing with an optional date range filter
type EventListRequest struct {
	PageParams
	// Only return events on or after this date
	From *time.Time
	// Only return events on or before this date
	To *time.Time
}

// SongListRequest describes a paginated song search
type SongListRequest struct {
	PageParams
	// The string to search for in title and artist
	Search string
	// Only return songs in this musical key
	Key string
}

// BlockoutListRequest describes a paginated blockout listing
type BlockoutListRequest struct {
	PageParams
	// Request windows of all users instead of only the requester's own.
	// Has no effect for non-admin users.
	All bool
	// Only return windows overlapping the range starting at this date
	From *time.Time
	// Only return windows overlapping the range ending at this date
	To *time.Time
}

// UserListRequest describes a paginated user search
type UserListRequest struct {
	PageParams
	// The string to search for in email and name fields
	Search string
}

// LoginRequest holds the credentials sent by a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetlistAddRequest describes a request to add a song to an event's set list.
// The position is carried as "order" on the wire.
type SetlistAddRequest struct {
	SongID   uint   `json:"songId"`
	Position string `json:"order"`
}
