// Package repos contains the repository interfaces needed in Rota
// It exists to prevent circular dependencies between rota and the repo implementations
package repos

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/haldre/rota/internal/models"
)

var (
	// ErrEntityNotExisting is fired by a repository when an entity that is queried, updated or deleted does not exist
	ErrEntityNotExisting = fmt.Errorf("cannot update: Entity does not exist")
	// ErrDuplicateEntry is fired by a repository when an insert would violate a uniqueness constraint
	ErrDuplicateEntry = fmt.Errorf("cannot create: Entity does already exist")
)

// EventRepo defines a repository that handles storing and querying events and their set lists
type EventRepo interface {
	// Create creates a new event
	Create(ev *models.Event) error
	// Update updates the given event
	Update(ev *models.Event) error
	// Delete removes the given event together with its set-list entries
	Delete(id uint) error
	// GetByID returns the event with the given ID
	GetByID(id uint) (*models.Event, error)
	// Find lists events newest-first, optionally restricted to a date range - supports pagination
	Find(from, to *time.Time, offset, limit uint) ([]models.Event, uint, error)
	// ListSongs returns the event's set list in playback order
	ListSongs(eventID uint) ([]models.EventSongDetail, error)
	// AddSong attaches a song to the event's set list. The existence checks and the
	// insert run inside one transaction
	AddSong(entry *models.EventSong) error
	// RemoveSong detaches a song from the event's set list
	RemoveSong(eventID, songID uint) error
}

// SongRepo defines a repository that handles storing and querying the song catalog
type SongRepo interface {
	// Create creates a new song
	Create(s *models.Song) error
	// Update updates an existing song
	Update(s *models.Song) error
	// Delete removes an existing song from the catalog
	Delete(id uint) error
	// GetByID returns the song with the given ID
	GetByID(id uint) (*models.Song, error)
	// Find searches for songs matching the given search string and key, title-ascending - supports pagination
	Find(search, key string, offset, limit uint) ([]models.Song, uint, error)
}

// BlockoutRepo defines a repository that stores the members' unavailability windows
type BlockoutRepo interface {
	// Create creates a new blockout
	Create(b *models.Blockout) error
	// Update updates an existing blockout
	Update(b *models.Blockout) error
	// Delete removes an existing blockout
	Delete(id uint) error
	// GetByID returns the blockout with the given ID
	GetByID(id uint) (*models.Blockout, error)
	// Find lists blockouts sorted by start date ascending - supports pagination.
	// A userID of 0 lists all users' blockouts; from/to restrict the result to
	// windows intersecting the given range.
	Find(userID uint, from, to *time.Time, offset, limit uint) ([]models.Blockout, uint, error)
	// FindOverlapping returns all blockouts that intersect the given interval
	FindOverlapping(start, end time.Time) ([]models.Blockout, error)
}

// UserRepo defines a repository that is able to store, query and authenticate users
type UserRepo interface {
	// Create creates a new user
	Create(u *models.User) error
	// Update updates an existing user
	Update(u *models.User) error
	// Delete removes an existing user from the user storage
	Delete(id uint) error
	// GetByID returns the user with the given ID
	GetByID(id uint) (*models.User, error)
	// GetByEmail returns the user with the given email address
	GetByEmail(email string) (*models.User, error)
	// GetByCredentials returns the user which has the given email and password - this is used for login.
	// A failed match returns (nil, nil).
	GetByCredentials(email string, password string) (*models.User, error)
	// Find searches for users matching the given search string - supports pagination
	Find(search string, offset, limit uint) ([]models.User, uint, error)
	// Count returns the total number of users in the storage
	Count() (uint, error)
}

// SessionRepo stores information about active API sessions
type SessionRepo interface {
	// CreateFor creates a new session for the given user ID
	CreateFor(userID uint) (*models.Session, error)
	// GetByID returns the session associated with the given session ID and extends it's expiry if requested
	GetByID(sessionID string, extend bool) (*models.Session, error)
	// Delete removes a session from the session storage
	Delete(sessionID string) error
}

// -- Helpers for SQLX repos -------------------------------------------------------------------------------------------

// DoRollback rolls back a transaction and catches any error resulting from it while appending the original error
func DoRollback(tx *sqlx.Tx, originalError error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("doRollback: Transaction rollback failed: %v; Recent error: %v", err, originalError)
	}
	return originalError
}
