// Package sqlite provides an event repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
	"github.com/haldre/rota/internal/schedule"
	"github.com/jmoiron/sqlx"
)

const (
	eventFields = `title, description, date, createdBy, createdAt, updatedAt`
	// Song columns prefixed for the set-list join
	setlistFields = `s.id as id, s.title as title, s.artist as artist, s.key as key, s.videoUrl as videoUrl,
        s.createdBy as createdBy, s.createdAt as createdAt, s.updatedAt as updatedAt, es.position as position`
)

// EventRepo is an event repository that stores its data inside a SQLite database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new event repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new event
func (r *EventRepo) Create(ev *models.Event) error {
	r.logger.WithField("title", ev.Title).Debug("Adding new event")
	query := fmt.Sprintf("INSERT INTO Events(%s) VALUES(?, ?, ?, ?, datetime('now'), datetime('now'))", eventFields)
	res, err := r.db.Exec(query, ev.Title, ev.Description, ev.Date, ev.CreatedBy)
	if err != nil {
		return err
	}
	// Setting the dates like this should be enough for now
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		ev.ID = uint(id)
	}
	return err
}

// Update updates the given event
func (r *EventRepo) Update(ev *models.Event) error {
	r.logger.WithField(log.FldID, ev.ID).Debug("Updating event")
	query := `UPDATE Events SET title = ?, description = ?, date = ?, updatedAt = datetime('now') WHERE id = ?`
	res, err := r.db.Exec(query, ev.Title, ev.Description, ev.Date, ev.ID)
	if err != nil {
		return err
	}
	ev.UpdatedAt = time.Now()
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes the given event together with its set-list entries. Both deletes run
// inside one transaction so no orphaned set-list rows are left behind.
func (r *EventRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting event")
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("Delete: Failed to start transaction: %v", err)
	}
	query := "DELETE FROM Events WHERE id = ?"
	res, err := tx.Exec(query, id)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.DoRollback(tx, repos.ErrEntityNotExisting)
		}
	}
	// Remove all set-list entries belonging to the deleted event
	query = "DELETE FROM EventSongs WHERE eventId = ?"
	if _, err = tx.Exec(query, id); err != nil {
		return repos.DoRollback(tx, fmt.Errorf("Delete: Failed to remove set-list entries: %v", err))
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Delete: Failed to commit transaction: %v", err)
	}
	return nil
}

// GetByID returns the event with the given ID
func (r *EventRepo) GetByID(id uint) (*models.Event, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading event")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE id = ?", eventFields)
	var ev models.Event
	err := r.db.Get(&ev, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &ev, nil
}

// Find lists events newest-first, optionally restricted to a date range - supports pagination
func (r *EventRepo) Find(from, to *time.Time, offset, limit uint) ([]models.Event, uint, error) {
	if limit == 0 {
		limit = 50
	}
	r.logger.WithFields(logrus.Fields{
		log.FldPage:  offset,
		log.FldLimit: limit,
	}).Debug("Listing events")
	// Each bound applies on its own, with inclusive calendar-day semantics
	where := "1 = 1"
	params := []interface{}{}
	if from != nil {
		where += " AND date >= ?"
		params = append(params, schedule.DayStart(*from))
	}
	if to != nil {
		where += " AND date <= ?"
		params = append(params, schedule.DayEnd(*to))
	}
	query := fmt.Sprintf(`SELECT id, %s FROM Events WHERE %s ORDER BY createdAt DESC, id DESC LIMIT ? OFFSET ?`,
		eventFields, where)
	var ret []models.Event
	err := r.db.Select(&ret, query, append(params, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	// Query the full count
	query = fmt.Sprintf(`SELECT COUNT(*) FROM Events WHERE %s`, where)
	var numRows uint
	if err = r.db.Get(&numRows, query, params...); err != nil {
		return nil, 0, err
	}
	return ret, numRows, nil
}

// ListSongs returns the event's set list in playback order. Positions are
// string-encoded integers, so they are compared numerically; ties keep insertion
// order.
func (r *EventRepo) ListSongs(eventID uint) ([]models.EventSongDetail, error) {
	r.logger.WithField(log.FldEvent, eventID).Debug("Listing set list")
	query := fmt.Sprintf(`SELECT %s FROM EventSongs es
        INNER JOIN Songs s ON s.id = es.songId
        WHERE es.eventId = ?
        ORDER BY CAST(es.position AS INTEGER) ASC, es.id ASC`, setlistFields)
	var ret []models.EventSongDetail
	if err := r.db.Select(&ret, query, eventID); err != nil {
		return nil, err
	}
	return ret, nil
}

// AddSong attaches a song to the event's set list. The event and song existence
// checks, the duplicate check and the insert all run inside one transaction.
func (r *EventRepo) AddSong(entry *models.EventSong) error {
	r.logger.WithFields(logrus.Fields{
		log.FldEvent: entry.EventID,
		log.FldSong:  entry.SongID,
	}).Debug("Adding song to set list")
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("AddSong: Failed to start transaction: %v", err)
	}
	var num uint
	if err = tx.Get(&num, `SELECT COUNT(*) FROM Events WHERE id = ?`, entry.EventID); err != nil {
		return repos.DoRollback(tx, fmt.Errorf("AddSong: Failed to check event: %v", err))
	}
	if num == 0 {
		return repos.DoRollback(tx, repos.ErrEntityNotExisting)
	}
	if err = tx.Get(&num, `SELECT COUNT(*) FROM Songs WHERE id = ?`, entry.SongID); err != nil {
		return repos.DoRollback(tx, fmt.Errorf("AddSong: Failed to check song: %v", err))
	}
	if num == 0 {
		return repos.DoRollback(tx, repos.ErrEntityNotExisting)
	}
	query := `SELECT COUNT(*) FROM EventSongs WHERE eventId = ? AND songId = ?`
	if err = tx.Get(&num, query, entry.EventID, entry.SongID); err != nil {
		return repos.DoRollback(tx, fmt.Errorf("AddSong: Failed to check for duplicate entry: %v", err))
	}
	if num > 0 {
		return repos.DoRollback(tx, repos.ErrDuplicateEntry)
	}
	query = `INSERT INTO EventSongs(eventId, songId, position, createdAt) VALUES(?, ?, ?, datetime('now'))`
	res, err := tx.Exec(query, entry.EventID, entry.SongID, entry.Position)
	if err != nil {
		return repos.DoRollback(tx, fmt.Errorf("AddSong: Failed to create entry: %v", err))
	}
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		entry.ID = uint(id)
	}
	entry.CreatedAt = time.Now()
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("AddSong: Failed to commit transaction: %v", err)
	}
	return nil
}

// RemoveSong detaches a song from the event's set list
func (r *EventRepo) RemoveSong(eventID, songID uint) error {
	r.logger.WithFields(logrus.Fields{
		log.FldEvent: eventID,
		log.FldSong:  songID,
	}).Debug("Removing song from set list")
	query := "DELETE FROM EventSongs WHERE eventId = ? AND songId = ?"
	res, err := r.db.Exec(query, eventID, songID)
	if err != nil {
		return err
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}
