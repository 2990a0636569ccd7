// Package sqlite provides a song repository that stores the catalog inside a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
	"github.com/jmoiron/sqlx"
)

const (
	songFields = `title, artist, key, videoUrl, createdBy, createdAt, updatedAt`
)

// SongRepo is a song repository that stores its data inside a SQLite database
type SongRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new song repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *SongRepo {
	return &SongRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new song
func (r *SongRepo) Create(s *models.Song) error {
	r.logger.WithField("title", s.Title).Debug("Adding new song")
	query := fmt.Sprintf("INSERT INTO Songs(%s) VALUES(?, ?, ?, ?, ?, datetime('now'), datetime('now'))", songFields)
	res, err := r.db.Exec(query, s.Title, s.Artist, s.Key, s.VideoURL, s.CreatedBy)
	if err != nil {
		return err
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		s.ID = uint(id)
	}
	return err
}

// Update updates an existing song
func (r *SongRepo) Update(s *models.Song) error {
	r.logger.WithField(log.FldID, s.ID).Debug("Updating song")
	query := `UPDATE Songs SET title = ?, artist = ?, key = ?, videoUrl = ?, updatedAt = datetime('now') WHERE id = ?`
	res, err := r.db.Exec(query, s.Title, s.Artist, s.Key, s.VideoURL, s.ID)
	if err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes an existing song from the catalog. Set-list references to the song
// are removed in the same transaction.
func (r *SongRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting song")
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("Delete: Failed to start transaction: %v", err)
	}
	res, err := tx.Exec("DELETE FROM Songs WHERE id = ?", id)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.DoRollback(tx, repos.ErrEntityNotExisting)
		}
	}
	if _, err = tx.Exec("DELETE FROM EventSongs WHERE songId = ?", id); err != nil {
		return repos.DoRollback(tx, fmt.Errorf("Delete: Failed to remove set-list entries: %v", err))
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Delete: Failed to commit transaction: %v", err)
	}
	return nil
}

// GetByID returns the song with the given ID
func (r *SongRepo) GetByID(id uint) (*models.Song, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading song")
	query := fmt.Sprintf("SELECT id, %s FROM Songs WHERE id = ?", songFields)
	var s models.Song
	err := r.db.Get(&s, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &s, nil
}

// Find searches for songs matching the given search string and key - supports pagination.
// Results are sorted by title ascending.
func (r *SongRepo) Find(search, key string, offset, limit uint) ([]models.Song, uint, error) {
	if limit == 0 {
		limit = 50
	}
	r.logger.WithFields(logrus.Fields{
		log.FldSearch: search,
		log.FldLimit:  limit,
	}).Debug("Searching for song")
	// For now, we're using a simple LIKE search
	search = "%" + search + "%"
	where := `(title LIKE ? OR artist LIKE ?)`
	params := []interface{}{search, search}
	if key != "" {
		where += ` AND key = ?`
		params = append(params, key)
	}
	query := fmt.Sprintf(`SELECT id, %s FROM Songs WHERE %s ORDER BY title ASC, id ASC LIMIT ? OFFSET ?`,
		songFields, where)
	var ret []models.Song
	err := r.db.Select(&ret, query, append(params, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	// Query the full count
	query = fmt.Sprintf(`SELECT COUNT(*) FROM Songs WHERE %s`, where)
	var numRows uint
	if err = r.db.Get(&numRows, query, params...); err != nil {
		return nil, 0, err
	}
	return ret, numRows, nil
}
