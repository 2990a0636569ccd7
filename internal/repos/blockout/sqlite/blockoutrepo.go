// Package sqlite provides a blockout repository backed by a SQLite database
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
	blockoutFields = `userId, startDate, endDate, reason, createdAt, updatedAt`
)

// BlockoutRepo is a blockout repository that stores its data inside a SQLite database
type BlockoutRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new blockout repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *BlockoutRepo {
	return &BlockoutRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new blockout window
func (r *BlockoutRepo) Create(b *models.Blockout) error {
	r.logger.WithField(log.FldUser, b.UserID).Debug("Adding new blockout")
	query := fmt.Sprintf("INSERT INTO Blockouts(%s) VALUES(?, ?, ?, ?, datetime('now'), datetime('now'))", blockoutFields)
	res, err := r.db.Exec(query, b.UserID, b.StartDate, b.EndDate, b.Reason)
	if err != nil {
		return err
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		b.ID = uint(id)
	}
	return err
}

// Update updates an existing blockout window
func (r *BlockoutRepo) Update(b *models.Blockout) error {
	r.logger.WithField(log.FldID, b.ID).Debug("Updating blockout")
	query := `UPDATE Blockouts SET startDate = ?, endDate = ?, reason = ?, updatedAt = datetime('now') WHERE id = ?`
	res, err := r.db.Exec(query, b.StartDate, b.EndDate, b.Reason, b.ID)
	if err != nil {
		return err
	}
	b.UpdatedAt = time.Now()
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes an existing blockout window
func (r *BlockoutRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting blockout")
	res, err := r.db.Exec("DELETE FROM Blockouts WHERE id = ?", id)
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

// GetByID returns the blockout with the given ID
func (r *BlockoutRepo) GetByID(id uint) (*models.Blockout, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading blockout")
	query := fmt.Sprintf("SELECT id, %s FROM Blockouts WHERE id = ?", blockoutFields)
	var b models.Blockout
	err := r.db.Get(&b, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &b, nil
}

// Find returns blockout windows, optionally restricted to one user and/or a date range.
// A userID of 0 returns windows for all users. A window matches the range when it
// overlaps it, not only when it lies fully inside. Supports pagination; results are
// sorted by start date ascending.
func (r *BlockoutRepo) Find(userID uint, from, to *time.Time, offset, limit uint) ([]models.Blockout, uint, error) {
	if limit == 0 {
		limit = 50
	}
	r.logger.WithFields(logrus.Fields{
		log.FldUser:  userID,
		log.FldLimit: limit,
	}).Debug("Searching for blockouts")
	where := `1 = 1`
	var params []interface{}
	if userID != 0 {
		where += ` AND userId = ?`
		params = append(params, userID)
	}
	if from != nil {
		where += ` AND endDate >= ?`
		params = append(params, schedule.DayStart(*from))
	}
	if to != nil {
		where += ` AND startDate <= ?`
		params = append(params, schedule.DayEnd(*to))
	}
	query := fmt.Sprintf(`SELECT id, %s FROM Blockouts WHERE %s ORDER BY startDate ASC, id ASC LIMIT ? OFFSET ?`,
		blockoutFields, where)
	var ret []models.Blockout
	err := r.db.Select(&ret, query, append(params, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	// Query the full count
	query = fmt.Sprintf(`SELECT COUNT(*) FROM Blockouts WHERE %s`, where)
	var numRows uint
	if err = r.db.Get(&numRows, query, params...); err != nil {
		return nil, 0, err
	}
	return ret, numRows, nil
}

// FindOverlapping returns all blockout windows that overlap the given range with
// inclusive calendar-day semantics, regardless of owner. Used for resolving who is
// available for an event.
func (r *BlockoutRepo) FindOverlapping(start, end time.Time) ([]models.Blockout, error) {
	r.logger.Debug("Loading overlapping blockouts")
	query := fmt.Sprintf(`SELECT id, %s FROM Blockouts WHERE endDate >= ? AND startDate <= ? ORDER BY userId ASC, startDate ASC`,
		blockoutFields)
	var ret []models.Blockout
	if err := r.db.Select(&ret, query, schedule.DayStart(start), schedule.DayEnd(end)); err != nil {
		return nil, err
	}
	return ret, nil
}
