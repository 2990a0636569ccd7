// Package sqlite provides a user repository backed by a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
	"github.com/jmoiron/sqlx"
)

const (
	userFields = `email, firstName, lastName, passwordHash, role, createdAt, updatedAt`
)

// UserRepo is a user repository that stores its data inside a SQLite database
type UserRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new user repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *UserRepo {
	return &UserRepo{
		db:     db,
		logger: logger,
	}
}

// isUniqueViolation checks whether the given error was caused by a UNIQUE constraint
func isUniqueViolation(err error) bool {
	if serr, ok := err.(sqlite3.Error); ok {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// Create creates a new user account
func (r *UserRepo) Create(u *models.User) error {
	r.logger.WithField(log.FldUser, u.Email).Debug("Adding new user")
	query := fmt.Sprintf("INSERT INTO Users(%s) VALUES(?, ?, ?, ?, ?, datetime('now'), datetime('now'))", userFields)
	res, err := r.db.Exec(query, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return repos.ErrDuplicateEntry
		}
		return err
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		u.ID = uint(id)
	}
	return err
}

// Update updates an existing user account
func (r *UserRepo) Update(u *models.User) error {
	r.logger.WithField(log.FldID, u.ID).Debug("Updating user")
	query := `UPDATE Users SET email = ?, firstName = ?, lastName = ?, passwordHash = ?, role = ?, updatedAt = datetime('now') WHERE id = ?`
	res, err := r.db.Exec(query, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repos.ErrDuplicateEntry
		}
		return err
	}
	u.UpdatedAt = time.Now()
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes an existing user account. The user's blockout windows are removed
// in the same transaction.
func (r *UserRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting user")
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("Delete: Failed to start transaction: %v", err)
	}
	res, err := tx.Exec("DELETE FROM Users WHERE id = ?", id)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.DoRollback(tx, repos.ErrEntityNotExisting)
		}
	}
	if _, err = tx.Exec("DELETE FROM Blockouts WHERE userId = ?", id); err != nil {
		return repos.DoRollback(tx, fmt.Errorf("Delete: Failed to remove blockouts: %v", err))
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Delete: Failed to commit transaction: %v", err)
	}
	return nil
}

// GetByID returns the user with the given ID
func (r *UserRepo) GetByID(id uint) (*models.User, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading user")
	query := fmt.Sprintf("SELECT id, %s FROM Users WHERE id = ?", userFields)
	var u models.User
	err := r.db.Get(&u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user with the given email address
func (r *UserRepo) GetByEmail(email string) (*models.User, error) {
	r.logger.WithField(log.FldUser, email).Debug("Loading user by email")
	query := fmt.Sprintf("SELECT id, %s FROM Users WHERE email = ?", userFields)
	var u models.User
	err := r.db.Get(&u, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &u, nil
}

// GetByCredentials returns the user which matches the given login credentials.
// When no user matches, (nil, nil) is returned so that a caller cannot tell
// a wrong password from an unknown email address.
func (r *UserRepo) GetByCredentials(email, password string) (*models.User, error) {
	u, err := r.GetByEmail(email)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, nil
		}
		return nil, err
	}
	if err = u.CheckPassword(password); err != nil {
		return nil, nil
	}
	return u, nil
}

// Find searches for users matching the given search string - supports pagination.
// Results are sorted by last name ascending.
func (r *UserRepo) Find(search string, offset, limit uint) ([]models.User, uint, error) {
	if limit == 0 {
		limit = 50
	}
	r.logger.WithFields(logrus.Fields{
		log.FldSearch: search,
		log.FldLimit:  limit,
	}).Debug("Searching for users")
	search = "%" + search + "%"
	query := fmt.Sprintf(`SELECT id, %s FROM Users
	WHERE email LIKE ? OR firstName LIKE ? OR lastName LIKE ?
	ORDER BY lastName ASC, firstName ASC, id ASC LIMIT ? OFFSET ?`, userFields)
	var ret []models.User
	err := r.db.Select(&ret, query, search, search, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	// Query the full count
	query = `SELECT COUNT(*) FROM Users WHERE email LIKE ? OR firstName LIKE ? OR lastName LIKE ?`
	var numRows uint
	if err = r.db.Get(&numRows, query, search, search, search); err != nil {
		return nil, 0, err
	}
	return ret, numRows, nil
}

// Count returns the total number of user accounts
func (r *UserRepo) Count() (uint, error) {
	var num uint
	if err := r.db.Get(&num, "SELECT COUNT(*) FROM Users"); err != nil {
		return 0, err
	}
	return num, nil
}
