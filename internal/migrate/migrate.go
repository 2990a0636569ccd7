// Package migrate handles SQL database migration for the internal Rota database
package migrate

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var migrations []dbMigration

type dbMigration struct {
	Version uint
	Queries []string
}

// Execute runs the current DB migration on the given database
func (mig *dbMigration) Execute(db *sqlx.DB, logger *logrus.Entry) error {
	// Check if the migration has already run
	query := `SELECT success FROM Migrations WHERE version = $1`
	var success = false
	err := db.QueryRow(query, mig.Version).Scan(&success)
	if err != nil {
		switch {
		case err != sql.ErrNoRows:
			logger.WithError(err).Error("Failed to fetch version information")
			return err
		}
	}
	if !success {
		// We need to execute this migration
		logger.Infof("Executing DB migration #%d", mig.Version)
		for i, query := range mig.Queries {
			logger.Infof("Query %d of %d...", (i + 1), len(mig.Queries))
			if _, err := db.Exec(query); err != nil {
				logger.WithError(err).Errorf("Query #%d failed", (i + 1))
				db.Exec(`REPLACE INTO Migrations(version, success) VALUES($1, 0)`, mig.Version)
				return err
			}
		}
		// Queries executed successfully - save our status
		db.Exec(`REPLACE INTO Migrations(version, success) VALUES($1, 1)`, mig.Version)
	}
	return nil
}

// ExecuteMigrationsOnDb executes the database migrations on the given database instance
func ExecuteMigrationsOnDb(db *sqlx.DB, logger *logrus.Entry) error {
	// Create the migrations table if it does not exist, yet
	query := `CREATE TABLE IF NOT EXISTS Migrations (
                version   INTEGER NOT NULL,
                success   INTEGER NOT NULL DEFAULT 0,
                PRIMARY KEY(version)
            )`
	if _, err := db.Exec(query); err != nil {
		logger.WithError(err).Error("Failed to create migrations table")
		return err
	}
	for _, mig := range migrations {
		if err := mig.Execute(db, logger); err != nil {
			logger.WithError(err).Errorf("Failed to execute migration #%d", mig.Version)
			return err
		}
	}
	return nil
}

// For now, the migrations are part of the package...
func init() {
	migrations = []dbMigration{
		{
			Version: 1,
			Queries: []string{
				`CREATE TABLE "Users" (
                    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
                    email VARCHAR(255) NOT NULL UNIQUE,
                    firstName VARCHAR(128) NOT NULL DEFAULT '',
                    lastName VARCHAR(128) NOT NULL DEFAULT '',
                    passwordHash VARCHAR(128) NOT NULL DEFAULT '',
                    role VARCHAR(16) NOT NULL DEFAULT 'user',
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE TABLE "Events" (
                    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
                    title VARCHAR(128) NOT NULL DEFAULT '',
                    description TEXT NOT NULL DEFAULT '',
                    date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    createdBy INTEGER NOT NULL DEFAULT 0,
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE TABLE "Songs" (
                    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
                    title VARCHAR(128) NOT NULL DEFAULT '',
                    artist VARCHAR(128) NOT NULL DEFAULT '',
                    key VARCHAR(16) NOT NULL DEFAULT '',
                    videoUrl VARCHAR(255) NOT NULL DEFAULT '',
                    createdBy INTEGER NOT NULL DEFAULT 0,
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE TABLE "Blockouts" (
                    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
                    userId INTEGER NOT NULL,
                    startDate DATETIME NOT NULL,
                    endDate DATETIME NOT NULL,
                    reason VARCHAR(255) NOT NULL DEFAULT '',
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
			},
		},
		{
			Version: 2,
			Queries: []string{
				`CREATE TABLE "EventSongs" (
                    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
                    eventId INTEGER NOT NULL,
                    songId INTEGER NOT NULL,
                    position VARCHAR(16) NOT NULL DEFAULT '',
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE UNIQUE INDEX idx_eventsong_unique ON EventSongs (eventId ASC, songId ASC);`,
			},
		},
		{
			Version: 3,
			Queries: []string{
				`CREATE INDEX idx_event_date ON Events (date DESC);`,
				`CREATE INDEX idx_blockout_user ON Blockouts (userId ASC);`,
				`CREATE INDEX idx_blockout_range ON Blockouts (startDate ASC, endDate ASC);`,
				`CREATE INDEX idx_song_title ON Songs (title ASC);`,
			},
		},
	}
}
