package sqlite

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/migrate"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
)

// openTestDB opens a fresh in-memory database with all migrations applied
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Opening the test database failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err = migrate.ExecuteMigrationsOnDb(db, logrus.WithField("test", t.Name())); err != nil {
		t.Fatalf("Running the migrations failed: %v", err)
	}
	return db
}

// addTestSong inserts a song directly and returns its ID
func addTestSong(t *testing.T, db *sqlx.DB, title string) uint {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO Songs(title, artist, key, videoUrl, createdBy, createdAt, updatedAt)
         VALUES(?, '', '', '', 0, datetime('now'), datetime('now'))`, title)
	if err != nil {
		t.Fatalf("Inserting the test song failed: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Reading the song ID failed: %v", err)
	}
	return uint(id)
}

func TestEventRepoCRUD(t *testing.T) {
	db := openTestDB(t)
	repo := New(db, logrus.WithField("test", t.Name()))

	ev := models.Event{
		Title:       "Sunday service",
		Description: "Morning",
		Date:        time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(&ev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ev.ID == 0 {
		t.Fatal("Expected an ID to be assigned")
	}

	loaded, err := repo.GetByID(ev.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Title != "Sunday service" {
		t.Errorf("Unexpected title: %q", loaded.Title)
	}

	loaded.Title = "Evening service"
	if err = repo.Update(loaded); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if loaded, err = repo.GetByID(ev.ID); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Title != "Evening service" {
		t.Errorf("Expected the update to stick, got %q", loaded.Title)
	}

	// Updating or loading an unknown event reports a missing entity
	if err = repo.Update(&models.Event{ID: 99, Title: "Ghost"}); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected ErrEntityNotExisting, got %v", err)
	}
	if _, err = repo.GetByID(99); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected ErrEntityNotExisting, got %v", err)
	}
}

func TestEventRepoFindRange(t *testing.T) {
	db := openTestDB(t)
	repo := New(db, logrus.WithField("test", t.Name()))

	for day := 1; day <= 5; day++ {
		ev := models.Event{
			Title: "Event",
			Date:  time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC),
		}
		if err := repo.Create(&ev); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, total, err := repo.Find(nil, nil, 0, 10)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if total != 5 || len(all) != 5 {
		t.Errorf("Expected 5 events, got %d of %d", len(all), total)
	}

	from := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	ranged, total, err := repo.Find(&from, &to, 0, 10)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected 3 events in range, got %d", total)
	}
	for _, ev := range ranged {
		if ev.Date.Before(from) || ev.Date.After(to) {
			t.Errorf("Event on %v lies outside the requested range", ev.Date)
		}
	}

	// Each bound also filters on its own
	if _, total, err = repo.Find(&from, nil, 0, 10); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if total != 4 {
		t.Errorf("Expected 4 events from the lower bound on, got %d", total)
	}
	if _, total, err = repo.Find(nil, &to, 0, 10); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if total != 4 {
		t.Errorf("Expected 4 events up to the upper bound, got %d", total)
	}

	// Bounds cover their whole calendar day, so a midday lower bound still
	// matches an event stored at midnight of the same day
	noon := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	if _, total, err = repo.Find(&noon, nil, 0, 10); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 events from midday on, got %d", total)
	}
}

func TestEventRepoSetlist(t *testing.T) {
	db := openTestDB(t)
	repo := New(db, logrus.WithField("test", t.Name()))

	ev := models.Event{Title: "Rehearsal", Date: time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)}
	if err := repo.Create(&ev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	first := addTestSong(t, db, "First")
	second := addTestSong(t, db, "Second")

	// Positions are compared numerically, so "10" sorts after "2"
	if err := repo.AddSong(&models.EventSong{EventID: ev.ID, SongID: second, Position: "10"}); err != nil {
		t.Fatalf("AddSong failed: %v", err)
	}
	if err := repo.AddSong(&models.EventSong{EventID: ev.ID, SongID: first, Position: "2"}); err != nil {
		t.Fatalf("AddSong failed: %v", err)
	}

	list, err := repo.ListSongs(ev.ID)
	if err != nil {
		t.Fatalf("ListSongs failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 set-list entries, got %d", len(list))
	}
	if list[0].Title != "First" || list[1].Title != "Second" {
		t.Errorf("Unexpected set-list order: %q, %q", list[0].Title, list[1].Title)
	}

	// Duplicates and unknown references are rejected
	if err = repo.AddSong(&models.EventSong{EventID: ev.ID, SongID: first, Position: "3"}); err != repos.ErrDuplicateEntry {
		t.Errorf("Expected ErrDuplicateEntry, got %v", err)
	}
	if err = repo.AddSong(&models.EventSong{EventID: 99, SongID: first, Position: "3"}); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected ErrEntityNotExisting for an unknown event, got %v", err)
	}
	if err = repo.AddSong(&models.EventSong{EventID: ev.ID, SongID: 99, Position: "3"}); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected ErrEntityNotExisting for an unknown song, got %v", err)
	}

	if err = repo.RemoveSong(ev.ID, first); err != nil {
		t.Fatalf("RemoveSong failed: %v", err)
	}
	if err = repo.RemoveSong(ev.ID, first); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected ErrEntityNotExisting, got %v", err)
	}
}

func TestEventRepoDeleteCascades(t *testing.T) {
	db := openTestDB(t)
	repo := New(db, logrus.WithField("test", t.Name()))

	ev := models.Event{Title: "Doomed", Date: time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)}
	if err := repo.Create(&ev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	songID := addTestSong(t, db, "Orphan candidate")
	if err := repo.AddSong(&models.EventSong{EventID: ev.ID, SongID: songID, Position: "1"}); err != nil {
		t.Fatalf("AddSong failed: %v", err)
	}

	if err := repo.Delete(ev.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ev.ID); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected the event to be gone, got %v", err)
	}
	var num int
	if err := db.Get(&num, `SELECT COUNT(*) FROM EventSongs WHERE eventId = ?`, ev.ID); err != nil {
		t.Fatalf("Counting set-list rows failed: %v", err)
	}
	if num != 0 {
		t.Errorf("Expected no orphaned set-list rows, got %d", num)
	}

	if err := repo.Delete(99); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected ErrEntityNotExisting, got %v", err)
	}
}
