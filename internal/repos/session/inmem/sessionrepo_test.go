package inmem

import (
	"testing"
	"time"

	"github.com/haldre/rota/internal/repos"
)

func TestSessionLifecycle(t *testing.T) {
	repo := New()
	defer repo.Close()

	sess, err := repo.CreateFor(42)
	if err != nil {
		t.Fatalf("CreateFor failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Expected a session ID to be generated")
	}
	if sess.UserID != 42 {
		t.Errorf("Expected the session to belong to user #42, got #%d", sess.UserID)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("Expected the session to expire in the future")
	}

	loaded, err := repo.GetByID(sess.ID, false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.UserID != 42 {
		t.Errorf("Expected user #42, got #%d", loaded.UserID)
	}

	if err = repo.Delete(sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err = repo.GetByID(sess.ID, false); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected the session to be gone, got %v", err)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	repo := New()
	defer repo.Close()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		sess, err := repo.CreateFor(1)
		if err != nil {
			t.Fatalf("CreateFor failed: %v", err)
		}
		if seen[sess.ID] {
			t.Fatalf("Duplicate session token generated: %s", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestSessionExtend(t *testing.T) {
	repo := New()
	defer repo.Close()

	sess, err := repo.CreateFor(1)
	if err != nil {
		t.Fatalf("CreateFor failed: %v", err)
	}

	extended, err := repo.GetByID(sess.ID, true)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if extended.ExpiresAt.Before(sess.ExpiresAt) {
		t.Error("Expected the expiry to be pushed out")
	}

	if _, err = repo.GetByID("unknown", false); err != repos.ErrEntityNotExisting {
		t.Errorf("Expected an unknown session to be reported as missing, got %v", err)
	}
}
