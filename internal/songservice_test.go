package internal

import (
	"net/http"
	"testing"

	"github.com/haldre/rota/internal/cache"
	"github.com/haldre/rota/internal/models"
)

func makeSongService(repo *stubSongRepo) SongService {
	logger := testLogger("songservice")
	return NewSongService(repo, cache.New(nil, 0, logger), logger)
}

func TestSongServiceCreate(t *testing.T) {
	repo := newStubSongRepo()
	svc := makeSongService(repo)
	ctx := ctxWithUser(models.User{ID: 5, Role: models.RoleAdmin})

	song, err := svc.Create(ctx, &models.Song{
		Title:  "  Amazing Grace  ",
		Artist: "Traditional",
		Key:    "G",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if song.Title != "Amazing Grace" {
		t.Errorf("Expected the title to be trimmed, got %q", song.Title)
	}
	if song.CreatedBy != 5 {
		t.Errorf("Expected createdBy to be the current user, got %d", song.CreatedBy)
	}

	// An empty title does not validate
	_, err = svc.Create(ctx, &models.Song{Title: "   "})
	requireHTTPError(t, err, http.StatusBadRequest, ErrCodeValidationFailed)

	// A malformed video URL does not validate either
	_, err = svc.Create(ctx, &models.Song{Title: "Test", VideoURL: "not a url"})
	requireHTTPError(t, err, http.StatusBadRequest, ErrCodeValidationFailed)
}

func TestSongServiceGetNotFound(t *testing.T) {
	svc := makeSongService(newStubSongRepo())
	_, err := svc.Get(ctxWithUser(models.User{ID: 1}), 99)
	requireHTTPError(t, err, http.StatusNotFound, ErrCodeSongNotFound)
}

func TestSongServiceListFilters(t *testing.T) {
	repo := newStubSongRepo()
	svc := makeSongService(repo)
	ctx := ctxWithUser(models.User{ID: 1, Role: models.RoleAdmin})

	seed := []models.Song{
		{Title: "Amazing Grace", Artist: "Traditional", Key: "G"},
		{Title: "How Great Thou Art", Artist: "Traditional", Key: "A"},
		{Title: "Oceans", Artist: "Hillsong", Key: "D"},
	}
	for i := range seed {
		if _, err := svc.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	res, err := svc.List(ctx, &SongListRequest{
		PageParams: PageParams{Page: 1, Limit: 10},
		Search:     "Traditional",
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if res.Meta.Total != 2 {
		t.Errorf("Expected 2 matching songs, got %d", res.Meta.Total)
	}

	res, err = svc.List(ctx, &SongListRequest{
		PageParams: PageParams{Page: 1, Limit: 10},
		Search:     "Traditional",
		Key:        "G",
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	songs := res.Data.([]models.Song)
	if len(songs) != 1 || songs[0].Title != "Amazing Grace" {
		t.Errorf("Expected the key filter to narrow the result, got %+v", songs)
	}
}

func TestSongServiceUpdateMerges(t *testing.T) {
	repo := newStubSongRepo()
	svc := makeSongService(repo)
	ctx := ctxWithUser(models.User{ID: 1, Role: models.RoleAdmin})

	song, err := svc.Create(ctx, &models.Song{Title: "Oceans", Artist: "Hillsong", Key: "D"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// An empty title keeps the stored one; the remaining fields are replaced
	updated, err := svc.Update(ctx, &models.Song{ID: song.ID, Key: "C"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Oceans" {
		t.Errorf("Expected the title to be kept, got %q", updated.Title)
	}
	if updated.Key != "C" {
		t.Errorf("Expected the key to be replaced, got %q", updated.Key)
	}

	_, err = svc.Update(ctx, &models.Song{ID: 99, Title: "Ghost"})
	requireHTTPError(t, err, http.StatusNotFound, ErrCodeSongNotFound)
}

func TestSongServiceDelete(t *testing.T) {
	repo := newStubSongRepo()
	svc := makeSongService(repo)
	ctx := ctxWithUser(models.User{ID: 1, Role: models.RoleAdmin})

	song, err := svc.Create(ctx, &models.Song{Title: "Oceans"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err = svc.Delete(ctx, song.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err = svc.Delete(ctx, song.ID)
	requireHTTPError(t, err, http.StatusNotFound, ErrCodeSongNotFound)
}

func TestSongServiceCacheInvalidation(t *testing.T) {
	repo := newStubSongRepo()
	spy := newSpyCache()
	svc := NewSongService(repo, spy, testLogger("songservice"))
	ctx := ctxWithUser(models.User{ID: 1, Role: models.RoleAdmin})

	song, err := svc.Create(ctx, &models.Song{Title: "Oceans", Artist: "Hillsong", Key: "D"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(spy.invalidated) != 1 || spy.invalidated[0] != "songs:*" {
		t.Fatalf("Expected the create to invalidate the song listings, got %v", spy.invalidated)
	}

	// Prime the cache, then make sure an update drops the page and the next
	// read serves the new title
	req := &SongListRequest{PageParams: PageParams{Page: 1, Limit: 10}}
	if _, err = svc.List(ctx, req); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(spy.entries) != 1 {
		t.Fatalf("Expected the page to be cached, got %d entries", len(spy.entries))
	}
	if _, err = svc.Update(ctx, &models.Song{ID: song.ID, Title: "Oceans (Where Feet May Fail)"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(spy.entries) != 0 {
		t.Error("Expected the cached page to be dropped on update")
	}
	res, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	songs, ok := res.Data.([]models.Song)
	if !ok || len(songs) != 1 {
		t.Fatalf("Expected one song on the fresh page, got %v", res.Data)
	}
	if songs[0].Title != "Oceans (Where Feet May Fail)" {
		t.Errorf("Expected the fresh page to carry the new title, got %q", songs[0].Title)
	}

	if err = svc.Delete(ctx, song.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(spy.invalidated) != 3 {
		t.Errorf("Expected every write to invalidate the listings, got %v", spy.invalidated)
	}
}
