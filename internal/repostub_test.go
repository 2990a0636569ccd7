package internal

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
)

// Shared in-memory repository stubs for the service tests

func testLogger(name string) *logrus.Entry {
	return logrus.WithField("test", name)
}

func ctxWithUser(u models.User) context.Context {
	return context.WithValue(context.Background(), ctxhelper.KeyUser, u)
}

// -- Event repo stub --------------------------------------------------------------------------------------------------

type stubEventRepo struct {
	events  map[uint]models.Event
	songs   map[uint]bool
	setlist []models.EventSong
	nextID  uint
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{events: map[uint]models.Event{}, songs: map[uint]bool{}, nextID: 1}
}

func (r *stubEventRepo) Create(ev *models.Event) error {
	ev.ID = r.nextID
	r.nextID++
	r.events[ev.ID] = *ev
	return nil
}

func (r *stubEventRepo) Update(ev *models.Event) error {
	if _, ok := r.events[ev.ID]; !ok {
		return repos.ErrEntityNotExisting
	}
	r.events[ev.ID] = *ev
	return nil
}

func (r *stubEventRepo) Delete(id uint) error {
	if _, ok := r.events[id]; !ok {
		return repos.ErrEntityNotExisting
	}
	delete(r.events, id)
	var kept []models.EventSong
	for _, es := range r.setlist {
		if es.EventID != id {
			kept = append(kept, es)
		}
	}
	r.setlist = kept
	return nil
}

func (r *stubEventRepo) GetByID(id uint) (*models.Event, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, repos.ErrEntityNotExisting
	}
	return &ev, nil
}

func (r *stubEventRepo) Find(from, to *time.Time, offset, limit uint) ([]models.Event, uint, error) {
	var all []models.Event
	for _, ev := range r.events {
		if from != nil && ev.Date.Before(*from) {
			continue
		}
		if to != nil && ev.Date.After(*to) {
			continue
		}
		all = append(all, ev)
	}
	total := uint(len(all))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *stubEventRepo) ListSongs(eventID uint) ([]models.EventSongDetail, error) {
	var ret []models.EventSongDetail
	for _, es := range r.setlist {
		if es.EventID == eventID {
			ret = append(ret, models.EventSongDetail{
				Song:     models.Song{ID: es.SongID},
				Position: es.Position,
			})
		}
	}
	return ret, nil
}

func (r *stubEventRepo) AddSong(entry *models.EventSong) error {
	if _, ok := r.events[entry.EventID]; !ok {
		return repos.ErrEntityNotExisting
	}
	if !r.songs[entry.SongID] {
		return repos.ErrEntityNotExisting
	}
	for _, es := range r.setlist {
		if es.EventID == entry.EventID && es.SongID == entry.SongID {
			return repos.ErrDuplicateEntry
		}
	}
	r.setlist = append(r.setlist, *entry)
	return nil
}

func (r *stubEventRepo) RemoveSong(eventID, songID uint) error {
	for i, es := range r.setlist {
		if es.EventID == eventID && es.SongID == songID {
			r.setlist = append(r.setlist[:i], r.setlist[i+1:]...)
			return nil
		}
	}
	return repos.ErrEntityNotExisting
}

// -- Song repo stub ---------------------------------------------------------------------------------------------------

type stubSongRepo struct {
	songs  map[uint]models.Song
	nextID uint
}

func newStubSongRepo() *stubSongRepo {
	return &stubSongRepo{songs: map[uint]models.Song{}, nextID: 1}
}

func (r *stubSongRepo) Create(s *models.Song) error {
	s.ID = r.nextID
	r.nextID++
	r.songs[s.ID] = *s
	return nil
}

func (r *stubSongRepo) Update(s *models.Song) error {
	if _, ok := r.songs[s.ID]; !ok {
		return repos.ErrEntityNotExisting
	}
	r.songs[s.ID] = *s
	return nil
}

func (r *stubSongRepo) Delete(id uint) error {
	if _, ok := r.songs[id]; !ok {
		return repos.ErrEntityNotExisting
	}
	delete(r.songs, id)
	return nil
}

func (r *stubSongRepo) GetByID(id uint) (*models.Song, error) {
	s, ok := r.songs[id]
	if !ok {
		return nil, repos.ErrEntityNotExisting
	}
	return &s, nil
}

func (r *stubSongRepo) Find(search, key string, offset, limit uint) ([]models.Song, uint, error) {
	var all []models.Song
	for _, s := range r.songs {
		if search != "" && !strings.Contains(s.Title, search) && !strings.Contains(s.Artist, search) {
			continue
		}
		if key != "" && s.Key != key {
			continue
		}
		all = append(all, s)
	}
	total := uint(len(all))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// -- Blockout repo stub -----------------------------------------------------------------------------------------------

type stubBlockoutRepo struct {
	blockouts map[uint]models.Blockout
	nextID    uint
}

func newStubBlockoutRepo() *stubBlockoutRepo {
	return &stubBlockoutRepo{blockouts: map[uint]models.Blockout{}, nextID: 1}
}

func (r *stubBlockoutRepo) Create(b *models.Blockout) error {
	b.ID = r.nextID
	r.nextID++
	r.blockouts[b.ID] = *b
	return nil
}

func (r *stubBlockoutRepo) Update(b *models.Blockout) error {
	if _, ok := r.blockouts[b.ID]; !ok {
		return repos.ErrEntityNotExisting
	}
	r.blockouts[b.ID] = *b
	return nil
}

func (r *stubBlockoutRepo) Delete(id uint) error {
	if _, ok := r.blockouts[id]; !ok {
		return repos.ErrEntityNotExisting
	}
	delete(r.blockouts, id)
	return nil
}

func (r *stubBlockoutRepo) GetByID(id uint) (*models.Blockout, error) {
	b, ok := r.blockouts[id]
	if !ok {
		return nil, repos.ErrEntityNotExisting
	}
	return &b, nil
}

func (r *stubBlockoutRepo) Find(userID uint, from, to *time.Time, offset, limit uint) ([]models.Blockout, uint, error) {
	var all []models.Blockout
	for _, b := range r.blockouts {
		if userID != 0 && b.UserID != userID {
			continue
		}
		if from != nil && b.EndDate.Before(*from) {
			continue
		}
		if to != nil && b.StartDate.After(*to) {
			continue
		}
		all = append(all, b)
	}
	total := uint(len(all))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *stubBlockoutRepo) FindOverlapping(start, end time.Time) ([]models.Blockout, error) {
	var ret []models.Blockout
	for _, b := range r.blockouts {
		if !b.EndDate.Before(start) && !b.StartDate.After(end) {
			ret = append(ret, b)
		}
	}
	return ret, nil
}

// -- User repo stub ---------------------------------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newStubUserRepo(users ...models.User) *stubUserRepo {
	r := &stubUserRepo{users: map[uint]models.User{}, nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = r.nextID
		}
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(u *models.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repos.ErrDuplicateEntry
		}
	}
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = *u
	return nil
}

func (r *stubUserRepo) Update(u *models.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repos.ErrEntityNotExisting
	}
	r.users[u.ID] = *u
	return nil
}

func (r *stubUserRepo) Delete(id uint) error {
	if _, ok := r.users[id]; !ok {
		return repos.ErrEntityNotExisting
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) GetByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repos.ErrEntityNotExisting
	}
	return &u, nil
}

func (r *stubUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copy := u
			return &copy, nil
		}
	}
	return nil, repos.ErrEntityNotExisting
}

func (r *stubUserRepo) GetByCredentials(email, password string) (*models.User, error) {
	u, err := r.GetByEmail(email)
	if err != nil {
		return nil, nil
	}
	if err = u.CheckPassword(password); err != nil {
		return nil, nil
	}
	return u, nil
}

func (r *stubUserRepo) Find(search string, offset, limit uint) ([]models.User, uint, error) {
	var all []models.User
	for _, u := range r.users {
		if search == "" || strings.Contains(u.Email, search) ||
			strings.Contains(u.FirstName, search) || strings.Contains(u.LastName, search) {
			all = append(all, u)
		}
	}
	total := uint(len(all))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *stubUserRepo) Count() (uint, error) {
	return uint(len(r.users)), nil
}

// spyCache is an in-memory ListCache recording the invalidated patterns
type spyCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newSpyCache() *spyCache {
	return &spyCache{entries: map[string][]byte{}}
}

func (c *spyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *spyCache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.entries[key] = data
}

func (c *spyCache) Invalidate(ctx context.Context, pattern string) {
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}
