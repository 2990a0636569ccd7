package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/cache"
	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
	"github.com/haldre/rota/internal/schedule"
)

// cacheEntityEvents is the cache key prefix for event listings
const cacheEntityEvents = "events"

// MemberAvailability describes whether one team member is available for an event
type MemberAvailability struct {
	User      models.User `json:"user"`
	Available bool        `json:"available"`
	// Reason of the blockout window making the member unavailable - empty when available
	Reason string `json:"reason,omitempty"`
}

// EventService provides service functions for working with events and their set lists
type EventService interface {
	List(ctx context.Context, req *EventListRequest) (*PagedResult, error)
	Get(ctx context.Context, id uint) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id uint) error
	Setlist(ctx context.Context, eventID uint) ([]models.EventSongDetail, error)
	AddToSetlist(ctx context.Context, eventID uint, req *SetlistAddRequest) error
	RemoveFromSetlist(ctx context.Context, eventID uint, songID uint) error
	Availability(ctx context.Context, eventID uint) ([]MemberAvailability, error)
}

// eventPage is the cacheable form of one page of events
type eventPage struct {
	Data []models.Event `json:"data"`
	Meta PageMeta       `json:"meta"`
}

// -- EventService implementation --------------------------------------------------------------------------------------

type eventService struct {
	repo      repos.EventRepo
	blockouts repos.BlockoutRepo
	users     repos.UserRepo
	cache     ListCache
	logger    *logrus.Entry
}

// NewEventService creates a new event service instance
func NewEventService(
	repo repos.EventRepo,
	blockouts repos.BlockoutRepo,
	users repos.UserRepo,
	c ListCache,
	logger *logrus.Entry,
) EventService {
	return &eventService{
		repo:      repo,
		blockouts: blockouts,
		users:     users,
		cache:     c,
		logger:    logger,
	}
}

// listCacheKey builds the cache key for one page of the event listing
func (s *eventService) listCacheKey(req *EventListRequest) string {
	var filters []string
	if req.From != nil {
		filters = append(filters, "from="+req.From.Format("2006-01-02"))
	}
	if req.To != nil {
		filters = append(filters, "to="+req.To.Format("2006-01-02"))
	}
	return cache.Key(cacheEntityEvents, req.Page, req.Limit, filters...)
}

// List returns a page of events, optionally restricted to a date range
func (s *eventService) List(ctx context.Context, req *EventListRequest) (*PagedResult, error) {
	key := s.listCacheKey(req)
	var page eventPage
	if hit, _ := s.cache.Get(ctx, key, &page); hit {
		return &PagedResult{Data: page.Data, Meta: page.Meta}, nil
	}
	events, numRows, err := s.repo.Find(req.From, req.To, req.Offset(), req.Limit)
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while searching events",
			err,
		)
	}
	if events == nil {
		events = []models.Event{}
	}
	page = eventPage{Data: events, Meta: MakePageMeta(req.PageParams, numRows)}
	s.cache.Set(ctx, key, page)
	return &PagedResult{Data: page.Data, Meta: page.Meta}, nil
}

// Get returns the event with the given ID
func (s *eventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	ev, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", id),
			)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving event #%d", id), err,
		)
	}
	return ev, nil
}

// Create creates a new event owned by the current user
func (s *eventService) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.Title = strings.TrimSpace(event.Title)
	if err := ValidateStruct(event); err != nil {
		return nil, err
	}
	if user := ctxhelper.User(ctx); user != nil {
		event.CreatedBy = user.ID
	}
	if err := s.repo.Create(event); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating event",
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntityEvents))
	return event, nil
}

// Update updates an existing event
func (s *eventService) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	originalEvent, err := s.Get(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.Title = strings.TrimSpace(event.Title)
	if event.Title != "" {
		originalEvent.Title = event.Title
	}
	originalEvent.Description = event.Description
	if !event.Date.IsZero() {
		originalEvent.Date = event.Date
	}
	if err = ValidateStruct(originalEvent); err != nil {
		return nil, err
	}
	if err = s.repo.Update(originalEvent); err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(
				http.StatusNotFound,
				ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", event.ID),
			)
		}
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while updating event #%d", event.ID),
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntityEvents))
	return originalEvent, nil
}

// Delete removes an existing event and its set list
func (s *eventService) Delete(ctx context.Context, id uint) error {
	err := s.repo.Delete(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(
				http.StatusNotFound,
				ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", id),
			)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting event #%d", id),
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntityEvents))
	return nil
}

// Setlist returns the songs planned for the given event in playing order
func (s *eventService) Setlist(ctx context.Context, eventID uint) ([]models.EventSongDetail, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListSongs(eventID)
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while loading the set list of event #%d", eventID),
			err,
		)
	}
	if list == nil {
		list = []models.EventSongDetail{}
	}
	return list, nil
}

// AddToSetlist adds a song to the given event's set list
func (s *eventService) AddToSetlist(ctx context.Context, eventID uint, req *SetlistAddRequest) error {
	entry := models.EventSong{
		EventID:  eventID,
		SongID:   req.SongID,
		Position: req.Position,
	}
	if err := ValidateStruct(&entry); err != nil {
		return err
	}
	err := s.repo.AddSong(&entry)
	switch err {
	case nil:
		return nil
	case repos.ErrEntityNotExisting:
		// The repo checks the event first, then the song
		if _, gerr := s.repo.GetByID(eventID); gerr == repos.ErrEntityNotExisting {
			return MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", eventID),
			)
		}
		return MakeError(http.StatusNotFound, ErrCodeSongNotFound,
			fmt.Sprintf("Song #%d does not exist", req.SongID),
		)
	case repos.ErrDuplicateEntry:
		return MakeError(http.StatusConflict, ErrCodeDuplicateSetlistEntry,
			fmt.Sprintf("Song #%d is already on the set list of event #%d", req.SongID, eventID),
		)
	}
	return MakeErrorWithData(
		http.StatusInternalServerError,
		ErrCodeRepoError,
		fmt.Sprintf("Error while adding song #%d to event #%d", req.SongID, eventID),
		err,
	)
}

// RemoveFromSetlist removes a song from the given event's set list
func (s *eventService) RemoveFromSetlist(ctx context.Context, eventID uint, songID uint) error {
	err := s.repo.RemoveSong(eventID, songID)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(http.StatusNotFound, ErrCodeSongNotFound,
				fmt.Sprintf("Song #%d is not on the set list of event #%d", songID, eventID),
			)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while removing song #%d from event #%d", songID, eventID),
			err,
		)
	}
	return nil
}

// Availability resolves which team members are available on the given event's date.
// A member is unavailable when one of their blockout windows overlaps the event day.
func (s *eventService) Availability(ctx context.Context, eventID uint) ([]MemberAvailability, error) {
	ev, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	dayStart := schedule.DayStart(ev.Date)
	dayEnd := schedule.DayEnd(ev.Date)
	blockouts, err := s.blockouts.FindOverlapping(dayStart, dayEnd)
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while loading blockout windows",
			err,
		)
	}
	blockedBy := map[uint]*models.Blockout{}
	for i := range blockouts {
		b := &blockouts[i]
		if _, ok := blockedBy[b.UserID]; ok {
			continue
		}
		if b.Overlaps(ev.Date, ev.Date) {
			blockedBy[b.UserID] = b
		}
	}
	users, _, err := s.users.Find("", 0, maxTeamSize)
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while loading user accounts",
			err,
		)
	}
	ret := make([]MemberAvailability, 0, len(users))
	for _, u := range users {
		ma := MemberAvailability{User: u, Available: true}
		if b, ok := blockedBy[u.ID]; ok {
			ma.Available = false
			ma.Reason = b.Reason
		}
		ret = append(ret, ma)
	}
	s.logger.WithFields(logrus.Fields{
		log.FldEvent: eventID,
	}).Debugf("Resolved availability for %d members", len(ret))
	return ret, nil
}

// maxTeamSize caps the number of members considered when resolving availability
const maxTeamSize = 1000
