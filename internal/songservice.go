package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/cache"
	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
)

// cacheEntitySongs is the cache key prefix for song listings
const cacheEntitySongs = "songs"

// SongService provides service functions for working with the song catalog
type SongService interface {
	List(ctx context.Context, req *SongListRequest) (*PagedResult, error)
	Get(ctx context.Context, id uint) (*models.Song, error)
	Create(ctx context.Context, song *models.Song) (*models.Song, error)
	Update(ctx context.Context, song *models.Song) (*models.Song, error)
	Delete(ctx context.Context, id uint) error
}

// songPage is the cacheable form of one page of songs
type songPage struct {
	Data []models.Song `json:"data"`
	Meta PageMeta      `json:"meta"`
}

// -- SongService implementation ---------------------------------------------------------------------------------------

type songService struct {
	repo   repos.SongRepo
	cache  ListCache
	logger *logrus.Entry
}

// NewSongService creates a new song service instance
func NewSongService(repo repos.SongRepo, c ListCache, logger *logrus.Entry) SongService {
	return &songService{
		repo:   repo,
		cache:  c,
		logger: logger,
	}
}

// List returns a page of songs matching the given search term and key filter
func (s *songService) List(ctx context.Context, req *SongListRequest) (*PagedResult, error) {
	var filters []string
	if req.Search != "" {
		filters = append(filters, "q="+req.Search)
	}
	if req.Key != "" {
		filters = append(filters, "key="+req.Key)
	}
	key := cache.Key(cacheEntitySongs, req.Page, req.Limit, filters...)
	var page songPage
	if hit, _ := s.cache.Get(ctx, key, &page); hit {
		return &PagedResult{Data: page.Data, Meta: page.Meta}, nil
	}
	songs, numRows, err := s.repo.Find(req.Search, req.Key, req.Offset(), req.Limit)
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while searching songs",
			err,
		)
	}
	if songs == nil {
		songs = []models.Song{}
	}
	page = songPage{Data: songs, Meta: MakePageMeta(req.PageParams, numRows)}
	s.cache.Set(ctx, key, page)
	return &PagedResult{Data: page.Data, Meta: page.Meta}, nil
}

// Get returns the song with the given ID
func (s *songService) Get(ctx context.Context, id uint) (*models.Song, error) {
	song, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeSongNotFound,
				fmt.Sprintf("Song #%d does not exist", id),
			)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving song #%d", id), err,
		)
	}
	return song, nil
}

// Create adds a new song to the catalog
func (s *songService) Create(ctx context.Context, song *models.Song) (*models.Song, error) {
	song.Title = strings.TrimSpace(song.Title)
	if err := ValidateStruct(song); err != nil {
		return nil, err
	}
	if user := ctxhelper.User(ctx); user != nil {
		song.CreatedBy = user.ID
	}
	if err := s.repo.Create(song); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating song",
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntitySongs))
	return song, nil
}

// Update updates an existing song
func (s *songService) Update(ctx context.Context, song *models.Song) (*models.Song, error) {
	original, err := s.Get(ctx, song.ID)
	if err != nil {
		return nil, err
	}
	song.Title = strings.TrimSpace(song.Title)
	if song.Title != "" {
		original.Title = song.Title
	}
	original.Artist = song.Artist
	original.Key = song.Key
	original.VideoURL = song.VideoURL
	if err = ValidateStruct(original); err != nil {
		return nil, err
	}
	if err = s.repo.Update(original); err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(
				http.StatusNotFound,
				ErrCodeSongNotFound,
				fmt.Sprintf("Song #%d does not exist", song.ID),
			)
		}
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while updating song #%d", song.ID),
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntitySongs))
	return original, nil
}

// Delete removes an existing song from the catalog
func (s *songService) Delete(ctx context.Context, id uint) error {
	err := s.repo.Delete(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(
				http.StatusNotFound,
				ErrCodeSongNotFound,
				fmt.Sprintf("Song #%d does not exist", id),
			)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting song #%d", id),
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntitySongs))
	return nil
}
