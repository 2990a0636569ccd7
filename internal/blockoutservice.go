package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/cache"
	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
	"github.com/haldre/rota/internal/schedule"
)

// cacheEntityBlockouts is the cache key prefix for blockout listings
const cacheEntityBlockouts = "blockouts"

// BlockoutView is a blockout window together with its computed status
type BlockoutView struct {
	models.Blockout
	Status schedule.Status `json:"status"`
}

// BlockoutService provides service functions for working with blockout windows.
// Non-admin users only ever see and modify their own windows - requests for foreign
// windows are answered as if the window did not exist.
type BlockoutService interface {
	List(ctx context.Context, req *BlockoutListRequest) (*PagedResult, error)
	Get(ctx context.Context, id uint) (*BlockoutView, error)
	Create(ctx context.Context, blockout *models.Blockout) (*BlockoutView, error)
	Update(ctx context.Context, blockout *models.Blockout) (*BlockoutView, error)
	Delete(ctx context.Context, id uint) error
}

// blockoutPage is the cacheable form of one page of blockout windows
type blockoutPage struct {
	Data []BlockoutView `json:"data"`
	Meta PageMeta       `json:"meta"`
}

// -- BlockoutService implementation -----------------------------------------------------------------------------------

type blockoutService struct {
	repo   repos.BlockoutRepo
	cache  ListCache
	logger *logrus.Entry
}

// NewBlockoutService creates a new blockout service instance
func NewBlockoutService(repo repos.BlockoutRepo, c ListCache, logger *logrus.Entry) BlockoutService {
	return &blockoutService{
		repo:   repo,
		cache:  c,
		logger: logger,
	}
}

func makeBlockoutView(b *models.Blockout) *BlockoutView {
	return &BlockoutView{
		Blockout: *b,
		Status:   b.Status(time.Now()),
	}
}

// canModify checks whether the current user may see and modify the given window
func canModify(ctx context.Context, b *models.Blockout) bool {
	user := ctxhelper.User(ctx)
	if user == nil {
		return false
	}
	return user.IsAdmin() || user.ID == b.UserID
}

// errBlockoutNotFound is the uniform answer for both missing and foreign windows
func errBlockoutNotFound(id uint) error {
	return MakeError(http.StatusNotFound, ErrCodeBlockoutNotFound,
		fmt.Sprintf("Blockout #%d does not exist", id),
	)
}

// List returns a page of blockout windows. Only admins may request the windows of
// all users - for everyone else, the listing is restricted to their own windows.
func (s *blockoutService) List(ctx context.Context, req *BlockoutListRequest) (*PagedResult, error) {
	user := ctxhelper.User(ctx)
	if user == nil {
		return nil, CheckAccess(nil, false).Err()
	}
	var userID uint
	if !req.All || !user.IsAdmin() {
		userID = user.ID
	}
	var filters []string
	filters = append(filters, fmt.Sprintf("user=%d", userID))
	if req.From != nil {
		filters = append(filters, "from="+req.From.Format("2006-01-02"))
	}
	if req.To != nil {
		filters = append(filters, "to="+req.To.Format("2006-01-02"))
	}
	key := cache.Key(cacheEntityBlockouts, req.Page, req.Limit, filters...)
	var page blockoutPage
	if hit, _ := s.cache.Get(ctx, key, &page); hit {
		return &PagedResult{Data: page.Data, Meta: page.Meta}, nil
	}
	windows, numRows, err := s.repo.Find(userID, req.From, req.To, req.Offset(), req.Limit)
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while searching blockouts",
			err,
		)
	}
	views := make([]BlockoutView, 0, len(windows))
	for i := range windows {
		views = append(views, *makeBlockoutView(&windows[i]))
	}
	page = blockoutPage{Data: views, Meta: MakePageMeta(req.PageParams, numRows)}
	s.cache.Set(ctx, key, page)
	return &PagedResult{Data: page.Data, Meta: page.Meta}, nil
}

// Get returns the blockout window with the given ID
func (s *blockoutService) Get(ctx context.Context, id uint) (*BlockoutView, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, errBlockoutNotFound(id)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving blockout #%d", id), err,
		)
	}
	if !canModify(ctx, b) {
		return nil, errBlockoutNotFound(id)
	}
	return makeBlockoutView(b), nil
}

// checkRange validates that the window's end does not lie before its start
func checkRange(b *models.Blockout) error {
	if b.EndDate.Before(b.StartDate) {
		return MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeValidationFailed,
			"The provided data did not validate",
			map[string]string{"endDate": "Must not lie before startDate"},
		)
	}
	return nil
}

// Create creates a new blockout window. Admins may create windows for other users;
// everyone else creates windows for themselves.
func (s *blockoutService) Create(ctx context.Context, blockout *models.Blockout) (*BlockoutView, error) {
	user := ctxhelper.User(ctx)
	if user == nil {
		return nil, CheckAccess(nil, false).Err()
	}
	if blockout.UserID == 0 || !user.IsAdmin() {
		blockout.UserID = user.ID
	}
	if err := ValidateStruct(blockout); err != nil {
		return nil, err
	}
	if err := checkRange(blockout); err != nil {
		return nil, err
	}
	if err := s.repo.Create(blockout); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating blockout",
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntityBlockouts))
	return makeBlockoutView(blockout), nil
}

// Update updates an existing blockout window
func (s *blockoutService) Update(ctx context.Context, blockout *models.Blockout) (*BlockoutView, error) {
	original, err := s.repo.GetByID(blockout.ID)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, errBlockoutNotFound(blockout.ID)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving blockout #%d", blockout.ID), err,
		)
	}
	if !canModify(ctx, original) {
		return nil, errBlockoutNotFound(blockout.ID)
	}
	if !blockout.StartDate.IsZero() {
		original.StartDate = blockout.StartDate
	}
	if !blockout.EndDate.IsZero() {
		original.EndDate = blockout.EndDate
	}
	original.Reason = blockout.Reason
	if err = ValidateStruct(original); err != nil {
		return nil, err
	}
	if err = checkRange(original); err != nil {
		return nil, err
	}
	if err = s.repo.Update(original); err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, errBlockoutNotFound(blockout.ID)
		}
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while updating blockout #%d", blockout.ID),
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntityBlockouts))
	return makeBlockoutView(original), nil
}

// Delete removes an existing blockout window
func (s *blockoutService) Delete(ctx context.Context, id uint) error {
	original, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return errBlockoutNotFound(id)
		}
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving blockout #%d", id), err,
		)
	}
	if !canModify(ctx, original) {
		return errBlockoutNotFound(id)
	}
	if err = s.repo.Delete(id); err != nil {
		if err == repos.ErrEntityNotExisting {
			return errBlockoutNotFound(id)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting blockout #%d", id),
			err,
		)
	}
	s.cache.Invalidate(ctx, cache.ListPattern(cacheEntityBlockouts))
	return nil
}
