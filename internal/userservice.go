package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/log"
	"github.com/haldre/rota/internal/models"
	"github.com/haldre/rota/internal/repos"
)

// UserWriteRequest is the payload for creating or updating a user account
type UserWriteRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
	// Password is required on creation and optional on update
	Password string `json:"password"`
}

// normalize trims the identity fields and lowercases the email address. It runs
// before validation so a padded but otherwise valid address is accepted.
func (req *UserWriteRequest) normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
}

// UserService provides service functions for managing user accounts
type UserService interface {
	List(ctx context.Context, req *UserListRequest) (*PagedResult, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, req *UserWriteRequest) (*models.User, error)
	Update(ctx context.Context, id uint, req *UserWriteRequest) (*models.User, error)
	Delete(ctx context.Context, id uint) error
	// EnsureDefaultAdmin creates the initial admin account when the user table is empty
	EnsureDefaultAdmin(email, password string) error
}

// -- UserService implementation ---------------------------------------------------------------------------------------

type userService struct {
	repo   repos.UserRepo
	logger *logrus.Entry
}

// NewUserService creates a new user service instance
func NewUserService(repo repos.UserRepo, logger *logrus.Entry) UserService {
	return &userService{
		repo:   repo,
		logger: logger,
	}
}

// List searches for user accounts matching the given search term
func (s *userService) List(ctx context.Context, req *UserListRequest) (*PagedResult, error) {
	users, numRows, err := s.repo.Find(req.Search, req.Offset(), req.Limit)
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while searching users",
			err,
		)
	}
	if users == nil {
		users = []models.User{}
	}
	return &PagedResult{Data: users, Meta: MakePageMeta(req.PageParams, numRows)}, nil
}

// errForeignAccount is the answer for non-admins touching accounts other than their own
var errForeignAccount = MakeError(
	http.StatusForbidden,
	ErrCodeForbidden,
	"You may only access your own account",
)

// canAccessAccount checks whether the current user may read and modify the account with the given ID
func canAccessAccount(ctx context.Context, id uint) bool {
	user := ctxhelper.User(ctx)
	if user == nil {
		return false
	}
	return user.IsAdmin() || user.ID == id
}

// Get returns the user account with the given ID. Non-admins may only fetch their own account.
func (s *userService) Get(ctx context.Context, id uint) (*models.User, error) {
	if !canAccessAccount(ctx, id) {
		return nil, errForeignAccount
	}
	u, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeUserNotFound,
				fmt.Sprintf("User #%d does not exist", id),
			)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving user #%d", id), err,
		)
	}
	return u, nil
}

// applyWriteRequest copies the normalized request data onto the given user and hashes the password
func applyWriteRequest(u *models.User, req *UserWriteRequest) error {
	u.Email = req.Email
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	if req.Role != "" {
		if !req.Role.Valid() {
			return MakeErrorWithData(
				http.StatusBadRequest,
				ErrCodeValidationFailed,
				"The provided data did not validate",
				map[string]string{"role": "Unknown role"},
			)
		}
		u.Role = req.Role
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if req.Password != "" {
		if err := u.SetPassword(req.Password); err != nil {
			return MakeError(http.StatusInternalServerError, ErrCodeUnknown, "Failed to hash password")
		}
	}
	return nil
}

// Create creates a new user account
func (s *userService) Create(ctx context.Context, req *UserWriteRequest) (*models.User, error) {
	req.normalize()
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeValidationFailed,
			"The provided data did not validate",
			map[string]string{"password": "This field is required"},
		)
	}
	var u models.User
	if err := applyWriteRequest(&u, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(&u); err != nil {
		if err == repos.ErrDuplicateEntry {
			return nil, MakeError(http.StatusConflict, ErrCodeDuplicateEmail,
				fmt.Sprintf("A user with the email address '%s' already exists", u.Email),
			)
		}
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating user",
			err,
		)
	}
	s.logger.WithField(log.FldUser, u.Email).Info("Created new user account")
	return &u, nil
}

// Update updates an existing user account. Non-admins may only update their own
// account and cannot change its role.
func (s *userService) Update(ctx context.Context, id uint, req *UserWriteRequest) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.normalize()
	if err = ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Role != "" && req.Role != u.Role {
		if caller := ctxhelper.User(ctx); caller == nil || !caller.IsAdmin() {
			return nil, MakeError(
				http.StatusForbidden,
				ErrCodeForbidden,
				"Only admins may change a user's role",
			)
		}
	}
	if err = applyWriteRequest(u, req); err != nil {
		return nil, err
	}
	if err = s.repo.Update(u); err != nil {
		if err == repos.ErrDuplicateEntry {
			return nil, MakeError(http.StatusConflict, ErrCodeDuplicateEmail,
				fmt.Sprintf("A user with the email address '%s' already exists", u.Email),
			)
		}
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeUserNotFound,
				fmt.Sprintf("User #%d does not exist", id),
			)
		}
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while updating user #%d", id),
			err,
		)
	}
	return u, nil
}

// Delete removes an existing user account together with its blockout windows
func (s *userService) Delete(ctx context.Context, id uint) error {
	err := s.repo.Delete(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(http.StatusNotFound, ErrCodeUserNotFound,
				fmt.Sprintf("User #%d does not exist", id),
			)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting user #%d", id),
			err,
		)
	}
	return nil
}

// EnsureDefaultAdmin creates the initial admin account when the user table is empty
func (s *userService) EnsureDefaultAdmin(email, password string) error {
	num, err := s.repo.Count()
	if err != nil {
		return err
	}
	if num > 0 {
		return nil
	}
	u := models.User{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  models.RoleAdmin,
	}
	if err = u.SetPassword(password); err != nil {
		return err
	}
	if err = s.repo.Create(&u); err != nil {
		return err
	}
	s.logger.WithField(log.FldUser, u.Email).Warn("Created default admin account - please change its password")
	return nil
}
