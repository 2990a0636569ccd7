package internal

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/models"
)

// Decision is the result of an access check
type Decision int

const (
	// DecisionAuthorized means the request may proceed
	DecisionAuthorized Decision = iota
	// DecisionUnauthenticated means no valid user session is attached to the request
	DecisionUnauthenticated
	// DecisionForbidden means the user is logged in but lacks the required role
	DecisionForbidden
)

// CheckAccess makes an access decision for the given user. When adminOnly is set,
// only users with the admin role are authorized.
func CheckAccess(user *models.User, adminOnly bool) Decision {
	if user == nil {
		return DecisionUnauthenticated
	}
	if adminOnly && !user.IsAdmin() {
		return DecisionForbidden
	}
	return DecisionAuthorized
}

// Err converts the decision into the error to return to the client - nil for an
// authorized request
func (d Decision) Err() error {
	switch d {
	case DecisionUnauthenticated:
		return MakeError(
			http.StatusUnauthorized,
			ErrCodeNotLoggedIn,
			"This function needs a logged-in user",
		)
	case DecisionForbidden:
		return MakeError(
			http.StatusForbidden,
			ErrCodeForbidden,
			"This function needs administrative privileges",
		)
	}
	return nil
}

// EnsureUserLoggedIn is a middleware that checks if there is a valid user session for the current call
func EnsureUserLoggedIn(next endpoint.Endpoint) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		if err := CheckAccess(ctxhelper.User(ctx), false).Err(); err != nil {
			return nil, err
		}
		return next(ctx, request)
	}
}

// EnsureAdmin is a middleware that checks if the current call is made by a logged-in administrator
func EnsureAdmin(next endpoint.Endpoint) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		if err := CheckAccess(ctxhelper.User(ctx), true).Err(); err != nil {
			return nil, err
		}
		return next(ctx, request)
	}
}
