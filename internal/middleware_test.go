package internal

import (
	"context"
	"net/http"
	"testing"

	"github.com/haldre/rota/internal/ctxhelper"
	"github.com/haldre/rota/internal/models"
)

func TestCheckAccess(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	member := &models.User{ID: 2, Role: models.RoleUser}

	tests := []struct {
		name      string
		user      *models.User
		adminOnly bool
		want      Decision
	}{
		{"anonymous is unauthenticated", nil, false, DecisionUnauthenticated},
		{"anonymous stays unauthenticated for admin routes", nil, true, DecisionUnauthenticated},
		{"member passes plain check", member, false, DecisionAuthorized},
		{"member is forbidden on admin routes", member, true, DecisionForbidden},
		{"admin passes plain check", admin, false, DecisionAuthorized},
		{"admin passes admin check", admin, true, DecisionAuthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckAccess(tt.user, tt.adminOnly); got != tt.want {
				t.Errorf("CheckAccess = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecisionErr(t *testing.T) {
	if err := DecisionAuthorized.Err(); err != nil {
		t.Errorf("authorized decision produced error: %v", err)
	}

	err := DecisionUnauthenticated.Err()
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.Status() != http.StatusUnauthorized || httpErr.ErrorCode() != ErrCodeNotLoggedIn {
		t.Errorf("unauthenticated error: status %d code %s", httpErr.Status(), httpErr.ErrorCode())
	}

	err = DecisionForbidden.Err()
	httpErr, ok = err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.Status() != http.StatusForbidden || httpErr.ErrorCode() != ErrCodeForbidden {
		t.Errorf("forbidden error: status %d code %s", httpErr.Status(), httpErr.ErrorCode())
	}
}

func TestEnsureUserLoggedIn(t *testing.T) {
	var called bool
	ep := EnsureUserLoggedIn(func(ctx context.Context, request interface{}) (interface{}, error) {
		called = true
		return "ok", nil
	})

	if _, err := ep(context.Background(), nil); err == nil {
		t.Error("anonymous call passed the login guard")
	}
	if called {
		t.Fatal("wrapped endpoint was invoked for an anonymous call")
	}

	ctx := context.WithValue(context.Background(), ctxhelper.KeyUser, models.User{ID: 7, Role: models.RoleUser})
	if _, err := ep(ctx, nil); err != nil {
		t.Errorf("logged-in call failed: %v", err)
	}
	if !called {
		t.Error("wrapped endpoint was not invoked")
	}
}

func TestEnsureAdmin(t *testing.T) {
	ep := EnsureAdmin(func(ctx context.Context, request interface{}) (interface{}, error) {
		return "ok", nil
	})

	ctx := context.WithValue(context.Background(), ctxhelper.KeyUser, models.User{ID: 7, Role: models.RoleUser})
	if _, err := ep(ctx, nil); err == nil {
		t.Error("non-admin passed the admin guard")
	}

	ctx = context.WithValue(context.Background(), ctxhelper.KeyUser, models.User{ID: 1, Role: models.RoleAdmin})
	if _, err := ep(ctx, nil); err != nil {
		t.Errorf("admin call failed: %v", err)
	}
}
