package internal

import (
	"context"
	"net/http"
	"testing"

	"github.com/haldre/rota/internal/models"
)

func TestUserServiceCreate(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, testLogger("userservice"))
	ctx := context.Background()

	u, err := svc.Create(ctx, &UserWriteRequest{
		Email:     "  Anna@Example.COM ",
		FirstName: "Anna",
		LastName:  "Miller",
		Password:  "s3cret",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.Email != "anna@example.com" {
		t.Errorf("Expected the email to be normalized, got %q", u.Email)
	}
	if u.Role != models.RoleUser {
		t.Errorf("Expected the default role, got %q", u.Role)
	}
	if u.PasswordHash == "" {
		t.Error("Expected the password to be hashed")
	}
	if err = u.CheckPassword("s3cret"); err != nil {
		t.Errorf("Expected the password to verify: %v", err)
	}

	// A second account with the same email is a conflict
	_, err = svc.Create(ctx, &UserWriteRequest{Email: "anna@example.com", Password: "other"})
	requireHTTPError(t, err, http.StatusConflict, ErrCodeDuplicateEmail)
}

func TestUserServiceCreateValidation(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), testLogger("userservice"))
	ctx := context.Background()

	// A malformed email address does not validate
	_, err := svc.Create(ctx, &UserWriteRequest{Email: "not-an-email", Password: "x"})
	requireHTTPError(t, err, http.StatusBadRequest, ErrCodeValidationFailed)

	// The password is required on creation
	_, err = svc.Create(ctx, &UserWriteRequest{Email: "anna@example.com"})
	httpErr := requireHTTPError(t, err, http.StatusBadRequest, ErrCodeValidationFailed)
	details, ok := httpErr.Data().(map[string]string)
	if !ok || details["password"] == "" {
		t.Errorf("Expected a validation message for the 'password' field, got %v", httpErr.Data())
	}

	// Unknown roles are rejected
	_, err = svc.Create(ctx, &UserWriteRequest{Email: "anna@example.com", Password: "x", Role: "superuser"})
	requireHTTPError(t, err, http.StatusBadRequest, ErrCodeValidationFailed)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, testLogger("userservice"))
	adminCtx := ctxWithUser(models.User{ID: 99, Role: models.RoleAdmin})

	u, err := svc.Create(adminCtx, &UserWriteRequest{Email: "anna@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	oldHash := u.PasswordHash

	// Updating without a password keeps the old hash, and a padded email
	// address is normalized before it is validated
	updated, err := svc.Update(adminCtx, u.ID, &UserWriteRequest{
		Email:     "  Anna@Example.COM ",
		FirstName: "Anna",
		Role:      models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Email != "anna@example.com" {
		t.Errorf("Expected the email to be normalized, got %q", updated.Email)
	}
	if updated.FirstName != "Anna" {
		t.Errorf("Expected the first name to be set, got %q", updated.FirstName)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("Expected the role to be promoted, got %q", updated.Role)
	}
	if updated.PasswordHash != oldHash {
		t.Error("Expected the password hash to be kept")
	}

	_, err = svc.Update(adminCtx, 55, &UserWriteRequest{Email: "nobody@example.com"})
	requireHTTPError(t, err, http.StatusNotFound, ErrCodeUserNotFound)
}

func TestUserServiceOwnership(t *testing.T) {
	repo := newStubUserRepo(
		models.User{ID: 1, Email: "anna@example.com", Role: models.RoleUser},
		models.User{ID: 2, Email: "ben@example.com", Role: models.RoleUser},
	)
	svc := NewUserService(repo, testLogger("userservice"))
	ctx := ctxWithUser(models.User{ID: 1, Role: models.RoleUser})

	// Users can read and update their own account
	if _, err := svc.Get(ctx, 1); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	updated, err := svc.Update(ctx, 1, &UserWriteRequest{Email: "anna@example.com", FirstName: "Anna"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.FirstName != "Anna" {
		t.Errorf("Expected the update to apply, got %q", updated.FirstName)
	}

	// Foreign accounts are off limits for non-admins
	_, err = svc.Get(ctx, 2)
	requireHTTPError(t, err, http.StatusForbidden, ErrCodeForbidden)
	_, err = svc.Update(ctx, 2, &UserWriteRequest{Email: "ben@example.com"})
	requireHTTPError(t, err, http.StatusForbidden, ErrCodeForbidden)

	// Users cannot promote themselves
	_, err = svc.Update(ctx, 1, &UserWriteRequest{Email: "anna@example.com", Role: models.RoleAdmin})
	requireHTTPError(t, err, http.StatusForbidden, ErrCodeForbidden)

	// Admins may do all of the above
	adminCtx := ctxWithUser(models.User{ID: 2, Role: models.RoleAdmin})
	if _, err = svc.Get(adminCtx, 1); err != nil {
		t.Fatalf("Get as admin failed: %v", err)
	}
	if _, err = svc.Update(adminCtx, 1, &UserWriteRequest{Email: "anna@example.com", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("Promoting as admin failed: %v", err)
	}
}

func TestUserServiceDelete(t *testing.T) {
	repo := newStubUserRepo(models.User{ID: 1, Email: "anna@example.com"})
	svc := NewUserService(repo, testLogger("userservice"))
	ctx := context.Background()

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err := svc.Delete(ctx, 1)
	requireHTTPError(t, err, http.StatusNotFound, ErrCodeUserNotFound)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, testLogger("userservice"))

	if err := svc.EnsureDefaultAdmin("Admin@Example.com", "changeme"); err != nil {
		t.Fatalf("EnsureDefaultAdmin failed: %v", err)
	}
	admin, err := repo.GetByEmail("admin@example.com")
	if err != nil {
		t.Fatalf("Expected the admin account to exist: %v", err)
	}
	if !admin.IsAdmin() {
		t.Error("Expected the default account to be an admin")
	}

	// With an existing account, nothing happens
	if err = svc.EnsureDefaultAdmin("other@example.com", "changeme"); err != nil {
		t.Fatalf("EnsureDefaultAdmin failed: %v", err)
	}
	if num, _ := repo.Count(); num != 1 {
		t.Errorf("Expected exactly one account, got %d", num)
	}
}
