package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"csecv/internal/domain"
	"csecv/internal/repository/sqlite"
)

func newUserService(t *testing.T, owners ...string) UserService {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return NewUserService(repo, domain.NewOwnerList(owners))
}

func TestRegister_AssignsUserRole(t *testing.T) {
	svc := newUserService(t)

	user, err := svc.Register(context.Background(), "a@ufps.edu.co", "a", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, domain.RoleUser, user.Role)
	require.Empty(t, user.PasswordHash, "sanitized user must not expose the hash")
	require.Empty(t, user.PasswordSalt)
}

func TestRegister_OwnerAllowList(t *testing.T) {
	svc := newUserService(t, "boss@ufps.edu.co")

	user, err := svc.Register(context.Background(), "Boss@UFPS.edu.co", "boss", "secret123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleOwner, user.Role)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newUserService(t)

	_, err := svc.Register(context.Background(), "a@ufps.edu.co", "a", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "A@UFPS.EDU.CO", "other", "secret456")
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthenticate(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.Register(context.Background(), "a@ufps.edu.co", "a", "secret123")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "a@ufps.edu.co", "secret123")
	require.NoError(t, err)
	require.Equal(t, "a", user.Username)

	_, err = svc.Authenticate(context.Background(), "a@ufps.edu.co", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "missing@ufps.edu.co", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc := newUserService(t)
	user, err := svc.Register(context.Background(), "a@ufps.edu.co", "a", "secret123")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, "wrong", "newsecret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "secret123", "newsecret1"))

	_, err = svc.Authenticate(context.Background(), "a@ufps.edu.co", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "a@ufps.edu.co", "newsecret1")
	require.NoError(t, err)
}

func TestAssignRole(t *testing.T) {
	svc := newUserService(t)
	user, err := svc.Register(context.Background(), "a@ufps.edu.co", "a", "secret123")
	require.NoError(t, err)

	updated, err := svc.AssignRole(context.Background(), user.ID, "news_editor")
	require.NoError(t, err)
	require.Equal(t, domain.RoleNewsEditor, updated.Role)

	_, err = svc.AssignRole(context.Background(), user.ID, "owner")
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.AssignRole(context.Background(), user.ID, "superuser")
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.AssignRole(context.Background(), "no-such-id", "admin")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestEffectiveRole_Overlay(t *testing.T) {
	svc := newUserService(t, "boss@ufps.edu.co")

	stored := &domain.User{Email: "boss@ufps.edu.co", Role: domain.RoleAdmin}
	require.Equal(t, domain.RoleOwner, svc.EffectiveRole(stored))

	plain := &domain.User{Email: "a@ufps.edu.co", Role: domain.RoleAdmin}
	require.Equal(t, domain.RoleAdmin, svc.EffectiveRole(plain))
}
