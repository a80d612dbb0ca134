package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"paideia/contexts/identity-access/identity-service/adapters/memory"
	"paideia/contexts/identity-access/identity-service/application"
	"paideia/contexts/identity-access/identity-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/identity-service/domain/errors"
)

func newService(t *testing.T) (application.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.FixNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return application.Service{
		Repo:       store,
		Clock:      store,
		SessionTTL: time.Hour,
	}, store
}

func seedActiveUser(store *memory.Store, id string, role entities.Role) entities.User {
	user := entities.User{
		ID:       id,
		Email:    id + "@example.com",
		Role:     role,
		IsActive: true,
	}
	store.SeedUser(user)
	return user
}

func TestResolveSessionReturnsPrincipal(t *testing.T) {
	svc, store := newService(t)
	user := seedActiveUser(store, "user-1", entities.RoleTrainee)
	require.NoError(t, store.CreateSession(context.Background(), entities.Session{
		Token:     "tok-1",
		UserID:    user.ID,
		ExpiresAt: store.Now().Add(time.Hour),
	}))

	principal := svc.Resolve(context.Background(), application.Credentials{SessionToken: "tok-1"})
	require.False(t, principal.IsAnonymous())
	require.Equal(t, user.ID, principal.ID)
	require.Equal(t, entities.RoleTrainee, principal.Role)
}

func TestResolveExpiredSessionIsAnonymous(t *testing.T) {
	svc, store := newService(t)
	user := seedActiveUser(store, "user-1", entities.RoleTrainee)
	require.NoError(t, store.CreateSession(context.Background(), entities.Session{
		Token:     "tok-expired",
		UserID:    user.ID,
		ExpiresAt: store.Now().Add(-time.Minute),
	}))

	principal := svc.Resolve(context.Background(), application.Credentials{SessionToken: "tok-expired"})
	require.True(t, principal.IsAnonymous())
}

func TestResolveUnknownTokenIsAnonymous(t *testing.T) {
	svc, _ := newService(t)
	principal := svc.Resolve(context.Background(), application.Credentials{SessionToken: "nope"})
	require.True(t, principal.IsAnonymous())
}

func TestResolveInactiveUserSessionStaysIdentified(t *testing.T) {
	svc, store := newService(t)
	store.SeedUser(entities.User{ID: "user-1", Email: "u@example.com", Role: entities.RoleAdmin, IsActive: false})
	require.NoError(t, store.CreateSession(context.Background(), entities.Session{
		Token:     "tok-1",
		UserID:    "user-1",
		ExpiresAt: store.Now().Add(time.Hour),
	}))

	// Deactivation is the policy layer's call; the resolver still identifies
	// the caller and carries the inactive flag on the principal.
	principal := svc.Resolve(context.Background(), application.Credentials{SessionToken: "tok-1"})
	require.False(t, principal.IsAnonymous())
	require.Equal(t, "user-1", principal.ID)
	require.False(t, principal.IsActive)
}

func TestResolveInactiveUserAPIKeyStaysIdentified(t *testing.T) {
	svc, store := newService(t)
	store.SeedUser(entities.User{
		ID:            "svc-1",
		Email:         "svc@example.com",
		Role:          entities.RoleService,
		IsActive:      false,
		APIKey:        "pk_abc",
		APIKeyEnabled: true,
	})

	principal := svc.Resolve(context.Background(), application.Credentials{Authorization: "Token pk_abc"})
	require.False(t, principal.IsAnonymous())
	require.Equal(t, "svc-1", principal.ID)
	require.False(t, principal.IsActive)
}

func TestResolveAPIKeyForServiceAccount(t *testing.T) {
	svc, store := newService(t)
	store.SeedUser(entities.User{
		ID:            "svc-1",
		Email:         "svc@example.com",
		Role:          entities.RoleService,
		IsActive:      true,
		APIKey:        "pk_abc",
		APIKeyEnabled: true,
	})

	principal := svc.Resolve(context.Background(), application.Credentials{Authorization: "Token pk_abc"})
	require.False(t, principal.IsAnonymous())
	require.Equal(t, "svc-1", principal.ID)
	require.Equal(t, entities.RoleService, principal.Role)
}

func TestResolveDisabledAPIKeyIsAnonymous(t *testing.T) {
	svc, store := newService(t)
	store.SeedUser(entities.User{
		ID:            "svc-1",
		Email:         "svc@example.com",
		Role:          entities.RoleService,
		IsActive:      true,
		APIKey:        "pk_abc",
		APIKeyEnabled: false,
	})

	principal := svc.Resolve(context.Background(), application.Credentials{Authorization: "Token pk_abc"})
	require.True(t, principal.IsAnonymous())
}

func TestResolveAPIKeyOnNonKeyRoleIsAnonymous(t *testing.T) {
	svc, store := newService(t)
	store.SeedUser(entities.User{
		ID:            "trainee-1",
		Email:         "t@example.com",
		Role:          entities.RoleTrainee,
		IsActive:      true,
		APIKey:        "pk_abc",
		APIKeyEnabled: true,
	})

	principal := svc.Resolve(context.Background(), application.Credentials{Authorization: "Token pk_abc"})
	require.True(t, principal.IsAnonymous())
}

func TestResolveWrongSchemeIsAnonymous(t *testing.T) {
	svc, store := newService(t)
	store.SeedUser(entities.User{
		ID:            "svc-1",
		Email:         "svc@example.com",
		Role:          entities.RoleService,
		IsActive:      true,
		APIKey:        "pk_abc",
		APIKeyEnabled: true,
	})

	principal := svc.Resolve(context.Background(), application.Credentials{Authorization: "Bearer pk_abc"})
	require.True(t, principal.IsAnonymous())
}

func TestResolveSessionWinsOverAPIKey(t *testing.T) {
	svc, store := newService(t)
	sessionUser := seedActiveUser(store, "user-1", entities.RoleTrainee)
	store.SeedUser(entities.User{
		ID:            "svc-1",
		Email:         "svc@example.com",
		Role:          entities.RoleService,
		IsActive:      true,
		APIKey:        "pk_abc",
		APIKeyEnabled: true,
	})
	require.NoError(t, store.CreateSession(context.Background(), entities.Session{
		Token:     "tok-1",
		UserID:    sessionUser.ID,
		ExpiresAt: store.Now().Add(time.Hour),
	}))

	principal := svc.Resolve(context.Background(), application.Credentials{
		SessionToken:  "tok-1",
		Authorization: "Token pk_abc",
	})
	require.Equal(t, sessionUser.ID, principal.ID)
}

func TestLoginIssuesSession(t *testing.T) {
	svc, store := newService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	store.SeedUser(entities.User{
		ID:           "user-1",
		Email:        "login@example.com",
		Role:         entities.RoleTrainee,
		IsActive:     true,
		PasswordHash: string(hash),
	})

	session, err := svc.Login(context.Background(), "Login@Example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "user-1", session.UserID)
	require.Equal(t, store.Now().Add(time.Hour), session.ExpiresAt)

	principal := svc.Resolve(context.Background(), application.Credentials{SessionToken: session.Token})
	require.Equal(t, "user-1", principal.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, store := newService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	store.SeedUser(entities.User{
		ID:           "user-1",
		Email:        "login@example.com",
		Role:         entities.RoleTrainee,
		IsActive:     true,
		PasswordHash: string(hash),
	})

	_, err = svc.Login(context.Background(), "login@example.com", "wrong")
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, store := newService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	store.SeedUser(entities.User{
		ID:           "user-1",
		Email:        "login@example.com",
		Role:         entities.RoleTrainee,
		IsActive:     false,
		PasswordHash: string(hash),
	})

	_, err = svc.Login(context.Background(), "login@example.com", "s3cret")
	require.ErrorIs(t, err, domainerrors.ErrUserInactive)
}

func TestLogoutMissingSessionIsNoError(t *testing.T) {
	svc, _ := newService(t)
	require.NoError(t, svc.Logout(context.Background(), "never-existed"))
}
