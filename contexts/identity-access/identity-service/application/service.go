package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"paideia/contexts/identity-access/identity-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/identity-service/domain/errors"
	"paideia/contexts/identity-access/identity-service/ports"
)

// APIKeyScheme is the Authorization header scheme for key credentials.
const APIKeyScheme = "Token"

// Credentials carries the raw request credentials handed over by the HTTP
// layer: a session cookie value and/or the Authorization header value.
type Credentials struct {
	SessionToken  string
	Authorization string
}

type Service struct {
	Repo       ports.Repository
	Clock      ports.Clock
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// Resolve turns request credentials into a principal. It never errors for
// bad or missing credentials; every failure degrades to Anonymous so the
// policy layer decides the user-visible outcome. An inactive user with valid
// credentials is still identified; the principal carries IsActive=false and
// the policy layer denies it.
func (s Service) Resolve(ctx context.Context, creds Credentials) entities.Principal {
	if token := strings.TrimSpace(creds.SessionToken); token != "" {
		if principal, ok := s.resolveSession(ctx, token); ok {
			return principal
		}
	}
	if header := strings.TrimSpace(creds.Authorization); header != "" {
		if principal, ok := s.resolveAPIKey(ctx, header); ok {
			return principal
		}
	}
	return entities.Anonymous
}

func (s Service) resolveSession(ctx context.Context, token string) (entities.Principal, bool) {
	session, err := s.Repo.FindSession(ctx, token)
	if err != nil {
		return entities.Anonymous, false
	}
	if session.Expired(s.now()) {
		return entities.Anonymous, false
	}
	user, err := s.Repo.FindUserByID(ctx, session.UserID)
	if err != nil {
		return entities.Anonymous, false
	}
	// Inactive users still resolve; IsActive rides on the principal and the
	// policy layer denies them as identified callers.
	return entities.FromUser(user), true
}

func (s Service) resolveAPIKey(ctx context.Context, header string) (entities.Principal, bool) {
	scheme, rawKey, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, APIKeyScheme) {
		return entities.Anonymous, false
	}
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return entities.Anonymous, false
	}

	user, err := s.Repo.FindUserByAPIKeyIndex(ctx, entities.APIKeyIndex(rawKey))
	if err != nil {
		return entities.Anonymous, false
	}
	// A disabled key never resolves, regardless of value correctness.
	if !user.APIKeyEnabled {
		return entities.Anonymous, false
	}
	if !roleMayUseKeyAuth(user.Role) {
		ResolveLogger(s.Logger).Warn("api key matched user outside key-auth roles",
			"event", "identity_key_auth_role_rejected",
			"module", "identity-access/identity-service",
			"layer", "application",
			"user_id", user.ID,
			"role", string(user.Role),
		)
		return entities.Anonymous, false
	}
	return entities.FromUser(user), true
}

// Key authentication is reserved for machine-to-machine and admin callers.
func roleMayUseKeyAuth(role entities.Role) bool {
	return role == entities.RoleService || role == entities.RoleAdmin
}

// Login verifies email/password and issues a session.
func (s Service) Login(ctx context.Context, email, password string) (entities.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return entities.Session{}, domainerrors.ErrInvalidRequest
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return entities.Session{}, domainerrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return entities.Session{}, domainerrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return entities.Session{}, domainerrors.ErrUserInactive
	}

	now := s.now()
	session := entities.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL()),
	}
	if err := s.Repo.CreateSession(ctx, session); err != nil {
		return entities.Session{}, err
	}

	ResolveLogger(s.Logger).Info("session issued",
		"event", "identity_session_issued",
		"module", "identity-access/identity-service",
		"layer", "application",
		"user_id", user.ID,
	)
	return session, nil
}

// Logout removes a session. A missing session is not an error.
func (s Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.Repo.DeleteSession(ctx, token)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) sessionTTL() time.Duration {
	if s.SessionTTL <= 0 {
		return 24 * time.Hour
	}
	return s.SessionTTL
}
