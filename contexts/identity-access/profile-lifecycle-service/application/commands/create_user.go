package commands

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"paideia/contexts/identity-access/profile-lifecycle-service/application"
	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

// CreateUserCommand contains transport-agnostic input for user creation.
type CreateUserCommand struct {
	Email      string
	FullName   string
	Password   string
	Role       string
	WithAPIKey bool
}

// CreateUserResult returns the stored user. RawAPIKey is surfaced exactly
// once, at issuance; only its lookup index is ever queried afterwards.
type CreateUserResult struct {
	User      identityentities.User
	RawAPIKey string
}

// CreateUserUseCase coordinates the create transition: user row plus exactly
// one satellite for role-bearing roles, none for service accounts, in one
// transaction.
type CreateUserUseCase struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CreateUserUseCase) Execute(ctx context.Context, cmd CreateUserCommand) (CreateUserResult, error) {
	logger := application.ResolveLogger(u.Logger)

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || !strings.Contains(email, "@") || strings.TrimSpace(cmd.Password) == "" {
		return CreateUserResult{}, domainerrors.ErrInvalidRequest
	}
	role, ok := identityentities.ParseRole(cmd.Role)
	if !ok {
		return CreateUserResult{}, domainerrors.ErrInvalidRole
	}
	if cmd.WithAPIKey && role != identityentities.RoleService && role != identityentities.RoleAdmin {
		return CreateUserResult{}, domainerrors.ErrRoleNotKeyBearing
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return CreateUserResult{}, err
	}

	userID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateUserResult{}, err
	}
	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateUserResult{}, err
	}

	now := u.Clock.Now().UTC()
	user := identityentities.User{
		ID:           userID,
		Email:        email,
		FullName:     strings.TrimSpace(cmd.FullName),
		Role:         role,
		IsActive:     true,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var rawKey string
	if cmd.WithAPIKey {
		keyID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return CreateUserResult{}, err
		}
		rawKey = "pk_" + strings.ReplaceAll(keyID, "-", "")
		user.APIKey = rawKey
		user.APIKeyIndex = identityentities.APIKeyIndex(rawKey)
		user.APIKeyEnabled = true
	}

	input := ports.CreateUserInput{User: user, OutboxID: outboxID}
	if role.RequiresProfile() {
		profileID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return CreateUserResult{}, err
		}
		seed := entities.NewProfileSeed(profileID, userID, role, now)
		input.Seed = &seed
	}

	stored, err := u.Repository.CreateUser(ctx, input)
	if err != nil {
		logger.Error("create user failed",
			"event", "lifecycle_create_user_failed",
			"module", "identity-access/profile-lifecycle-service",
			"layer", "application",
			"email", email,
			"role", string(role),
			"error", err.Error(),
		)
		return CreateUserResult{}, err
	}

	logger.Info("user created",
		"event", "lifecycle_user_created",
		"module", "identity-access/profile-lifecycle-service",
		"layer", "application",
		"user_id", stored.ID,
		"role", string(stored.Role),
	)
	return CreateUserResult{User: stored, RawAPIKey: rawKey}, nil
}
