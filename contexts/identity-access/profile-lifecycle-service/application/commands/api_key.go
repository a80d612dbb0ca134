package commands

import (
	"context"
	"log/slog"
	"strings"

	"paideia/contexts/identity-access/profile-lifecycle-service/application"
	domainerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

// RotateAPIKeyCommand issues a fresh key for a key-bearing user.
type RotateAPIKeyCommand struct {
	UserID string
}

// RotateAPIKeyResult carries the raw key, surfaced exactly once.
type RotateAPIKeyResult struct {
	User      identityentities.User
	RawAPIKey string
}

// SetAPIKeyEnabledCommand toggles the stored key without replacing it.
type SetAPIKeyEnabledCommand struct {
	UserID  string
	Enabled bool
}

// APIKeyUseCase manages the optional API-key triple on key-bearing users.
type APIKeyUseCase struct {
	Repository  ports.Repository
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u APIKeyUseCase) Rotate(ctx context.Context, cmd RotateAPIKeyCommand) (RotateAPIKeyResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return RotateAPIKeyResult{}, domainerrors.ErrInvalidRequest
	}

	view, err := u.Repository.GetUser(ctx, userID)
	if err != nil {
		return RotateAPIKeyResult{}, err
	}
	role := view.User.Role
	if role != identityentities.RoleService && role != identityentities.RoleAdmin {
		return RotateAPIKeyResult{}, domainerrors.ErrRoleNotKeyBearing
	}

	keyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RotateAPIKeyResult{}, err
	}
	rawKey := "pk_" + strings.ReplaceAll(keyID, "-", "")

	user, err := u.Repository.UpdateAPIKey(ctx, ports.UpdateAPIKeyInput{
		UserID:      userID,
		APIKey:      rawKey,
		APIKeyIndex: identityentities.APIKeyIndex(rawKey),
		Enabled:     true,
	})
	if err != nil {
		return RotateAPIKeyResult{}, err
	}

	application.ResolveLogger(u.Logger).Info("api key rotated",
		"event", "lifecycle_api_key_rotated",
		"module", "identity-access/profile-lifecycle-service",
		"layer", "application",
		"user_id", userID,
	)
	return RotateAPIKeyResult{User: user, RawAPIKey: rawKey}, nil
}

func (u APIKeyUseCase) SetEnabled(ctx context.Context, cmd SetAPIKeyEnabledCommand) (identityentities.User, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return identityentities.User{}, domainerrors.ErrInvalidRequest
	}

	view, err := u.Repository.GetUser(ctx, userID)
	if err != nil {
		return identityentities.User{}, err
	}
	if view.User.APIKeyIndex == "" {
		return identityentities.User{}, domainerrors.ErrAPIKeyNotIssued
	}

	user, err := u.Repository.UpdateAPIKey(ctx, ports.UpdateAPIKeyInput{
		UserID:  userID,
		Enabled: cmd.Enabled,
	})
	if err != nil {
		return identityentities.User{}, err
	}

	application.ResolveLogger(u.Logger).Info("api key toggled",
		"event", "lifecycle_api_key_toggled",
		"module", "identity-access/profile-lifecycle-service",
		"layer", "application",
		"user_id", userID,
		"enabled", cmd.Enabled,
	)
	return user, nil
}
