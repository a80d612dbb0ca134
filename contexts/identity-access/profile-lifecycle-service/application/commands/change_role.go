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

// ChangeRoleCommand contains transport-agnostic input for a role transition.
type ChangeRoleCommand struct {
	UserID  string
	NewRole string
}

// ChangeRoleUseCase coordinates the R1→R2 transition. The repository locks
// the user row and swaps satellites in the same transaction, so no reader
// ever observes zero or two satellites for the user.
type ChangeRoleUseCase struct {
	Repository  ports.Repository
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u ChangeRoleUseCase) Execute(ctx context.Context, cmd ChangeRoleCommand) (identityentities.User, error) {
	logger := application.ResolveLogger(u.Logger)

	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return identityentities.User{}, domainerrors.ErrInvalidRequest
	}
	newRole, ok := identityentities.ParseRole(cmd.NewRole)
	if !ok {
		return identityentities.User{}, domainerrors.ErrInvalidRole
	}

	profileID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return identityentities.User{}, err
	}
	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return identityentities.User{}, err
	}

	user, err := u.Repository.ChangeRole(ctx, ports.ChangeRoleInput{
		UserID:    userID,
		NewRole:   newRole,
		ProfileID: profileID,
		OutboxID:  outboxID,
	})
	if err != nil {
		logger.Error("role change failed",
			"event", "lifecycle_role_change_failed",
			"module", "identity-access/profile-lifecycle-service",
			"layer", "application",
			"user_id", userID,
			"new_role", string(newRole),
			"error", err.Error(),
		)
		return identityentities.User{}, err
	}

	logger.Info("role changed",
		"event", "lifecycle_role_changed",
		"module", "identity-access/profile-lifecycle-service",
		"layer", "application",
		"user_id", user.ID,
		"new_role", string(user.Role),
	)
	return user, nil
}
