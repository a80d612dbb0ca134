package commands

import (
	"context"
	"log/slog"
	"strings"

	"paideia/contexts/identity-access/profile-lifecycle-service/application"
	domainerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
)

// DeleteUserCommand contains transport-agnostic input for user deletion.
type DeleteUserCommand struct {
	UserID string
}

// DeleteUserUseCase coordinates deletion: satellites and strict-ownership
// rows removed, attribution references nulled, user row last, all in one
// transaction. A blocked cascade aborts the whole deletion with a
// named-relation conflict.
type DeleteUserUseCase struct {
	Repository  ports.Repository
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u DeleteUserUseCase) Execute(ctx context.Context, cmd DeleteUserCommand) error {
	logger := application.ResolveLogger(u.Logger)

	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domainerrors.ErrInvalidRequest
	}
	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}

	if err := u.Repository.DeleteUser(ctx, ports.DeleteUserInput{
		UserID:   userID,
		OutboxID: outboxID,
	}); err != nil {
		logger.Error("user deletion failed",
			"event", "lifecycle_delete_user_failed",
			"module", "identity-access/profile-lifecycle-service",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("user deleted",
		"event", "lifecycle_user_deleted",
		"module", "identity-access/profile-lifecycle-service",
		"layer", "application",
		"user_id", userID,
	)
	return nil
}
