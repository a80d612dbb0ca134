package queries

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
)

// GetUserUseCase loads a user together with its satellite profile.
type GetUserUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (u GetUserUseCase) Execute(ctx context.Context, userID string) (ports.UserView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ports.UserView{}, domainerrors.ErrInvalidRequest
	}
	return u.Repository.GetUser(ctx, userID)
}
