package ports

import (
	"context"
	"time"

	"paideia/contexts/identity-access/identity-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Repository is the read boundary for identity resolution plus the session
// write boundary for login/logout. Resolution itself performs no writes.
type Repository interface {
	FindUserByID(ctx context.Context, userID string) (entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (entities.User, error)
	FindUserByAPIKeyIndex(ctx context.Context, index string) (entities.User, error)

	CreateSession(ctx context.Context, session entities.Session) error
	FindSession(ctx context.Context, token string) (entities.Session, error)
	DeleteSession(ctx context.Context, token string) error
}
