package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock reads wall-clock time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator issues random UUIDs for user, profile, and outbox rows.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
