package ports

import (
	"context"
	"time"

	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
	"paideia/internal/shared/events"
	"paideia/internal/shared/outbox"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for user/profile/outbox rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// CreateUserInput is persisted atomically: user row, satellite row (when
// Seed is set), and outbox event all in one transaction.
type CreateUserInput struct {
	User     identityentities.User
	Seed     *entities.ProfileSeed
	OutboxID string
}

// ChangeRoleInput drives an atomic role transition. The adapter locks the
// user row, plans the transition against the role read under that lock, and
// swaps satellites in the same transaction. ProfileID is the pre-generated
// id for the new satellite, if one is inserted.
type ChangeRoleInput struct {
	UserID    string
	NewRole   identityentities.Role
	ProfileID string
	OutboxID  string
}

// DeleteUserInput drives an atomic user deletion: satellites, the relation
// registry's cascades and null-outs, the user row, and the outbox event.
type DeleteUserInput struct {
	UserID   string
	OutboxID string
}

// UpdateAPIKeyInput rotates or toggles a user's API key triple. An empty
// APIKey keeps the stored key and only toggles Enabled.
type UpdateAPIKeyInput struct {
	UserID      string
	APIKey      string
	APIKeyIndex string
	Enabled     bool
}

// UserView is a user with whichever satellite its role carries.
type UserView struct {
	User              identityentities.User
	AdminProfile      *entities.AdminProfile
	InstructorProfile *entities.InstructorProfile
	TraineeProfile    *entities.TraineeProfile
}

// Repository is the transactional write boundary for users and satellites.
// Implementations execute each method as one data-store transaction.
type Repository interface {
	CreateUser(ctx context.Context, input CreateUserInput) (identityentities.User, error)
	ChangeRole(ctx context.Context, input ChangeRoleInput) (identityentities.User, error)
	DeleteUser(ctx context.Context, input DeleteUserInput) error
	UpdateAPIKey(ctx context.Context, input UpdateAPIKeyInput) (identityentities.User, error)
	GetUser(ctx context.Context, userID string) (UserView, error)
}

// OrphanUser is a role-bearing user missing its satellite.
type OrphanUser struct {
	UserID    string
	Role      identityentities.Role
	CreatedAt time.Time
}

// StaleProfile is a satellite whose owning user is absent or now holds a
// different role.
type StaleProfile struct {
	ProfileTable string
	ProfileID    string
	UserID       string
	Reason       string
}

// AuditRepository is the consistency auditor's scan/repair boundary. Repair
// is insert-if-absent under the satellite's user_id uniqueness constraint,
// never read-then-write.
type AuditRepository interface {
	ListUsersMissingProfile(ctx context.Context) ([]OrphanUser, error)
	ListStaleProfiles(ctx context.Context) ([]StaleProfile, error)
	RepairProfile(ctx context.Context, seed entities.ProfileSeed) (bool, error)
}

// OutboxRepository supports worker relay polling and acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher emits lifecycle events to the event bus adapter.
type EventPublisher interface {
	PublishLifecycleEvent(ctx context.Context, event events.Envelope) error
}

// SourceService tags outbox envelopes emitted by this module.
const SourceService = "identity-access/profile-lifecycle-service"

// RoleChangePayload is the user_role_changed event body.
type RoleChangePayload struct {
	UserID  string `json:"user_id"`
	OldRole string `json:"old_role"`
	NewRole string `json:"new_role"`
}

// NewLifecycleEnvelope composes the shared envelope for a lifecycle event.
// Adapters call this inside the write transaction so the event is stored
// with the state change it describes.
func NewLifecycleEnvelope(outboxID, eventType, userID string, payload any, occurredAt time.Time) events.Envelope {
	return events.Envelope{
		EventID:        outboxID,
		EventType:      eventType,
		SourceService:  SourceService,
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     "user",
		EntityID:       userID,
		PayloadVersion: 1,
		Payload:        payload,
	}
}
