package events

import "time"

// Envelope is the shared event shape used in Paideia.
// Lifecycle events for users and profiles are published with this contract;
// keep fields backward compatible.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	CorrelationID  string    `json:"correlation_id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        any       `json:"payload"`
}

// Event types emitted by the profile-lifecycle service.
const (
	EventTypeUserCreated     = "identity.user_created"
	EventTypeUserRoleChanged = "identity.user_role_changed"
	EventTypeUserDeleted     = "identity.user_deleted"
)
