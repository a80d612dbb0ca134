package outbox

// Outbox row persisted inside the same DB transaction as state changes.
// The relay worker reads pending rows and publishes to the message bus.
type Message struct {
	ID         string
	EventType  string
	Payload    []byte
	Status     string // pending, published, failed
	RetryCount int
}

const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"
)
