package profilelifecycle

import (
	"log/slog"

	"gorm.io/gorm"

	eventsadapter "paideia/contexts/identity-access/profile-lifecycle-service/adapters/events"
	"paideia/contexts/identity-access/profile-lifecycle-service/adapters/memory"
	postgresadapter "paideia/contexts/identity-access/profile-lifecycle-service/adapters/postgres"
	"paideia/contexts/identity-access/profile-lifecycle-service/application/commands"
	"paideia/contexts/identity-access/profile-lifecycle-service/application/queries"
	"paideia/contexts/identity-access/profile-lifecycle-service/application/workers"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
	"paideia/internal/platform/messaging"
)

// Module is the profile-lifecycle composition root: user lifecycle commands,
// the user view query, and the consistency/outbox workers.
type Module struct {
	CreateUser  commands.CreateUserUseCase
	ChangeRole  commands.ChangeRoleUseCase
	DeleteUser  commands.DeleteUserUseCase
	APIKeys     commands.APIKeyUseCase
	GetUser     queries.GetUserUseCase
	Auditor     workers.ConsistencyAuditor
	OutboxRelay workers.OutboxRelay
}

// Dependencies wires the module against any Repository implementation.
type Dependencies struct {
	Repository ports.Repository
	Audit      ports.AuditRepository
	Outbox     ports.OutboxRepository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDs        ports.IDGenerator
	BatchSize  int
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) *Module {
	return &Module{
		CreateUser: commands.CreateUserUseCase{
			Repository:  deps.Repository,
			Clock:       deps.Clock,
			IDGenerator: deps.IDs,
			Logger:      deps.Logger,
		},
		ChangeRole: commands.ChangeRoleUseCase{
			Repository:  deps.Repository,
			IDGenerator: deps.IDs,
			Logger:      deps.Logger,
		},
		DeleteUser: commands.DeleteUserUseCase{
			Repository:  deps.Repository,
			IDGenerator: deps.IDs,
			Logger:      deps.Logger,
		},
		APIKeys: commands.APIKeyUseCase{
			Repository:  deps.Repository,
			IDGenerator: deps.IDs,
			Logger:      deps.Logger,
		},
		GetUser: queries.GetUserUseCase{
			Repository: deps.Repository,
			Logger:     deps.Logger,
		},
		Auditor: workers.ConsistencyAuditor{
			Audit:       deps.Audit,
			Clock:       deps.Clock,
			IDGenerator: deps.IDs,
			Logger:      deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewPostgresModule wires the module against the Postgres adapter and the
// in-process bus.
func NewPostgresModule(db *gorm.DB, bus *messaging.Bus, batchSize int, logger *slog.Logger) *Module {
	repo := postgresadapter.NewRepository(db, logger)
	return NewModule(Dependencies{
		Repository: repo,
		Audit:      repo,
		Outbox:     repo,
		Publisher:  eventsadapter.NewBusPublisher(bus),
		Clock:      postgresadapter.SystemClock{},
		IDs:        postgresadapter.UUIDGenerator{},
		BatchSize:  batchSize,
		Logger:     logger,
	})
}

// NewInMemoryModule wires the module against the memory store, for tests and
// local runs. The store is returned so callers can seed and inspect state.
func NewInMemoryModule(bus *messaging.Bus, logger *slog.Logger) (*Module, *memory.Store) {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Audit:      store,
		Outbox:     store,
		Publisher:  eventsadapter.NewBusPublisher(bus),
		Clock:      store,
		IDs:        memory.NewSequenceIDGenerator("id"),
		Logger:     logger,
	})
	return module, store
}
