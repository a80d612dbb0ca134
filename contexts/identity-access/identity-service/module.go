package identity

import (
	"log/slog"
	"time"

	"paideia/contexts/identity-access/identity-service/adapters/memory"
	"paideia/contexts/identity-access/identity-service/application"
	"paideia/contexts/identity-access/identity-service/ports"
)

// Module is the identity-service composition root exposed to runtime wiring.
type Module struct {
	Service application.Service
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// NewModule wires the identity resolver and session use-cases.
func NewModule(deps Dependencies) Module {
	return Module{
		Service: application.Service{
			Repo:       deps.Repository,
			Clock:      deps.Clock,
			SessionTTL: deps.SessionTTL,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		SessionTTL: 24 * time.Hour,
		Logger:     logger,
	})
	module.Store = store
	return module
}
