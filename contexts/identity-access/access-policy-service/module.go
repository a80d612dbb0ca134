package accesspolicy

import (
	"log/slog"

	"paideia/contexts/identity-access/access-policy-service/adapters/memory"
	"paideia/contexts/identity-access/access-policy-service/application"
	"paideia/contexts/identity-access/access-policy-service/ports"
)

// Module is the access-policy composition root exposed to runtime wiring.
type Module struct {
	Service application.Service
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Registry application.Registry
	Executor ports.Executor
	Clock    ports.Clock
	Logger   *slog.Logger
}

// NewModule wires the evaluator and scoped executor using explicit ports.
func NewModule(deps Dependencies) Module {
	registry := deps.Registry
	if registry == nil {
		registry = application.DefaultRegistry()
	}
	return Module{
		Service: application.Service{
			Registry: registry,
			Executor: deps.Executor,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Registry: application.DefaultRegistry(),
		Executor: store,
		Clock:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
