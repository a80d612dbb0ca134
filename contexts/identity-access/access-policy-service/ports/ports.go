package ports

import (
	"context"
	"time"

	"paideia/contexts/identity-access/access-policy-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Row is a generic resource row. The catalog spans many small tables; the
// executor moves rows as column→value maps instead of one struct per table.
type Row = map[string]any

// ResourceQuery is the caller-supplied portion of a list query. Filters are
// column equality predicates conjoined with AND; they can narrow the policy
// scope but never widen it.
type ResourceQuery struct {
	Filters map[string]any
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// Executor applies a policy decision to data-store queries. Implementations
// must conjoin a FilterBy owner predicate with every caller filter using AND
// only, and must never be called with a Deny decision.
type Executor interface {
	List(ctx context.Context, policy entities.ResourcePolicy, decision entities.Decision, query ResourceQuery) ([]Row, error)
	Insert(ctx context.Context, policy entities.ResourcePolicy, row Row) error
	Update(ctx context.Context, policy entities.ResourcePolicy, decision entities.Decision, rowID string, changes Row) error
	Delete(ctx context.Context, policy entities.ResourcePolicy, decision entities.Decision, rowID string) error
}
