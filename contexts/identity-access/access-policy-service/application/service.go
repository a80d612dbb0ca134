package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"paideia/contexts/identity-access/access-policy-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/access-policy-service/domain/errors"
	"paideia/contexts/identity-access/access-policy-service/domain/services"
	"paideia/contexts/identity-access/access-policy-service/ports"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

// Service combines the pure policy evaluator with the visibility-scoped
// query executor: Allow runs the caller query unmodified, FilterBy conjoins
// the owner predicate, Deny returns before the store is touched.
type Service struct {
	Registry Registry
	Executor ports.Executor
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Evaluate returns the raw policy decision for (principal, resource, op).
// The HTTP layer applies it before touching storage.
func (s Service) Evaluate(
	principal identityentities.Principal,
	resource string,
	op entities.Operation,
) (entities.Decision, error) {
	if !op.Valid() {
		return entities.Decision{}, domainerrors.ErrUnknownOperation
	}
	policy, ok := s.Registry.Lookup(strings.TrimSpace(resource))
	if !ok {
		return entities.Decision{}, domainerrors.ErrUnknownResource
	}
	return services.Evaluate(principal, policy, op), nil
}

// List executes a visibility-scoped read.
func (s Service) List(
	ctx context.Context,
	principal identityentities.Principal,
	resource string,
	query ports.ResourceQuery,
) ([]ports.Row, error) {
	policy, decision, err := s.decide(principal, resource, entities.OperationRead)
	if err != nil {
		return nil, err
	}
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	rows, err := s.Executor.List(ctx, policy, decision, query)
	if err != nil {
		return nil, err
	}
	ResolveLogger(s.Logger).Debug("scoped list executed",
		"event", "policy_scoped_list",
		"module", "identity-access/access-policy-service",
		"layer", "application",
		"resource", policy.Resource,
		"effect", string(decision.Effect),
		"row_count", len(rows),
	)
	return rows, nil
}

// Create inserts a row after the shape's create rule allows it. A FilterBy
// decision means the create is owner-bound: the owner column is pinned to the
// acting principal and a conflicting caller-supplied value is rejected, not
// silently rewritten.
func (s Service) Create(
	ctx context.Context,
	principal identityentities.Principal,
	resource string,
	row ports.Row,
) (ports.Row, error) {
	policy, decision, err := s.decide(principal, resource, entities.OperationCreate)
	if err != nil {
		return nil, err
	}

	prepared := make(ports.Row, len(row)+2)
	for column, value := range row {
		if !validIdentifier(column) {
			return nil, domainerrors.ErrInvalidQuery
		}
		prepared[column] = value
	}
	if policy.Owner.Direct() {
		if decision.Filtered() {
			if supplied, ok := prepared[policy.Owner.Column]; ok && supplied != decision.OwnerID {
				return nil, domainerrors.ErrForbidden
			}
			prepared[policy.Owner.Column] = decision.OwnerID
		} else if _, ok := prepared[policy.Owner.Column]; !ok {
			prepared[policy.Owner.Column] = principal.ID
		}
	}
	if _, ok := prepared["id"]; !ok {
		prepared["id"] = uuid.NewString()
	}
	if _, ok := prepared["created_at"]; !ok {
		prepared["created_at"] = s.now()
	}

	if err := s.Executor.Insert(ctx, policy, prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

// Update mutates one row within the decision's visibility scope.
func (s Service) Update(
	ctx context.Context,
	principal identityentities.Principal,
	resource string,
	rowID string,
	changes ports.Row,
) error {
	policy, decision, err := s.decide(principal, resource, entities.OperationUpdate)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rowID) == "" || len(changes) == 0 {
		return domainerrors.ErrInvalidQuery
	}
	for column := range changes {
		if !validIdentifier(column) {
			return domainerrors.ErrInvalidQuery
		}
		// An owner-scoped caller cannot reassign the column its visibility
		// hangs on, whether the owner is a direct column or one hop away.
		if decision.Filtered() && column == policy.Owner.LocalColumn() {
			return domainerrors.ErrForbidden
		}
	}
	return s.Executor.Update(ctx, policy, decision, strings.TrimSpace(rowID), changes)
}

// Delete removes one row within the decision's visibility scope.
func (s Service) Delete(
	ctx context.Context,
	principal identityentities.Principal,
	resource string,
	rowID string,
) error {
	policy, decision, err := s.decide(principal, resource, entities.OperationDelete)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rowID) == "" {
		return domainerrors.ErrInvalidQuery
	}
	return s.Executor.Delete(ctx, policy, decision, strings.TrimSpace(rowID))
}

// decide evaluates and short-circuits Deny into the transport-mappable
// sentinel errors before any executor call.
func (s Service) decide(
	principal identityentities.Principal,
	resource string,
	op entities.Operation,
) (entities.ResourcePolicy, entities.Decision, error) {
	policy, ok := s.Registry.Lookup(strings.TrimSpace(resource))
	if !ok {
		return entities.ResourcePolicy{}, entities.Decision{}, domainerrors.ErrUnknownResource
	}
	decision := services.Evaluate(principal, policy, op)
	if decision.Denied() {
		ResolveLogger(s.Logger).Debug("policy denied",
			"event", "policy_denied",
			"module", "identity-access/access-policy-service",
			"layer", "application",
			"resource", policy.Resource,
			"operation", string(op),
			"reason", decision.Reason,
			"principal_id", principal.ID,
		)
		return entities.ResourcePolicy{}, entities.Decision{}, s.denyError(principal, decision)
	}
	return policy, decision, nil
}

// The 401 vs 403 distinction belongs to the caller; surface it through two
// sentinel errors instead of one opaque deny.
func (s Service) denyError(principal identityentities.Principal, _ entities.Decision) error {
	if principal.IsAnonymous() {
		return domainerrors.ErrUnauthenticated
	}
	return domainerrors.ErrForbidden
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func validateQuery(query ports.ResourceQuery) error {
	for column := range query.Filters {
		if !validIdentifier(column) {
			return domainerrors.ErrInvalidQuery
		}
	}
	if query.OrderBy != "" && !validIdentifier(query.OrderBy) {
		return domainerrors.ErrInvalidQuery
	}
	if query.Limit < 0 || query.Offset < 0 {
		return domainerrors.ErrInvalidQuery
	}
	return nil
}

// validIdentifier accepts plain snake_case column names only; everything the
// executor interpolates as an identifier passes through here first.
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
