package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"paideia/contexts/identity-access/access-policy-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/access-policy-service/domain/errors"
	"paideia/contexts/identity-access/access-policy-service/ports"
)

// Store is an in-memory executor over map-backed resource tables.
// It is intended for tests and local development wiring.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]ports.Row

	// QueryCount counts executor invocations so tests can assert that Deny
	// short-circuits before the store is touched.
	QueryCount int

	fixedNow   time.Time
	nowIsFixed bool
}

func NewStore() *Store {
	return &Store{
		tables: make(map[string][]ports.Row),
	}
}

// Seed appends rows to a table.
func (s *Store) Seed(table string, rows ...ports.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.tables[table] = append(s.tables[table], cloneRow(row))
	}
}

// FixNow pins the clock for deterministic created_at defaults.
func (s *Store) FixNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedNow = now.UTC()
	s.nowIsFixed = true
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nowIsFixed {
		return s.fixedNow
	}
	return time.Now().UTC()
}

func (s *Store) List(
	_ context.Context,
	policy entities.ResourcePolicy,
	decision entities.Decision,
	query ports.ResourceQuery,
) ([]ports.Row, error) {
	s.mu.Lock()
	s.QueryCount++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.Row
	for _, row := range s.tables[policy.Table] {
		if !s.inScope(row, decision) {
			continue
		}
		if !matchesFilters(row, query.Filters) {
			continue
		}
		out = append(out, cloneRow(row))
	}

	if query.OrderBy != "" {
		column := query.OrderBy
		desc := query.Desc
		sort.SliceStable(out, func(i, j int) bool {
			less := fmt.Sprint(out[i][column]) < fmt.Sprint(out[j][column])
			if desc {
				return !less
			}
			return less
		})
	}
	if query.Offset > 0 {
		if query.Offset >= len(out) {
			return nil, nil
		}
		out = out[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(out) {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, policy entities.ResourcePolicy, row ports.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCount++

	id := fmt.Sprint(row["id"])
	for _, existing := range s.tables[policy.Table] {
		if fmt.Sprint(existing["id"]) == id {
			return domainerrors.ErrDuplicateRow
		}
	}
	s.tables[policy.Table] = append(s.tables[policy.Table], cloneRow(row))
	return nil
}

func (s *Store) Update(
	_ context.Context,
	policy entities.ResourcePolicy,
	decision entities.Decision,
	rowID string,
	changes ports.Row,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCount++

	for _, row := range s.tables[policy.Table] {
		if fmt.Sprint(row["id"]) != rowID || !s.inScope(row, decision) {
			continue
		}
		for column, value := range changes {
			row[column] = value
		}
		return nil
	}
	return domainerrors.ErrRowNotFound
}

func (s *Store) Delete(
	_ context.Context,
	policy entities.ResourcePolicy,
	decision entities.Decision,
	rowID string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCount++

	rows := s.tables[policy.Table]
	for i, row := range rows {
		if fmt.Sprint(row["id"]) != rowID || !s.inScope(row, decision) {
			continue
		}
		s.tables[policy.Table] = append(rows[:i:i], rows[i+1:]...)
		return nil
	}
	return domainerrors.ErrRowNotFound
}

// inScope mirrors the postgres executor's owner predicate, including the
// one-hop subquery path. Callers hold at least the read lock.
func (s *Store) inScope(row ports.Row, decision entities.Decision) bool {
	if !decision.Filtered() {
		return true
	}
	owner := decision.Owner
	if owner.Direct() {
		return fmt.Sprint(row[owner.Column]) == decision.OwnerID
	}
	localKey := fmt.Sprint(row[owner.ViaLocalColumn])
	for _, related := range s.tables[owner.ViaTable] {
		if fmt.Sprint(related[owner.ViaKeyColumn]) == localKey {
			return fmt.Sprint(related[owner.ViaOwnerColumn]) == decision.OwnerID
		}
	}
	return false
}

func matchesFilters(row ports.Row, filters map[string]any) bool {
	for column, value := range filters {
		if fmt.Sprint(row[column]) != fmt.Sprint(value) {
			return false
		}
	}
	return true
}

func cloneRow(row ports.Row) ports.Row {
	clone := make(ports.Row, len(row))
	for column, value := range row {
		clone[column] = value
	}
	return clone
}

// RowCount reports table size for test assertions.
func (s *Store) RowCount(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[strings.TrimSpace(table)])
}
