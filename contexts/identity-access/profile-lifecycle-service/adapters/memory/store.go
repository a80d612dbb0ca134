// Package memory provides an in-memory Repository, AuditRepository, and
// OutboxRepository for tests and local runs. All state sits behind one mutex;
// each Repository method applies its changes atomically against a working
// copy so a failed step leaves the store untouched, mirroring the Postgres
// adapter's transaction semantics.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
	"paideia/contexts/identity-access/profile-lifecycle-service/domain/services"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
	"paideia/internal/shared/events"
	"paideia/internal/shared/outbox"
)

type profileRow struct {
	ID        string
	UserID    string
	Role      identityentities.Role
	Field     string // admin_level, staff_code, or enrollment_code value
	CreatedAt time.Time
}

type Store struct {
	mu       sync.Mutex
	users    map[string]identityentities.User
	profiles map[identityentities.Role]map[string]profileRow // keyed by user id
	tables   map[string][]map[string]any
	outbox   []outbox.Message
	now      time.Time

	// FailTable injects an error on any delete or null-out touching the
	// named resource table, for exercising aborted deletions.
	FailTable map[string]error
	// FailRepair injects an error on RepairProfile for the named user id.
	FailRepair map[string]error
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]identityentities.User),
		profiles: map[identityentities.Role]map[string]profileRow{
			identityentities.RoleAdmin:      {},
			identityentities.RoleInstructor: {},
			identityentities.RoleTrainee:    {},
		},
		tables:     make(map[string][]map[string]any),
		FailTable:  make(map[string]error),
		FailRepair: make(map[string]error),
	}
}

// FixNow pins the clock used for updated_at and outbox timestamps.
func (s *Store) FixNow(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t.UTC()
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock()
}

func (s *Store) clock() time.Time {
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

// SeedUser inserts a user row directly, bypassing lifecycle planning. Tests
// use it to construct inconsistent states the auditor should find.
func (s *Store) SeedUser(user identityentities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// SeedProfile inserts a satellite row directly.
func (s *Store) SeedProfile(seed entities.ProfileSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putProfile(seed)
}

// SeedRow appends a resource-table row for delete-policy tests.
func (s *Store) SeedRow(table string, row map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]any, len(row))
	for k, v := range row {
		copied[k] = v
	}
	s.tables[table] = append(s.tables[table], copied)
}

// RowCount reports rows in a resource table.
func (s *Store) RowCount(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

// Rows returns a copy of a resource table's rows.
func (s *Store) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		copied := make(map[string]any, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out = append(out, copied)
	}
	return out
}

// ProfileCount reports satellite rows for a role.
func (s *Store) ProfileCount(role identityentities.Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles[role])
}

// OutboxMessages returns a copy of the outbox log.
func (s *Store) OutboxMessages() []outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]outbox.Message, len(s.outbox))
	copy(out, s.outbox)
	return out
}

func (s *Store) putProfile(seed entities.ProfileSeed) {
	row := profileRow{
		ID:        seed.ProfileID,
		UserID:    seed.UserID,
		Role:      seed.Role,
		CreatedAt: seed.CreatedAt,
	}
	switch seed.Role {
	case identityentities.RoleAdmin:
		row.Field = seed.AdminLevel
	case identityentities.RoleInstructor:
		row.Field = seed.StaffCode
	case identityentities.RoleTrainee:
		row.Field = seed.EnrollmentCode
	}
	s.profiles[seed.Role][seed.UserID] = row
}

func (s *Store) appendOutbox(envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outbox.Message{
		ID:        envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    outbox.StatusPending,
	})
	return nil
}

func (s *Store) CreateUser(_ context.Context, input ports.CreateUserInput) (identityentities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == input.User.Email {
			return identityentities.User{}, domainerrors.ErrEmailTaken
		}
	}
	if input.Seed != nil {
		if _, ok := s.profiles[input.Seed.Role][input.Seed.UserID]; ok {
			return identityentities.User{}, domainerrors.ErrProfileConflict
		}
	}

	s.users[input.User.ID] = input.User
	if input.Seed != nil {
		s.putProfile(*input.Seed)
	}
	if err := s.appendOutbox(ports.NewLifecycleEnvelope(
		input.OutboxID,
		events.EventTypeUserCreated,
		input.User.ID,
		map[string]string{"user_id": input.User.ID, "role": string(input.User.Role), "email": input.User.Email},
		input.User.CreatedAt,
	)); err != nil {
		return identityentities.User{}, err
	}
	return input.User, nil
}

func (s *Store) ChangeRole(_ context.Context, input ports.ChangeRoleInput) (identityentities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[input.UserID]
	if !ok {
		return identityentities.User{}, domainerrors.ErrUserNotFound
	}

	oldRole := user.Role
	plan := services.PlanRoleChange(oldRole, input.NewRole)
	if plan.Empty() && oldRole == input.NewRole {
		return user, nil
	}

	if plan.RemoveProfile != "" {
		delete(s.profiles[plan.RemoveProfile], user.ID)
	}
	if plan.InsertProfile != "" {
		if _, exists := s.profiles[plan.InsertProfile][user.ID]; exists {
			return identityentities.User{}, domainerrors.ErrProfileConflict
		}
		s.putProfile(entities.NewProfileSeed(input.ProfileID, user.ID, plan.InsertProfile, user.CreatedAt))
	}

	now := s.clock()
	user.Role = input.NewRole
	user.UpdatedAt = now
	s.users[user.ID] = user

	if err := s.appendOutbox(ports.NewLifecycleEnvelope(
		input.OutboxID,
		events.EventTypeUserRoleChanged,
		user.ID,
		ports.RoleChangePayload{UserID: user.ID, OldRole: string(oldRole), NewRole: string(input.NewRole)},
		now,
	)); err != nil {
		return identityentities.User{}, err
	}
	return user, nil
}

func (s *Store) DeleteUser(_ context.Context, input ports.DeleteUserInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[input.UserID]
	if !ok {
		return domainerrors.ErrUserNotFound
	}

	// Work on a copy of the resource tables so a blocked cascade leaves the
	// committed state untouched.
	working := make(map[string][]map[string]any, len(s.tables))
	for table, rows := range s.tables {
		copied := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			rc := make(map[string]any, len(row))
			for k, v := range row {
				rc[k] = v
			}
			copied = append(copied, rc)
		}
		working[table] = copied
	}

	for _, relation := range entities.UserRelations() {
		if err := s.applyRelation(working, relation, user.ID); err != nil {
			return domainerrors.NewRelationConflict(relation.Name, err)
		}
	}

	if plan := services.PlanDelete(user.Role); plan.RemoveProfile != "" {
		delete(s.profiles[plan.RemoveProfile], user.ID)
	}
	s.tables = working
	delete(s.users, user.ID)

	return s.appendOutbox(ports.NewLifecycleEnvelope(
		input.OutboxID,
		events.EventTypeUserDeleted,
		user.ID,
		map[string]string{"user_id": user.ID, "role": string(user.Role)},
		s.clock(),
	))
}

func (s *Store) applyRelation(working map[string][]map[string]any, relation entities.UserRelation, userID string) error {
	if err, ok := s.FailTable[relation.Table]; ok {
		return err
	}

	owned := func(row map[string]any) bool {
		if relation.OneHop() {
			key := row[relation.Column]
			for _, parent := range working[relation.ViaTable] {
				if fmt.Sprint(parent[relation.ViaKeyColumn]) == fmt.Sprint(key) &&
					fmt.Sprint(parent[relation.ViaOwnerColumn]) == userID {
					return true
				}
			}
			return false
		}
		value, ok := row[relation.Column]
		return ok && value != nil && fmt.Sprint(value) == userID
	}

	switch relation.Policy {
	case entities.DeletePolicySetNull:
		for _, row := range working[relation.Table] {
			if owned(row) {
				row[relation.Column] = nil
			}
		}
		return nil
	case entities.DeletePolicyCascade:
		kept := working[relation.Table][:0]
		for _, row := range working[relation.Table] {
			if !owned(row) {
				kept = append(kept, row)
			}
		}
		working[relation.Table] = kept
		return nil
	default:
		return fmt.Errorf("unknown delete policy %q", relation.Policy)
	}
}

func (s *Store) UpdateAPIKey(_ context.Context, input ports.UpdateAPIKeyInput) (identityentities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[input.UserID]
	if !ok {
		return identityentities.User{}, domainerrors.ErrUserNotFound
	}
	user.APIKeyEnabled = input.Enabled
	if input.APIKey != "" {
		user.APIKey = input.APIKey
		user.APIKeyIndex = input.APIKeyIndex
	}
	user.UpdatedAt = s.clock()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (ports.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ports.UserView{}, domainerrors.ErrUserNotFound
	}
	view := ports.UserView{User: user}
	if row, ok := s.profiles[user.Role][user.ID]; ok {
		switch user.Role {
		case identityentities.RoleAdmin:
			view.AdminProfile = &entities.AdminProfile{ID: row.ID, UserID: row.UserID, AdminLevel: row.Field, CreatedAt: row.CreatedAt}
		case identityentities.RoleInstructor:
			view.InstructorProfile = &entities.InstructorProfile{ID: row.ID, UserID: row.UserID, StaffCode: row.Field, CreatedAt: row.CreatedAt}
		case identityentities.RoleTrainee:
			view.TraineeProfile = &entities.TraineeProfile{ID: row.ID, UserID: row.UserID, EnrollmentCode: row.Field, CreatedAt: row.CreatedAt}
		}
	}
	return view, nil
}

func (s *Store) ListUsersMissingProfile(_ context.Context) ([]ports.OrphanUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orphans []ports.OrphanUser
	for _, user := range s.users {
		if !user.Role.RequiresProfile() {
			continue
		}
		if _, ok := s.profiles[user.Role][user.ID]; !ok {
			orphans = append(orphans, ports.OrphanUser{UserID: user.ID, Role: user.Role, CreatedAt: user.CreatedAt})
		}
	}
	return orphans, nil
}

func (s *Store) ListStaleProfiles(_ context.Context) ([]ports.StaleProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := map[identityentities.Role]string{
		identityentities.RoleAdmin:      "admin_profiles",
		identityentities.RoleInstructor: "instructor_profiles",
		identityentities.RoleTrainee:    "trainee_profiles",
	}
	var stale []ports.StaleProfile
	for role, rows := range s.profiles {
		for _, row := range rows {
			user, ok := s.users[row.UserID]
			switch {
			case !ok:
				stale = append(stale, ports.StaleProfile{ProfileTable: tables[role], ProfileID: row.ID, UserID: row.UserID, Reason: "user_missing"})
			case user.Role != role:
				stale = append(stale, ports.StaleProfile{ProfileTable: tables[role], ProfileID: row.ID, UserID: row.UserID, Reason: "role_mismatch"})
			}
		}
	}
	return stale, nil
}

func (s *Store) RepairProfile(_ context.Context, seed entities.ProfileSeed) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailRepair[seed.UserID]; ok {
		return false, err
	}
	if _, exists := s.profiles[seed.Role][seed.UserID]; exists {
		return false, nil
	}
	s.putProfile(seed)
	return true, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	var pending []outbox.Message
	for _, msg := range s.outbox {
		if msg.Status == outbox.StatusPending {
			pending = append(pending, msg)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].ID == outboxID {
			s.outbox[i].Status = outbox.StatusPublished
			return nil
		}
	}
	return nil
}

// SequenceIDGenerator issues deterministic ids for tests.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

func (g *SequenceIDGenerator) NewID(_ context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next), nil
}

// FixedClock returns a pinned instant.
type FixedClock struct{ Instant time.Time }

func (c FixedClock) Now() time.Time { return c.Instant.UTC() }
