package profilelifecycle_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
	profilelifecycle "paideia/contexts/identity-access/profile-lifecycle-service"
	eventsadapter "paideia/contexts/identity-access/profile-lifecycle-service/adapters/events"
	"paideia/contexts/identity-access/profile-lifecycle-service/adapters/memory"
	"paideia/contexts/identity-access/profile-lifecycle-service/application/commands"
	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
	"paideia/internal/platform/messaging"
	"paideia/internal/shared/events"
	"paideia/internal/shared/outbox"
)

func newModule(t *testing.T) (*profilelifecycle.Module, *memory.Store) {
	t.Helper()
	module, store := profilelifecycle.NewInMemoryModule(messaging.NewBus(nil), nil)
	store.FixNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return module, store
}

func createUser(t *testing.T, module *profilelifecycle.Module, email, role string) identityentities.User {
	t.Helper()
	result, err := module.CreateUser.Execute(context.Background(), commands.CreateUserCommand{
		Email:    email,
		FullName: "Test User",
		Password: "s3cret",
		Role:     role,
	})
	require.NoError(t, err)
	return result.User
}

func TestCreateUserInsertsExactlyOneSatellite(t *testing.T) {
	module, store := newModule(t)

	user := createUser(t, module, "trainee@example.com", "trainee")

	view, err := module.GetUser.Execute(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, view.TraineeProfile)
	require.Nil(t, view.AdminProfile)
	require.Nil(t, view.InstructorProfile)
	require.Equal(t, "TR-2026-id1", view.TraineeProfile.EnrollmentCode)

	require.Equal(t, 1, store.ProfileCount(identityentities.RoleTrainee))
	require.Equal(t, 0, store.ProfileCount(identityentities.RoleAdmin))

	messages := store.OutboxMessages()
	require.Len(t, messages, 1)
	require.Equal(t, events.EventTypeUserCreated, messages[0].EventType)
	require.Equal(t, outbox.StatusPending, messages[0].Status)
}

func TestCreateServiceAccountHasNoSatellite(t *testing.T) {
	module, store := newModule(t)

	user := createUser(t, module, "bot@example.com", "service")

	view, err := module.GetUser.Execute(context.Background(), user.ID)
	require.NoError(t, err)
	require.Nil(t, view.TraineeProfile)
	require.Nil(t, view.AdminProfile)
	require.Nil(t, view.InstructorProfile)
	require.Equal(t, 0, store.ProfileCount(identityentities.RoleTrainee))
}

func TestCreateUserValidation(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()

	_, err := module.CreateUser.Execute(ctx, commands.CreateUserCommand{
		Email: "not-an-email", Password: "x", Role: "trainee",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = module.CreateUser.Execute(ctx, commands.CreateUserCommand{
		Email: "a@example.com", Password: "x", Role: "superuser",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRole)

	_, err = module.CreateUser.Execute(ctx, commands.CreateUserCommand{
		Email: "a@example.com", Password: "x", Role: "trainee", WithAPIKey: true,
	})
	require.ErrorIs(t, err, domainerrors.ErrRoleNotKeyBearing)

	createUser(t, module, "taken@example.com", "trainee")
	_, err = module.CreateUser.Execute(ctx, commands.CreateUserCommand{
		Email: "taken@example.com", Password: "x", Role: "admin",
	})
	require.ErrorIs(t, err, domainerrors.ErrEmailTaken)
}

func TestCreateServiceAccountWithAPIKey(t *testing.T) {
	module, _ := newModule(t)

	result, err := module.CreateUser.Execute(context.Background(), commands.CreateUserCommand{
		Email:      "bot@example.com",
		Password:   "s3cret",
		Role:       "service",
		WithAPIKey: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawAPIKey)
	require.Equal(t, identityentities.APIKeyIndex(result.RawAPIKey), result.User.APIKeyIndex)
	require.True(t, result.User.APIKeyEnabled)
}

func TestChangeRoleSwapsSatellitesAtomically(t *testing.T) {
	module, store := newModule(t)
	user := createUser(t, module, "t@example.com", "trainee")

	updated, err := module.ChangeRole.Execute(context.Background(), commands.ChangeRoleCommand{
		UserID: user.ID, NewRole: "instructor",
	})
	require.NoError(t, err)
	require.Equal(t, identityentities.RoleInstructor, updated.Role)

	require.Equal(t, 0, store.ProfileCount(identityentities.RoleTrainee))
	require.Equal(t, 1, store.ProfileCount(identityentities.RoleInstructor))

	view, err := module.GetUser.Execute(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, view.InstructorProfile)
	// The staff code anchors to the user's creation year, not the transition.
	require.Equal(t, entities.StaffCode(user.ID, user.CreatedAt), view.InstructorProfile.StaffCode)

	messages := store.OutboxMessages()
	require.Len(t, messages, 2)
	require.Equal(t, events.EventTypeUserRoleChanged, messages[1].EventType)

	var envelope events.Envelope
	require.NoError(t, json.Unmarshal(messages[1].Payload, &envelope))
	require.Equal(t, user.ID, envelope.EntityID)
}

func TestChangeRoleToServiceLeavesNoSatellite(t *testing.T) {
	module, store := newModule(t)
	user := createUser(t, module, "a@example.com", "admin")

	_, err := module.ChangeRole.Execute(context.Background(), commands.ChangeRoleCommand{
		UserID: user.ID, NewRole: "service",
	})
	require.NoError(t, err)
	require.Equal(t, 0, store.ProfileCount(identityentities.RoleAdmin))
}

func TestChangeRoleSameRoleIsNoOp(t *testing.T) {
	module, store := newModule(t)
	user := createUser(t, module, "t@example.com", "trainee")

	updated, err := module.ChangeRole.Execute(context.Background(), commands.ChangeRoleCommand{
		UserID: user.ID, NewRole: "trainee",
	})
	require.NoError(t, err)
	require.Equal(t, identityentities.RoleTrainee, updated.Role)
	require.Equal(t, 1, store.ProfileCount(identityentities.RoleTrainee))
	// No transition happened, so no event either.
	require.Len(t, store.OutboxMessages(), 1)
}

func TestChangeRoleUnknownUser(t *testing.T) {
	module, _ := newModule(t)
	_, err := module.ChangeRole.Execute(context.Background(), commands.ChangeRoleCommand{
		UserID: "ghost", NewRole: "admin",
	})
	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestDeleteUserAppliesRelationPolicies(t *testing.T) {
	module, store := newModule(t)
	user := createUser(t, module, "t@example.com", "trainee")

	// Strictly owned rows, including answers owned through the submission.
	store.SeedRow("submissions", map[string]any{"id": "s-1", "trainee_user_id": user.ID})
	store.SeedRow("submission_answers", map[string]any{"id": "sa-1", "submission_id": "s-1"})
	store.SeedRow("wishlists", map[string]any{"id": "w-1", "user_id": user.ID})
	store.SeedRow("sessions", map[string]any{"id": "sess-1", "user_id": user.ID})

	// Attribution rows that must survive with the reference nulled.
	store.SeedRow("announcements", map[string]any{"id": "an-1", "author_user_id": user.ID, "title": "hi"})
	store.SeedRow("enrollments", map[string]any{"id": "en-1", "trainee_user_id": "someone-else", "enrolled_by_user_id": user.ID})

	// Unrelated rows stay intact.
	store.SeedRow("wishlists", map[string]any{"id": "w-2", "user_id": "someone-else"})
	store.SeedRow("submission_answers", map[string]any{"id": "sa-2", "submission_id": "s-other"})

	require.NoError(t, module.DeleteUser.Execute(context.Background(), commands.DeleteUserCommand{UserID: user.ID}))

	require.Equal(t, 0, store.RowCount("submissions"))
	require.Equal(t, 1, store.RowCount("submission_answers"))
	require.Equal(t, "sa-2", store.Rows("submission_answers")[0]["id"])
	require.Equal(t, 1, store.RowCount("wishlists"))
	require.Equal(t, 0, store.RowCount("sessions"))

	announcements := store.Rows("announcements")
	require.Len(t, announcements, 1)
	require.Nil(t, announcements[0]["author_user_id"])

	enrollments := store.Rows("enrollments")
	require.Len(t, enrollments, 1)
	require.Nil(t, enrollments[0]["enrolled_by_user_id"])

	require.Equal(t, 0, store.ProfileCount(identityentities.RoleTrainee))
	_, err := module.GetUser.Execute(context.Background(), user.ID)
	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestDeleteUserBlockedCascadeAbortsEverything(t *testing.T) {
	module, store := newModule(t)
	user := createUser(t, module, "t@example.com", "trainee")
	store.SeedRow("wishlists", map[string]any{"id": "w-1", "user_id": user.ID})
	store.SeedRow("announcements", map[string]any{"id": "an-1", "author_user_id": user.ID})
	store.FailTable["certificates"] = errors.New("certificate rows are export-locked")

	err := module.DeleteUser.Execute(context.Background(), commands.DeleteUserCommand{UserID: user.ID})

	var conflict *domainerrors.RelationConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "certificates.trainee", conflict.Relation)

	// Nothing was committed: the user, its profile, and every referencing
	// row are untouched.
	view, getErr := module.GetUser.Execute(context.Background(), user.ID)
	require.NoError(t, getErr)
	require.NotNil(t, view.TraineeProfile)
	require.Equal(t, 1, store.RowCount("wishlists"))
	require.Equal(t, user.ID, store.Rows("announcements")[0]["author_user_id"])
}

func TestDeleteServiceAccount(t *testing.T) {
	module, _ := newModule(t)
	user := createUser(t, module, "bot@example.com", "service")
	require.NoError(t, module.DeleteUser.Execute(context.Background(), commands.DeleteUserCommand{UserID: user.ID}))
}

func TestAPIKeyRotateAndToggle(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()
	user := createUser(t, module, "admin@example.com", "admin")

	// Toggling before any key was issued is rejected.
	_, err := module.APIKeys.SetEnabled(ctx, commands.SetAPIKeyEnabledCommand{UserID: user.ID, Enabled: true})
	require.ErrorIs(t, err, domainerrors.ErrAPIKeyNotIssued)

	rotated, err := module.APIKeys.Rotate(ctx, commands.RotateAPIKeyCommand{UserID: user.ID})
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RawAPIKey)
	require.True(t, rotated.User.APIKeyEnabled)

	disabled, err := module.APIKeys.SetEnabled(ctx, commands.SetAPIKeyEnabledCommand{UserID: user.ID, Enabled: false})
	require.NoError(t, err)
	require.False(t, disabled.APIKeyEnabled)
	// The stored key survives the toggle.
	require.Equal(t, rotated.User.APIKeyIndex, disabled.APIKeyIndex)

	trainee := createUser(t, module, "t@example.com", "trainee")
	_, err = module.APIKeys.Rotate(ctx, commands.RotateAPIKeyCommand{UserID: trainee.ID})
	require.ErrorIs(t, err, domainerrors.ErrRoleNotKeyBearing)
}

func TestAuditorRepairsOrphansIdempotently(t *testing.T) {
	module, store := newModule(t)
	ctx := context.Background()

	createdAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store.SeedUser(identityentities.User{ID: "orphan-1", Email: "o1@example.com", Role: identityentities.RoleTrainee, IsActive: true, CreatedAt: createdAt})
	store.SeedUser(identityentities.User{ID: "orphan-2", Email: "o2@example.com", Role: identityentities.RoleInstructor, IsActive: true, CreatedAt: createdAt})
	store.SeedUser(identityentities.User{ID: "bot-1", Email: "b@example.com", Role: identityentities.RoleService, IsActive: true, CreatedAt: createdAt})

	report, err := module.Auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.MissingFound)
	require.Equal(t, 2, report.Repaired)
	require.Zero(t, report.Failed)

	// The repaired satellite carries the same defaults the create path
	// would have written, anchored to the user's creation year.
	view, err := module.GetUser.Execute(ctx, "orphan-1")
	require.NoError(t, err)
	require.Equal(t, "TR-2024-orphan1", view.TraineeProfile.EnrollmentCode)

	second, err := module.Auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, second.MissingFound)
	require.Zero(t, second.Repaired)
}

func TestAuditorSkipsFailingUserAndContinues(t *testing.T) {
	module, store := newModule(t)
	createdAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store.SeedUser(identityentities.User{ID: "bad", Email: "bad@example.com", Role: identityentities.RoleTrainee, IsActive: true, CreatedAt: createdAt})
	store.SeedUser(identityentities.User{ID: "good", Email: "good@example.com", Role: identityentities.RoleTrainee, IsActive: true, CreatedAt: createdAt})
	store.FailRepair["bad"] = errors.New("insert deadlock")

	report, err := module.Auditor.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.MissingFound)
	require.Equal(t, 1, report.Repaired)
	require.Equal(t, 1, report.Failed)

	view, err := module.GetUser.Execute(context.Background(), "good")
	require.NoError(t, err)
	require.NotNil(t, view.TraineeProfile)
}

func TestAuditorReportsStaleProfilesWithoutTouchingThem(t *testing.T) {
	module, store := newModule(t)
	createdAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// Satellite left behind by a user that no longer exists.
	store.SeedProfile(entities.NewProfileSeed("p-ghost", "ghost", identityentities.RoleTrainee, createdAt))
	// Satellite whose user has since changed role.
	store.SeedUser(identityentities.User{ID: "moved", Email: "m@example.com", Role: identityentities.RoleAdmin, IsActive: true, CreatedAt: createdAt})
	store.SeedProfile(entities.NewProfileSeed("p-moved", "moved", identityentities.RoleTrainee, createdAt))

	report, err := module.Auditor.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Stale)
	// Stale satellites are reported, not deleted; repair only inserts.
	require.Equal(t, 2, store.ProfileCount(identityentities.RoleTrainee))
	// The re-roled user got its missing admin satellite inserted.
	require.Equal(t, 1, store.ProfileCount(identityentities.RoleAdmin))
}

func TestOutboxRelayPublishesAndAcknowledges(t *testing.T) {
	bus := messaging.NewBus(nil)
	module, store := profilelifecycle.NewInMemoryModule(bus, nil)
	store.FixNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	received := bus.Subscribe(eventsadapter.Topic, 8)

	user := createUser(t, module, "t@example.com", "trainee")
	_, err := module.ChangeRole.Execute(context.Background(), commands.ChangeRoleCommand{
		UserID: user.ID, NewRole: "instructor",
	})
	require.NoError(t, err)

	require.NoError(t, module.OutboxRelay.RunOnce(context.Background()))

	var types []string
	for i := 0; i < 2; i++ {
		select {
		case envelope := <-received:
			types = append(types, envelope.EventType)
		default:
			t.Fatalf("expected 2 published events, got %d", i)
		}
	}
	require.Equal(t, []string{events.EventTypeUserCreated, events.EventTypeUserRoleChanged}, types)

	for _, msg := range store.OutboxMessages() {
		require.Equal(t, outbox.StatusPublished, msg.Status)
	}

	// A second relay pass finds nothing pending.
	require.NoError(t, module.OutboxRelay.RunOnce(context.Background()))
	select {
	case envelope := <-received:
		t.Fatalf("unexpected republish of %s", envelope.EventType)
	default:
	}
}
