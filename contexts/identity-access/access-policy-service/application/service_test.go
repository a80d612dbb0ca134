package application_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	accesspolicy "paideia/contexts/identity-access/access-policy-service"
	"paideia/contexts/identity-access/access-policy-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/access-policy-service/domain/errors"
	"paideia/contexts/identity-access/access-policy-service/ports"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

func trainee(id string) identityentities.Principal {
	return identityentities.Principal{ID: id, Role: identityentities.RoleTrainee, IsActive: true}
}

func admin(id string) identityentities.Principal {
	return identityentities.Principal{ID: id, Role: identityentities.RoleAdmin, IsActive: true}
}

func TestListOwnerScopedReturnsExactlyOwnRows(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("wishlists",
		ports.Row{"id": "w-1", "user_id": "trainee-1", "course_id": "c-1"},
		ports.Row{"id": "w-2", "user_id": "trainee-2", "course_id": "c-1"},
		ports.Row{"id": "w-3", "user_id": "trainee-1", "course_id": "c-2"},
	)

	rows, err := module.Service.List(context.Background(), trainee("trainee-1"), "wishlists", ports.ResourceQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, "trainee-1", row["user_id"])
	}
}

func TestListCallerFilterNarrowsButNeverWidens(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("wishlists",
		ports.Row{"id": "w-1", "user_id": "trainee-1", "course_id": "c-1"},
		ports.Row{"id": "w-2", "user_id": "trainee-2", "course_id": "c-1"},
	)

	// A filter targeting another owner's value conjoins with the owner
	// predicate and yields nothing.
	rows, err := module.Service.List(context.Background(), trainee("trainee-1"), "wishlists", ports.ResourceQuery{
		Filters: map[string]any{"user_id": "trainee-2"},
	})
	require.NoError(t, err)
	require.Empty(t, rows)

	rows, err = module.Service.List(context.Background(), trainee("trainee-1"), "wishlists", ports.ResourceQuery{
		Filters: map[string]any{"course_id": "c-1"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "w-1", rows[0]["id"])
}

func TestListOwnerScopeHoldsUnderPaginationAndSort(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("wishlists",
		ports.Row{"id": "w-1", "user_id": "trainee-1", "rank": "3"},
		ports.Row{"id": "w-2", "user_id": "trainee-2", "rank": "1"},
		ports.Row{"id": "w-3", "user_id": "trainee-1", "rank": "2"},
		ports.Row{"id": "w-4", "user_id": "trainee-2", "rank": "4"},
		ports.Row{"id": "w-5", "user_id": "trainee-1", "rank": "1"},
	)

	// Paging through sorted results never surfaces another owner's rows.
	var seen []string
	query := ports.ResourceQuery{OrderBy: "rank", Limit: 2}
	for offset := 0; ; offset += query.Limit {
		query.Offset = offset
		rows, err := module.Service.List(context.Background(), trainee("trainee-1"), "wishlists", query)
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			require.Equal(t, "trainee-1", row["user_id"])
			seen = append(seen, fmt.Sprint(row["id"]))
		}
	}
	require.ElementsMatch(t, []string{"w-1", "w-3", "w-5"}, seen)

	rows, err := module.Service.List(context.Background(), trainee("trainee-1"), "wishlists", ports.ResourceQuery{
		OrderBy: "rank",
		Desc:    true,
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "w-1", fmt.Sprint(rows[0]["id"]))
}

func TestInactivePrincipalDeniedAsForbidden(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("certificates", ports.Row{"id": "cert-1", "trainee_user_id": "user-9"})

	// An identified-but-deactivated caller is a 403-class denial, not 401.
	inactive := identityentities.Principal{ID: "user-9", Role: identityentities.RoleAdmin, IsActive: false}
	_, err := module.Service.List(context.Background(), inactive, "certificates", ports.ResourceQuery{})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	require.Zero(t, module.Store.QueryCount)
}

func TestDenyShortCircuitsBeforeExecutor(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("certificates", ports.Row{"id": "cert-1", "trainee_user_id": "trainee-1"})

	_, err := module.Service.List(context.Background(), identityentities.Anonymous, "certificates", ports.ResourceQuery{})
	require.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	err = module.Service.Update(context.Background(), trainee("trainee-1"), "announcements", "a-1", ports.Row{"title": "x"})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	require.Zero(t, module.Store.QueryCount)
}

func TestCreateSelfServiceDefaultsOwnerToPrincipal(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.FixNow(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	row, err := module.Service.Create(context.Background(), trainee("trainee-1"), "wishlists", ports.Row{
		"course_id": "c-9",
	})
	require.NoError(t, err)
	require.Equal(t, "trainee-1", row["user_id"])
	require.NotEmpty(t, row["id"])
	require.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), row["created_at"])
	require.Equal(t, 1, module.Store.RowCount("wishlists"))
}

func TestCreateSelfServiceRejectsForeignOwner(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)

	// A non-staff caller cannot plant rows inside another user's scope.
	_, err := module.Service.Create(context.Background(), trainee("trainee-1"), "wishlists", ports.Row{
		"user_id": "trainee-2",
	})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	require.Zero(t, module.Store.RowCount("wishlists"))

	rows, err := module.Service.List(context.Background(), trainee("trainee-2"), "wishlists", ports.ResourceQuery{})
	require.NoError(t, err)
	require.Empty(t, rows)

	// Naming oneself explicitly is fine.
	row, err := module.Service.Create(context.Background(), trainee("trainee-1"), "wishlists", ports.Row{
		"user_id": "trainee-1",
	})
	require.NoError(t, err)
	require.Equal(t, "trainee-1", row["user_id"])
}

func TestCreateStaffMaySetForeignOwner(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)

	row, err := module.Service.Create(context.Background(), admin("admin-1"), "wishlists", ports.Row{
		"user_id": "trainee-2",
	})
	require.NoError(t, err)
	require.Equal(t, "trainee-2", row["user_id"])
}

func TestCreateOwnerScopedDeniedForNonStaff(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)

	_, err := module.Service.Create(context.Background(), trainee("trainee-1"), "submission_answers", ports.Row{
		"submission_id": "s-1",
	})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestUpdateOwnerColumnReassignmentForbidden(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("wishlists", ports.Row{"id": "w-1", "user_id": "trainee-1"})

	err := module.Service.Update(context.Background(), trainee("trainee-1"), "wishlists", "w-1", ports.Row{
		"user_id": "trainee-2",
	})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	// Admins may reassign.
	err = module.Service.Update(context.Background(), admin("admin-1"), "wishlists", "w-1", ports.Row{
		"user_id": "trainee-2",
	})
	require.NoError(t, err)
}

func TestUpdateOneHopOwnerReassignmentForbidden(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("submissions",
		ports.Row{"id": "s-1", "trainee_user_id": "trainee-1"},
		ports.Row{"id": "s-2", "trainee_user_id": "trainee-2"},
	)
	module.Store.Seed("submission_answers",
		ports.Row{"id": "a-1", "submission_id": "s-1", "answer": "42"},
	)

	// Re-pointing the foreign key of the one-hop owner path would move the
	// row into another user's scope; owner-scoped callers cannot do it.
	err := module.Service.Update(context.Background(), trainee("trainee-1"), "submission_answers", "a-1", ports.Row{
		"submission_id": "s-2",
	})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	// Staff may.
	err = module.Service.Update(context.Background(), admin("admin-1"), "submission_answers", "a-1", ports.Row{
		"submission_id": "s-2",
	})
	require.NoError(t, err)
}

func TestUpdateOutsideScopeIsRowNotFound(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("wishlists", ports.Row{"id": "w-2", "user_id": "trainee-2", "note": "keep"})

	err := module.Service.Update(context.Background(), trainee("trainee-1"), "wishlists", "w-2", ports.Row{
		"note": "mine now",
	})
	require.ErrorIs(t, err, domainerrors.ErrRowNotFound)
}

func TestDeleteScopedToOwner(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("wishlists",
		ports.Row{"id": "w-1", "user_id": "trainee-1"},
		ports.Row{"id": "w-2", "user_id": "trainee-2"},
	)

	require.ErrorIs(t,
		module.Service.Delete(context.Background(), trainee("trainee-1"), "wishlists", "w-2"),
		domainerrors.ErrRowNotFound)
	require.NoError(t, module.Service.Delete(context.Background(), trainee("trainee-1"), "wishlists", "w-1"))
	require.Equal(t, 1, module.Store.RowCount("wishlists"))
}

func TestListOneHopOwnerScope(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("submissions",
		ports.Row{"id": "s-1", "trainee_user_id": "trainee-1"},
		ports.Row{"id": "s-2", "trainee_user_id": "trainee-2"},
	)
	module.Store.Seed("submission_answers",
		ports.Row{"id": "a-1", "submission_id": "s-1", "answer": "42"},
		ports.Row{"id": "a-2", "submission_id": "s-2", "answer": "7"},
	)

	rows, err := module.Service.List(context.Background(), trainee("trainee-1"), "submission_answers", ports.ResourceQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a-1", rows[0]["id"])

	// Staff read is unfiltered.
	rows, err = module.Service.List(context.Background(), admin("admin-1"), "submission_answers", ports.ResourceQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestPublicReadAllowsAnonymous(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)
	module.Store.Seed("announcements",
		ports.Row{"id": "an-1", "author_user_id": "admin-1", "title": "welcome"},
	)

	rows, err := module.Service.List(context.Background(), identityentities.Anonymous, "announcements", ports.ResourceQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestUnknownResourceAndInvalidQuery(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)

	_, err := module.Service.List(context.Background(), admin("admin-1"), "no_such_thing", ports.ResourceQuery{})
	require.ErrorIs(t, err, domainerrors.ErrUnknownResource)

	_, err = module.Service.List(context.Background(), admin("admin-1"), "wishlists", ports.ResourceQuery{
		Filters: map[string]any{"user_id; DROP TABLE users": "x"},
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidQuery)

	_, err = module.Service.List(context.Background(), admin("admin-1"), "wishlists", ports.ResourceQuery{
		OrderBy: "created_at DESC",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidQuery)
}

func TestEvaluateExposesRawDecision(t *testing.T) {
	module := accesspolicy.NewInMemoryModule(nil)

	decision, err := module.Service.Evaluate(admin("admin-1"), "users", entities.OperationDelete)
	require.NoError(t, err)
	require.True(t, decision.Allowed())

	decision, err = module.Service.Evaluate(trainee("trainee-1"), "users", entities.OperationRead)
	require.NoError(t, err)
	require.True(t, decision.Filtered())
	require.Equal(t, "id", decision.Owner.Column)

	_, err = module.Service.Evaluate(trainee("trainee-1"), "users", entities.Operation("grant"))
	require.ErrorIs(t, err, domainerrors.ErrUnknownOperation)
}
