package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

func TestDerivedCodesAreDeterministic(t *testing.T) {
	createdAt := time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)
	userID := "3f2b8a1c-9d4e-4f6a-b7c8-0123456789ab"

	require.Equal(t, "TR-2026-3f2b8a1c", entities.EnrollmentCode(userID, createdAt))
	require.Equal(t, "IN-2026-3f2b8a1c", entities.StaffCode(userID, createdAt))

	// The year comes from the user's creation instant, not from "now": a
	// repair run years later writes the same code the create would have.
	require.Equal(t,
		entities.EnrollmentCode(userID, createdAt),
		entities.EnrollmentCode(userID, createdAt))
}

func TestDerivedCodeUsesUTCYear(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	newYearsEveLocal := time.Date(2025, 12, 31, 23, 0, 0, 0, est)
	require.Equal(t, "TR-2026-abcdef01", entities.EnrollmentCode("abcdef0123456789", newYearsEveLocal))
}

func TestNewProfileSeedPerRole(t *testing.T) {
	createdAt := time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)

	adminSeed := entities.NewProfileSeed("p-1", "u-1", identityentities.RoleAdmin, createdAt)
	require.Equal(t, entities.DefaultAdminLevel, adminSeed.AdminLevel)
	require.Empty(t, adminSeed.StaffCode)
	require.Empty(t, adminSeed.EnrollmentCode)

	instructorSeed := entities.NewProfileSeed("p-2", "u-1", identityentities.RoleInstructor, createdAt)
	require.Equal(t, "IN-2026-u1", instructorSeed.StaffCode)

	traineeSeed := entities.NewProfileSeed("p-3", "u-1", identityentities.RoleTrainee, createdAt)
	require.Equal(t, "TR-2026-u1", traineeSeed.EnrollmentCode)
}
