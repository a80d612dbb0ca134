package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"paideia/contexts/identity-access/profile-lifecycle-service/domain/services"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

func TestPlanCreate(t *testing.T) {
	plan := services.PlanCreate(identityentities.RoleTrainee)
	require.Equal(t, identityentities.RoleTrainee, plan.InsertProfile)
	require.Empty(t, plan.RemoveProfile)

	require.True(t, services.PlanCreate(identityentities.RoleService).Empty())
}

func TestPlanRoleChange(t *testing.T) {
	plan := services.PlanRoleChange(identityentities.RoleTrainee, identityentities.RoleInstructor)
	require.Equal(t, identityentities.RoleTrainee, plan.RemoveProfile)
	require.Equal(t, identityentities.RoleInstructor, plan.InsertProfile)

	// Same role is a no-op.
	require.True(t, services.PlanRoleChange(identityentities.RoleAdmin, identityentities.RoleAdmin).Empty())

	// Service on either side is a one-sided plan.
	toService := services.PlanRoleChange(identityentities.RoleAdmin, identityentities.RoleService)
	require.Equal(t, identityentities.RoleAdmin, toService.RemoveProfile)
	require.Empty(t, toService.InsertProfile)

	fromService := services.PlanRoleChange(identityentities.RoleService, identityentities.RoleTrainee)
	require.Empty(t, fromService.RemoveProfile)
	require.Equal(t, identityentities.RoleTrainee, fromService.InsertProfile)
}

func TestPlanDelete(t *testing.T) {
	require.Equal(t, identityentities.RoleInstructor, services.PlanDelete(identityentities.RoleInstructor).RemoveProfile)
	require.True(t, services.PlanDelete(identityentities.RoleService).Empty())
}
