package services

import (
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

// TransitionPlan is the satellite work a user write requires. Zero-value
// role fields mean "nothing to do". The adapter executes the whole plan in
// the same transaction as the triggering user write, so the intermediate
// zero-or-two-satellites window is never externally observable.
type TransitionPlan struct {
	RemoveProfile identityentities.Role
	InsertProfile identityentities.Role
}

func (p TransitionPlan) Empty() bool {
	return p.RemoveProfile == "" && p.InsertProfile == ""
}

// PlanCreate: role-bearing users get exactly one satellite; service accounts
// get none, which is a valid terminal state.
func PlanCreate(role identityentities.Role) TransitionPlan {
	if role.RequiresProfile() {
		return TransitionPlan{InsertProfile: role}
	}
	return TransitionPlan{}
}

// PlanRoleChange: drop the old satellite and insert the new one. Either side
// may be a no-op (service involved, or same role).
func PlanRoleChange(from, to identityentities.Role) TransitionPlan {
	if from == to {
		return TransitionPlan{}
	}
	plan := TransitionPlan{}
	if from.RequiresProfile() {
		plan.RemoveProfile = from
	}
	if to.RequiresProfile() {
		plan.InsertProfile = to
	}
	return plan
}

// PlanDelete: satellites go with the user. Deleting a service account is a
// satellite no-op and must not error on the missing row.
func PlanDelete(role identityentities.Role) TransitionPlan {
	if role.RequiresProfile() {
		return TransitionPlan{RemoveProfile: role}
	}
	return TransitionPlan{}
}
