package services

import (
	"paideia/contexts/identity-access/access-policy-service/domain/entities"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

// Evaluate is the policy evaluator: a pure function of (principal, resource
// policy, operation). It performs no data-store access; a Deny decision must
// short-circuit before any query is built.
//
// This is the SINGLE SOURCE OF TRUTH for resource authorization.
func Evaluate(
	principal identityentities.Principal,
	policy entities.ResourcePolicy,
	op entities.Operation,
) entities.Decision {
	// Inactive principals carry no authority.
	if principal.IsAnonymous() || !principal.IsActive {
		if policy.Shape == entities.ShapePublicRead && op == entities.OperationRead {
			return entities.Allow("public_read")
		}
		return entities.Deny("anonymous")
	}

	switch policy.Shape {
	case entities.ShapeAdminOnly:
		return evaluateAdminOnly(principal, policy, op)
	case entities.ShapeOwnerScoped:
		return evaluateOwnerScoped(principal, policy, op, false)
	case entities.ShapeSelfService:
		return evaluateOwnerScoped(principal, policy, op, true)
	case entities.ShapePublicRead:
		return evaluatePublicRead(principal, policy, op)
	default:
		return entities.Deny("unknown_shape")
	}
}

func evaluateAdminOnly(
	principal identityentities.Principal,
	policy entities.ResourcePolicy,
	op entities.Operation,
) entities.Decision {
	if op == entities.OperationRead {
		if isStaff(principal.Role, policy.InstructorIsStaff) {
			return entities.Allow("staff_read")
		}
		if policy.DenyUnownedRead {
			return entities.Deny("read_not_permitted")
		}
		return entities.FilterBy(policy.Owner, principal.ID, "owner_filtered")
	}
	if principal.Role == identityentities.RoleAdmin {
		return entities.Allow("admin_write")
	}
	return entities.Deny("write_not_permitted")
}

func evaluateOwnerScoped(
	principal identityentities.Principal,
	policy entities.ResourcePolicy,
	op entities.Operation,
	selfServiceCreate bool,
) entities.Decision {
	staff := isStaff(principal.Role, policy.InstructorIsStaff)

	switch op {
	case entities.OperationRead:
		if staff {
			return entities.Allow("staff_read")
		}
		return entities.FilterBy(policy.Owner, principal.ID, "owner_filtered")

	case entities.OperationCreate:
		if staff {
			return entities.Allow("staff_create")
		}
		if selfServiceCreate {
			// Non-staff creates are owner-bound: the decision pins the owner
			// path to the acting principal so the executor layer can reject a
			// row claiming anyone else.
			return entities.FilterBy(policy.Owner, principal.ID, "self_service_create")
		}
		return entities.Deny("create_not_permitted")

	case entities.OperationUpdate, entities.OperationDelete:
		if staff {
			return entities.Allow("staff_write")
		}
		// Owners mutate only their own rows; the executor conjoins this
		// predicate with the targeted row.
		return entities.FilterBy(policy.Owner, principal.ID, "owner_write_scope")

	default:
		return entities.Deny("unknown_operation")
	}
}

func evaluatePublicRead(
	principal identityentities.Principal,
	policy entities.ResourcePolicy,
	op entities.Operation,
) entities.Decision {
	if op == entities.OperationRead {
		return entities.Allow("public_read")
	}
	if principal.Role == identityentities.RoleAdmin {
		return entities.Allow("admin_write")
	}
	if policy.InstructorCanWrite && principal.Role == identityentities.RoleInstructor {
		return entities.Allow("instructor_write")
	}
	return entities.Deny("write_not_permitted")
}

// isStaff reports membership in the privileged read set. Service accounts
// and admins are always staff; instructors only where the resource says so.
func isStaff(role identityentities.Role, instructorIsStaff bool) bool {
	switch role {
	case identityentities.RoleService, identityentities.RoleAdmin:
		return true
	case identityentities.RoleInstructor:
		return instructorIsStaff
	default:
		return false
	}
}
