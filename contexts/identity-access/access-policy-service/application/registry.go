package application

import (
	"paideia/contexts/identity-access/access-policy-service/domain/entities"
)

// Registry is the closed catalog of governed resource types. Each entry binds
// one resource to exactly one canonical policy shape and one owner path;
// policies are configuration, not code, so the whole catalog is enumerable
// and unit-testable.
type Registry map[string]entities.ResourcePolicy

func (r Registry) Lookup(resource string) (entities.ResourcePolicy, bool) {
	policy, ok := r[resource]
	return policy, ok
}

// DefaultRegistry declares every resource type the platform governs.
func DefaultRegistry() Registry {
	policies := []entities.ResourcePolicy{
		{
			Resource:           "announcements",
			Table:              "announcements",
			Shape:              entities.ShapePublicRead,
			Owner:              entities.OwnerPath{Column: "author_user_id"},
			InstructorCanWrite: true,
		},
		{
			Resource:          "certificates",
			Table:             "certificates",
			Shape:             entities.ShapeAdminOnly,
			Owner:             entities.OwnerPath{Column: "trainee_user_id"},
			InstructorIsStaff: true,
		},
		{
			Resource:          "course_feedback",
			Table:             "course_feedback",
			Shape:             entities.ShapeSelfService,
			Owner:             entities.OwnerPath{Column: "trainee_user_id"},
			InstructorIsStaff: true,
		},
		{
			Resource: "support_tickets",
			Table:    "support_tickets",
			Shape:    entities.ShapeSelfService,
			Owner:    entities.OwnerPath{Column: "opened_by_user_id"},
		},
		{
			Resource: "wishlists",
			Table:    "wishlists",
			Shape:    entities.ShapeSelfService,
			Owner:    entities.OwnerPath{Column: "user_id"},
		},
		{
			Resource: "recent_searches",
			Table:    "recent_searches",
			Shape:    entities.ShapeSelfService,
			Owner:    entities.OwnerPath{Column: "user_id"},
		},
		{
			Resource:          "submissions",
			Table:             "submissions",
			Shape:             entities.ShapeSelfService,
			Owner:             entities.OwnerPath{Column: "trainee_user_id"},
			InstructorIsStaff: true,
		},
		{
			Resource:          "submission_answers",
			Table:             "submission_answers",
			Shape:             entities.ShapeOwnerScoped,
			InstructorIsStaff: true,
			Owner: entities.OwnerPath{
				ViaTable:       "submissions",
				ViaLocalColumn: "submission_id",
				ViaKeyColumn:   "id",
				ViaOwnerColumn: "trainee_user_id",
			},
		},
		{
			Resource: "notifications",
			Table:    "notifications",
			Shape:    entities.ShapeAdminOnly,
			Owner:    entities.OwnerPath{Column: "recipient_user_id"},
		},
		{
			Resource:          "enrollments",
			Table:             "enrollments",
			Shape:             entities.ShapeAdminOnly,
			Owner:             entities.OwnerPath{Column: "trainee_user_id"},
			InstructorIsStaff: true,
		},
		{
			Resource: "emergency_contacts",
			Table:    "emergency_contacts",
			Shape:    entities.ShapeSelfService,
			Owner:    entities.OwnerPath{Column: "user_id"},
		},
		{
			// User administration itself: admins manage accounts, everyone
			// may read their own row.
			Resource: "users",
			Table:    "users",
			Shape:    entities.ShapeAdminOnly,
			Owner:    entities.OwnerPath{Column: "id"},
		},
	}

	registry := make(Registry, len(policies))
	for _, policy := range policies {
		registry[policy.Resource] = policy
	}
	return registry
}
