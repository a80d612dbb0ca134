package entities

// DeletePolicy is what happens to a row referencing a user when that user is
// deleted. Every relation falls in exactly one category; the registry below
// is the single place the choice is made.
type DeletePolicy string

const (
	// DeletePolicySetNull: attribution-only reference. The row survives with
	// the reference nulled out.
	DeletePolicySetNull DeletePolicy = "set_null"
	// DeletePolicyCascade: strict ownership. The row is removed with the
	// user; a failed removal aborts the whole deletion.
	DeletePolicyCascade DeletePolicy = "cascade"
)

// UserRelation declares one foreign-key reference from a resource table to
// the users table. One-hop cascades (rows owned through a parent row) set
// the Via fields: Column is then the child's FK to ViaTable, and the user
// reference sits at ViaTable.ViaOwnerColumn. One-hop entries must be listed
// before their parent relation so children are removed first.
type UserRelation struct {
	Name   string
	Table  string
	Column string
	Policy DeletePolicy

	ViaTable       string
	ViaKeyColumn   string
	ViaOwnerColumn string
}

func (r UserRelation) OneHop() bool {
	return r.ViaTable != ""
}

// UserRelations is the ordered delete-policy registry. Adapters drive user
// deletion from this list; nothing else decides cascade vs null-out.
func UserRelations() []UserRelation {
	return []UserRelation{
		// Attribution-only references: the referencing row survives.
		{Name: "announcements.author", Table: "announcements", Column: "author_user_id", Policy: DeletePolicySetNull},
		{Name: "support_tickets.assigned_to", Table: "support_tickets", Column: "assigned_to_user_id", Policy: DeletePolicySetNull},
		{Name: "enrollments.enrolled_by", Table: "enrollments", Column: "enrolled_by_user_id", Policy: DeletePolicySetNull},
		{Name: "notifications.triggered_by", Table: "notifications", Column: "triggered_by_user_id", Policy: DeletePolicySetNull},

		// Strict ownership: removed with the user. submission_answers hang
		// off submissions and go first.
		{
			Name:           "submission_answers.submission",
			Table:          "submission_answers",
			Column:         "submission_id",
			Policy:         DeletePolicyCascade,
			ViaTable:       "submissions",
			ViaKeyColumn:   "id",
			ViaOwnerColumn: "trainee_user_id",
		},
		{Name: "submissions.trainee", Table: "submissions", Column: "trainee_user_id", Policy: DeletePolicyCascade},
		{Name: "certificates.trainee", Table: "certificates", Column: "trainee_user_id", Policy: DeletePolicyCascade},
		{Name: "course_feedback.trainee", Table: "course_feedback", Column: "trainee_user_id", Policy: DeletePolicyCascade},
		{Name: "support_tickets.opened_by", Table: "support_tickets", Column: "opened_by_user_id", Policy: DeletePolicyCascade},
		{Name: "wishlists.user", Table: "wishlists", Column: "user_id", Policy: DeletePolicyCascade},
		{Name: "recent_searches.user", Table: "recent_searches", Column: "user_id", Policy: DeletePolicyCascade},
		{Name: "emergency_contacts.user", Table: "emergency_contacts", Column: "user_id", Policy: DeletePolicyCascade},
		{Name: "notifications.recipient", Table: "notifications", Column: "recipient_user_id", Policy: DeletePolicyCascade},
		{Name: "enrollments.trainee", Table: "enrollments", Column: "trainee_user_id", Policy: DeletePolicyCascade},
		{Name: "sessions.user", Table: "sessions", Column: "user_id", Policy: DeletePolicyCascade},
	}
}
