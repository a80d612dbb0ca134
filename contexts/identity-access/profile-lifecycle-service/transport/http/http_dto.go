package httptransport

import "time"

// CreateUserRequest is the POST /api/v1/users body.
type CreateUserRequest struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	WithAPIKey bool   `json:"with_api_key,omitempty"`
}

// ChangeRoleRequest is the PATCH /api/v1/users/{id}/role body.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// SetAPIKeyEnabledRequest is the PATCH /api/v1/users/{id}/api-key body.
type SetAPIKeyEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// UserResponse is the user shape returned by lifecycle endpoints. RawAPIKey
// is present only on the response that issued the key.
type UserResponse struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	FullName      string           `json:"full_name"`
	Role          string           `json:"role"`
	IsActive      bool             `json:"is_active"`
	APIKeyEnabled bool             `json:"api_key_enabled"`
	CreatedAt     time.Time        `json:"created_at"`
	RawAPIKey     string           `json:"raw_api_key,omitempty"`
	Profile       *ProfileResponse `json:"profile,omitempty"`
}

// ProfileResponse is the satellite attached to a user view. Exactly one of
// the role-specific fields is set, matching the user's role.
type ProfileResponse struct {
	ID             string    `json:"id"`
	AdminLevel     string    `json:"admin_level,omitempty"`
	StaffCode      string    `json:"staff_code,omitempty"`
	EnrollmentCode string    `json:"enrollment_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuditReportResponse is the body of POST /api/v1/audit/run.
type AuditReportResponse struct {
	MissingFound int       `json:"missing_found"`
	Repaired     int       `json:"repaired"`
	Stale        int       `json:"stale"`
	Failed       int       `json:"failed"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
