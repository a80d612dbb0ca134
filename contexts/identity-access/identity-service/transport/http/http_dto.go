package httptransport

import "time"

// LoginRequest carries credential input for session issuance.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the issued session token and expiry.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PrincipalResponse is the resolved caller identity exposed to the edge.
// An anonymous caller gets `anonymous: true` and empty identity fields.
type PrincipalResponse struct {
	Anonymous bool   `json:"anonymous"`
	ID        string `json:"id,omitempty"`
	Role      string `json:"role,omitempty"`
	IsActive  bool   `json:"is_active,omitempty"`
}
