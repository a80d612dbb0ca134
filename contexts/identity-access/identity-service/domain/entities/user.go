package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Role is the single platform-wide role a user holds at any point in time.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleTrainee    Role = "trainee"
	RoleService    Role = "service"
)

// Valid reports whether the role belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleTrainee, RoleService:
		return true
	default:
		return false
	}
}

// RequiresProfile reports whether a user with this role carries exactly one
// role-specific profile row. Service accounts never do.
func (r Role) RequiresProfile() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleTrainee:
		return true
	default:
		return false
	}
}

// ParseRole normalizes raw role input.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// User is the identity root. Profile rows and resource ownership hang off
// its ID; the API key triple is optional and only meaningful for roles
// permitted to authenticate with keys.
type User struct {
	ID            string
	Email         string
	FullName      string
	Role          Role
	IsActive      bool
	PasswordHash  string
	APIKey        string
	APIKeyIndex   string
	APIKeyEnabled bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// APIKeyIndex derives the indexed lookup value for a raw API key. Key lookup
// always goes through this index, never through a scan of raw key values.
func APIKeyIndex(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
