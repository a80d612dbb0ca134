package entities

import (
	"fmt"
	"strings"
	"time"

	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

// AdminProfile is the satellite row for role=admin.
type AdminProfile struct {
	ID         string
	UserID     string
	AdminLevel string
	CreatedAt  time.Time
}

// InstructorProfile is the satellite row for role=instructor.
type InstructorProfile struct {
	ID        string
	UserID    string
	StaffCode string
	Bio       string
	CreatedAt time.Time
}

// TraineeProfile is the satellite row for role=trainee.
type TraineeProfile struct {
	ID             string
	UserID         string
	EnrollmentCode string
	CreatedAt      time.Time
}

const DefaultAdminLevel = "standard"

// EnrollmentCode derives the trainee enrollment identifier from the user id
// and creation year. The rule is deterministic so the consistency auditor
// reproduces exactly what the create transition would have written.
func EnrollmentCode(userID string, createdAt time.Time) string {
	return derivedCode("TR", userID, createdAt)
}

// StaffCode derives the instructor staff identifier, same rule as
// EnrollmentCode with a different prefix.
func StaffCode(userID string, createdAt time.Time) string {
	return derivedCode("IN", userID, createdAt)
}

func derivedCode(prefix, userID string, createdAt time.Time) string {
	compact := strings.ReplaceAll(strings.TrimSpace(userID), "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, createdAt.UTC().Year(), compact)
}

// ProfileSeed carries the deterministic default fields for one satellite
// insert. Both the lifecycle create transition and the auditor's repair path
// build inserts from a seed, never ad hoc.
type ProfileSeed struct {
	ProfileID      string
	UserID         string
	Role           identityentities.Role
	AdminLevel     string
	StaffCode      string
	EnrollmentCode string
	CreatedAt      time.Time
}

// NewProfileSeed computes the satellite defaults for a role-bearing user.
// The caller supplies the profile row id; userCreatedAt anchors the derived
// codes to the user's creation year.
func NewProfileSeed(profileID string, userID string, role identityentities.Role, userCreatedAt time.Time) ProfileSeed {
	seed := ProfileSeed{
		ProfileID: profileID,
		UserID:    userID,
		Role:      role,
		CreatedAt: userCreatedAt.UTC(),
	}
	switch role {
	case identityentities.RoleAdmin:
		seed.AdminLevel = DefaultAdminLevel
	case identityentities.RoleInstructor:
		seed.StaffCode = StaffCode(userID, userCreatedAt)
	case identityentities.RoleTrainee:
		seed.EnrollmentCode = EnrollmentCode(userID, userCreatedAt)
	}
	return seed
}
