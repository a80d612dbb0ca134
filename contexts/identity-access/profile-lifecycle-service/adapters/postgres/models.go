package postgresadapter

import (
	"time"

	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
)

type userModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Email         string    `gorm:"column:email;uniqueIndex"`
	FullName      string    `gorm:"column:full_name"`
	Role          string    `gorm:"column:role"`
	IsActive      bool      `gorm:"column:is_active"`
	PasswordHash  string    `gorm:"column:password_hash"`
	APIKey        string    `gorm:"column:api_key"`
	APIKeyIndex   string    `gorm:"column:api_key_index;uniqueIndex"`
	APIKeyEnabled bool      `gorm:"column:api_key_enabled"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func userModelFromEntity(user identityentities.User) userModel {
	return userModel{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          string(user.Role),
		IsActive:      user.IsActive,
		PasswordHash:  user.PasswordHash,
		APIKey:        user.APIKey,
		APIKeyIndex:   user.APIKeyIndex,
		APIKeyEnabled: user.APIKeyEnabled,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func (m userModel) toEntity() identityentities.User {
	return identityentities.User{
		ID:            m.ID,
		Email:         m.Email,
		FullName:      m.FullName,
		Role:          identityentities.Role(m.Role),
		IsActive:      m.IsActive,
		PasswordHash:  m.PasswordHash,
		APIKey:        m.APIKey,
		APIKeyIndex:   m.APIKeyIndex,
		APIKeyEnabled: m.APIKeyEnabled,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type adminProfileModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	UserID     string    `gorm:"column:user_id;uniqueIndex"`
	AdminLevel string    `gorm:"column:admin_level"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (adminProfileModel) TableName() string { return "admin_profiles" }

func (m adminProfileModel) toEntity() *entities.AdminProfile {
	return &entities.AdminProfile{
		ID:         m.ID,
		UserID:     m.UserID,
		AdminLevel: m.AdminLevel,
		CreatedAt:  m.CreatedAt,
	}
}

type instructorProfileModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;uniqueIndex"`
	StaffCode string    `gorm:"column:staff_code"`
	Bio       string    `gorm:"column:bio"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (instructorProfileModel) TableName() string { return "instructor_profiles" }

func (m instructorProfileModel) toEntity() *entities.InstructorProfile {
	return &entities.InstructorProfile{
		ID:        m.ID,
		UserID:    m.UserID,
		StaffCode: m.StaffCode,
		Bio:       m.Bio,
		CreatedAt: m.CreatedAt,
	}
}

type traineeProfileModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	UserID         string    `gorm:"column:user_id;uniqueIndex"`
	EnrollmentCode string    `gorm:"column:enrollment_code"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (traineeProfileModel) TableName() string { return "trainee_profiles" }

func (m traineeProfileModel) toEntity() *entities.TraineeProfile {
	return &entities.TraineeProfile{
		ID:             m.ID,
		UserID:         m.UserID,
		EnrollmentCode: m.EnrollmentCode,
		CreatedAt:      m.CreatedAt,
	}
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status;index"`
	RetryCount  int        `gorm:"column:retry_count"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "lifecycle_outbox" }
