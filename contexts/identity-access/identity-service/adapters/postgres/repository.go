package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"paideia/contexts/identity-access/identity-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/identity-service/domain/errors"
)

// Repository implements identity lookups against the shared users table and
// owns the sessions table. It never mutates users; user writes belong to the
// profile-lifecycle service.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) FindUserByID(ctx context.Context, userID string) (entities.User, error) {
	return r.findUser(ctx, "id = ?", strings.TrimSpace(userID))
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (entities.User, error) {
	return r.findUser(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) FindUserByAPIKeyIndex(ctx context.Context, index string) (entities.User, error) {
	return r.findUser(ctx, "api_key_index = ?", strings.TrimSpace(index))
}

func (r *Repository) findUser(ctx context.Context, query string, arg string) (entities.User, error) {
	if arg == "" {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	var row userModel
	err := r.db.WithContext(ctx).
		Where(query, arg).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateSession(ctx context.Context, session entities.Session) error {
	row := sessionModel{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt.UTC(),
		CreatedAt: session.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) FindSession(ctx context.Context, token string) (entities.Session, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("token = ?", strings.TrimSpace(token)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, err
	}
	return entities.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Where("token = ?", strings.TrimSpace(token)).
		Delete(&sessionModel{}).
		Error
}

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

func (m userModel) toEntity() entities.User {
	return entities.User{
		ID:            m.ID,
		Email:         m.Email,
		FullName:      m.FullName,
		Role:          entities.Role(m.Role),
		IsActive:      m.IsActive,
		PasswordHash:  m.PasswordHash,
		APIKey:        m.APIKey,
		APIKeyIndex:   m.APIKeyIndex,
		APIKeyEnabled: m.APIKeyEnabled,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type sessionModel struct {
	Token     string    `gorm:"column:token;primaryKey"`
	UserID    string    `gorm:"column:user_id;index"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (sessionModel) TableName() string { return "sessions" }

// SystemClock implements ports.Clock using wall-clock UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
