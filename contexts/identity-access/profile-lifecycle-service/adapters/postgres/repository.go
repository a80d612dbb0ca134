package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/profile-lifecycle-service/domain/errors"
	"paideia/contexts/identity-access/profile-lifecycle-service/domain/services"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
	"paideia/internal/shared/events"
	"paideia/internal/shared/outbox"
)

// Repository owns every write to the users and satellite tables. Each method
// runs as one transaction; satellite consistency relies on the row lock
// taken on the user row plus the user_id uniqueness constraint on each
// satellite table.
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

func (r *Repository) CreateUser(ctx context.Context, input ports.CreateUserInput) (identityentities.User, error) {
	user := input.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := userModelFromEntity(user)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrEmailTaken
			}
			return err
		}
		if input.Seed != nil {
			if err := insertProfile(tx, *input.Seed); err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrProfileConflict
				}
				return err
			}
		}
		return appendOutbox(tx, ports.NewLifecycleEnvelope(
			input.OutboxID,
			events.EventTypeUserCreated,
			user.ID,
			map[string]string{"user_id": user.ID, "role": string(user.Role), "email": user.Email},
			user.CreatedAt,
		))
	})
	if err != nil {
		return identityentities.User{}, err
	}
	return user, nil
}

func (r *Repository) ChangeRole(ctx context.Context, input ports.ChangeRoleInput) (identityentities.User, error) {
	var updated identityentities.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockUser(tx, input.UserID)
		if err != nil {
			return err
		}

		oldRole := identityentities.Role(row.Role)
		plan := services.PlanRoleChange(oldRole, input.NewRole)
		if plan.Empty() && oldRole == input.NewRole {
			updated = row.toEntity()
			return nil
		}

		if plan.RemoveProfile != "" {
			if err := deleteProfile(tx, plan.RemoveProfile, row.ID); err != nil {
				return err
			}
		}
		if plan.InsertProfile != "" {
			seed := entities.NewProfileSeed(input.ProfileID, row.ID, plan.InsertProfile, row.CreatedAt)
			if err := insertProfile(tx, seed); err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrProfileConflict
				}
				return err
			}
		}

		now := time.Now().UTC()
		if err := tx.Model(&userModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"role": string(input.NewRole), "updated_at": now}).
			Error; err != nil {
			return err
		}

		row.Role = string(input.NewRole)
		row.UpdatedAt = now
		updated = row.toEntity()

		return appendOutbox(tx, ports.NewLifecycleEnvelope(
			input.OutboxID,
			events.EventTypeUserRoleChanged,
			row.ID,
			ports.RoleChangePayload{
				UserID:  row.ID,
				OldRole: string(oldRole),
				NewRole: string(input.NewRole),
			},
			now,
		))
	})
	if err != nil {
		return identityentities.User{}, err
	}
	return updated, nil
}

func (r *Repository) DeleteUser(ctx context.Context, input ports.DeleteUserInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockUser(tx, input.UserID)
		if err != nil {
			return err
		}
		role := identityentities.Role(row.Role)

		if plan := services.PlanDelete(role); plan.RemoveProfile != "" {
			if err := deleteProfile(tx, plan.RemoveProfile, row.ID); err != nil {
				return err
			}
		}

		// The relation registry is the only place delete policy is decided.
		for _, relation := range entities.UserRelations() {
			if err := applyRelationPolicy(tx, relation, row.ID); err != nil {
				return domainerrors.NewRelationConflict(relation.Name, err)
			}
		}

		if err := tx.Where("id = ?", row.ID).Delete(&userModel{}).Error; err != nil {
			return err
		}

		return appendOutbox(tx, ports.NewLifecycleEnvelope(
			input.OutboxID,
			events.EventTypeUserDeleted,
			row.ID,
			map[string]string{"user_id": row.ID, "role": string(role)},
			time.Now().UTC(),
		))
	})
}

func (r *Repository) UpdateAPIKey(ctx context.Context, input ports.UpdateAPIKeyInput) (identityentities.User, error) {
	var updated identityentities.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockUser(tx, input.UserID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		changes := map[string]any{
			"api_key_enabled": input.Enabled,
			"updated_at":      now,
		}
		if input.APIKey != "" {
			changes["api_key"] = input.APIKey
			changes["api_key_index"] = input.APIKeyIndex
		}
		if err := tx.Model(&userModel{}).
			Where("id = ?", row.ID).
			Updates(changes).
			Error; err != nil {
			return err
		}

		row.APIKeyEnabled = input.Enabled
		if input.APIKey != "" {
			row.APIKey = input.APIKey
			row.APIKeyIndex = input.APIKeyIndex
		}
		row.UpdatedAt = now
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		return identityentities.User{}, err
	}
	return updated, nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (ports.UserView, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserView{}, domainerrors.ErrUserNotFound
		}
		return ports.UserView{}, err
	}

	view := ports.UserView{User: row.toEntity()}
	switch identityentities.Role(row.Role) {
	case identityentities.RoleAdmin:
		var profile adminProfileModel
		if err := r.db.WithContext(ctx).Where("user_id = ?", row.ID).First(&profile).Error; err == nil {
			view.AdminProfile = profile.toEntity()
		}
	case identityentities.RoleInstructor:
		var profile instructorProfileModel
		if err := r.db.WithContext(ctx).Where("user_id = ?", row.ID).First(&profile).Error; err == nil {
			view.InstructorProfile = profile.toEntity()
		}
	case identityentities.RoleTrainee:
		var profile traineeProfileModel
		if err := r.db.WithContext(ctx).Where("user_id = ?", row.ID).First(&profile).Error; err == nil {
			view.TraineeProfile = profile.toEntity()
		}
	}
	return view, nil
}

// lockUser reads the user row under FOR UPDATE so concurrent lifecycle
// transitions on the same user serialize on the store's row lock.
func lockUser(tx *gorm.DB, userID string) (userModel, error) {
	var row userModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return userModel{}, domainerrors.ErrUserNotFound
		}
		return userModel{}, err
	}
	return row, nil
}

func insertProfile(tx *gorm.DB, seed entities.ProfileSeed) error {
	switch seed.Role {
	case identityentities.RoleAdmin:
		return tx.Create(&adminProfileModel{
			ID:         seed.ProfileID,
			UserID:     seed.UserID,
			AdminLevel: seed.AdminLevel,
			CreatedAt:  seed.CreatedAt,
		}).Error
	case identityentities.RoleInstructor:
		return tx.Create(&instructorProfileModel{
			ID:        seed.ProfileID,
			UserID:    seed.UserID,
			StaffCode: seed.StaffCode,
			CreatedAt: seed.CreatedAt,
		}).Error
	case identityentities.RoleTrainee:
		return tx.Create(&traineeProfileModel{
			ID:             seed.ProfileID,
			UserID:         seed.UserID,
			EnrollmentCode: seed.EnrollmentCode,
			CreatedAt:      seed.CreatedAt,
		}).Error
	default:
		return fmt.Errorf("role %s carries no profile", seed.Role)
	}
}

func deleteProfile(tx *gorm.DB, role identityentities.Role, userID string) error {
	// Deleting a missing satellite row is not an error; the auditor may
	// already have observed the gap this transition is repairing.
	switch role {
	case identityentities.RoleAdmin:
		return tx.Where("user_id = ?", userID).Delete(&adminProfileModel{}).Error
	case identityentities.RoleInstructor:
		return tx.Where("user_id = ?", userID).Delete(&instructorProfileModel{}).Error
	case identityentities.RoleTrainee:
		return tx.Where("user_id = ?", userID).Delete(&traineeProfileModel{}).Error
	default:
		return nil
	}
}

func applyRelationPolicy(tx *gorm.DB, relation entities.UserRelation, userID string) error {
	switch relation.Policy {
	case entities.DeletePolicySetNull:
		return tx.Table(relation.Table).
			Where(relation.Column+" = ?", userID).
			Update(relation.Column, nil).
			Error
	case entities.DeletePolicyCascade:
		if relation.OneHop() {
			subquery := fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = ?)",
				relation.Column, relation.ViaKeyColumn, relation.ViaTable, relation.ViaOwnerColumn)
			return tx.Table(relation.Table).Where(subquery, userID).Delete(nil).Error
		}
		return tx.Table(relation.Table).
			Where(relation.Column+" = ?", userID).
			Delete(nil).
			Error
	default:
		return fmt.Errorf("unknown delete policy %q", relation.Policy)
	}
}

func appendOutbox(tx *gorm.DB, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:  envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    outbox.StatusPending,
		CreatedAt: envelope.OccurredAtUTC,
	}).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
