package postgresadapter

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	identityentities "paideia/contexts/identity-access/identity-service/domain/entities"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
)

// profileTables maps each role to its satellite table; the auditor scans
// exactly these pairs.
var profileTables = []struct {
	role  identityentities.Role
	table string
}{
	{identityentities.RoleAdmin, "admin_profiles"},
	{identityentities.RoleInstructor, "instructor_profiles"},
	{identityentities.RoleTrainee, "trainee_profiles"},
}

func (r *Repository) ListUsersMissingProfile(ctx context.Context) ([]ports.OrphanUser, error) {
	var orphans []ports.OrphanUser
	for _, pt := range profileTables {
		var rows []struct {
			ID        string    `gorm:"column:id"`
			Role      string    `gorm:"column:role"`
			CreatedAt time.Time `gorm:"column:created_at"`
		}
		err := r.db.WithContext(ctx).
			Table("users").
			Select("users.id, users.role, users.created_at").
			Joins("LEFT JOIN "+pt.table+" p ON p.user_id = users.id").
			Where("users.role = ? AND p.user_id IS NULL", string(pt.role)).
			Order("users.created_at ASC").
			Scan(&rows).
			Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			orphans = append(orphans, ports.OrphanUser{
				UserID:    row.ID,
				Role:      identityentities.Role(row.Role),
				CreatedAt: row.CreatedAt,
			})
		}
	}
	return orphans, nil
}

func (r *Repository) ListStaleProfiles(ctx context.Context) ([]ports.StaleProfile, error) {
	var stale []ports.StaleProfile
	for _, pt := range profileTables {
		var rows []struct {
			ProfileID string  `gorm:"column:profile_id"`
			UserID    string  `gorm:"column:user_id"`
			UserRole  *string `gorm:"column:user_role"`
		}
		err := r.db.WithContext(ctx).
			Table(pt.table+" p").
			Select("p.id AS profile_id, p.user_id AS user_id, u.role AS user_role").
			Joins("LEFT JOIN users u ON u.id = p.user_id").
			Where("u.id IS NULL OR u.role <> ?", string(pt.role)).
			Scan(&rows).
			Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			reason := "user_missing"
			if row.UserRole != nil {
				reason = "role_mismatch"
			}
			stale = append(stale, ports.StaleProfile{
				ProfileTable: pt.table,
				ProfileID:    row.ProfileID,
				UserID:       row.UserID,
				Reason:       reason,
			})
		}
	}
	return stale, nil
}

// RepairProfile inserts the satellite only if no row for the user exists.
// The ON CONFLICT DO NOTHING form makes concurrent repairs and racing role
// transitions converge without read-then-write.
func (r *Repository) RepairProfile(ctx context.Context, seed entities.ProfileSeed) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	})

	switch seed.Role {
	case identityentities.RoleAdmin:
		tx = tx.Create(&adminProfileModel{
			ID:         seed.ProfileID,
			UserID:     seed.UserID,
			AdminLevel: seed.AdminLevel,
			CreatedAt:  seed.CreatedAt,
		})
	case identityentities.RoleInstructor:
		tx = tx.Create(&instructorProfileModel{
			ID:        seed.ProfileID,
			UserID:    seed.UserID,
			StaffCode: seed.StaffCode,
			CreatedAt: seed.CreatedAt,
		})
	case identityentities.RoleTrainee:
		tx = tx.Create(&traineeProfileModel{
			ID:             seed.ProfileID,
			UserID:         seed.UserID,
			EnrollmentCode: seed.EnrollmentCode,
			CreatedAt:      seed.CreatedAt,
		})
	default:
		return false, nil
	}
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
