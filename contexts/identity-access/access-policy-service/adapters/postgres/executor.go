package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"paideia/contexts/identity-access/access-policy-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/access-policy-service/domain/errors"
	"paideia/contexts/identity-access/access-policy-service/ports"
)

// Executor runs visibility-scoped queries against the resource tables.
// Table and column names come exclusively from the resource registry and the
// application layer's identifier validation; values always bind as
// placeholders.
type Executor struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewExecutor(db *gorm.DB, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		db:     db,
		logger: logger,
	}
}

func (e *Executor) List(
	ctx context.Context,
	policy entities.ResourcePolicy,
	decision entities.Decision,
	query ports.ResourceQuery,
) ([]ports.Row, error) {
	tx := e.db.WithContext(ctx).Table(policy.Table)
	tx = applyScope(tx, decision)
	for column, value := range query.Filters {
		tx = tx.Where(column+" = ?", value)
	}
	if query.OrderBy != "" {
		direction := "ASC"
		if query.Desc {
			direction = "DESC"
		}
		tx = tx.Order(query.OrderBy + " " + direction)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if query.Offset > 0 {
		tx = tx.Offset(query.Offset)
	}

	var rows []map[string]any
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.Row(row))
	}
	return out, nil
}

func (e *Executor) Insert(ctx context.Context, policy entities.ResourcePolicy, row ports.Row) error {
	err := e.db.WithContext(ctx).
		Table(policy.Table).
		Create(map[string]any(row)).
		Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateRow
		}
		return err
	}
	return nil
}

func (e *Executor) Update(
	ctx context.Context,
	policy entities.ResourcePolicy,
	decision entities.Decision,
	rowID string,
	changes ports.Row,
) error {
	tx := e.db.WithContext(ctx).
		Table(policy.Table).
		Where("id = ?", rowID)
	tx = applyScope(tx, decision)

	result := tx.Updates(map[string]any(changes))
	if result.Error != nil {
		return result.Error
	}
	// A row outside the owner scope is indistinguishable from a missing row.
	if result.RowsAffected == 0 {
		return domainerrors.ErrRowNotFound
	}
	return nil
}

func (e *Executor) Delete(
	ctx context.Context,
	policy entities.ResourcePolicy,
	decision entities.Decision,
	rowID string,
) error {
	tx := e.db.WithContext(ctx).
		Table(policy.Table).
		Where("id = ?", rowID)
	tx = applyScope(tx, decision)

	result := tx.Delete(nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRowNotFound
	}
	return nil
}

// applyScope conjoins the FilterBy owner predicate. One-hop paths resolve
// through a subquery on the relation table.
func applyScope(tx *gorm.DB, decision entities.Decision) *gorm.DB {
	if !decision.Filtered() {
		return tx
	}
	owner := decision.Owner
	if owner.Direct() {
		return tx.Where(owner.Column+" = ?", decision.OwnerID)
	}
	return tx.Where(
		fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = ?)",
			owner.ViaLocalColumn, owner.ViaKeyColumn, owner.ViaTable, owner.ViaOwnerColumn),
		decision.OwnerID,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// SystemClock implements ports.Clock using wall-clock UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
