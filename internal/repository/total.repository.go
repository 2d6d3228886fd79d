package repository

import (
	"context"
	"time"

	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TotalRepository struct {
	*pg.DB
}

func NewTotalRepository(db *pg.DB) *TotalRepository {
	return &TotalRepository{
		db,
	}
}

// Increment adds amount to the user's total in a single upsert statement,
// creating the row on first use, and returns the new total.
func (r *TotalRepository) Increment(ctx context.Context, userID int64, amount float64) (float64, error) {
	entity := &TotalEntity{
		UserID:    userID,
		Total:     amount,
		UpdatedAt: time.Now().UTC(),
	}

	err := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total":      gorm.Expr("totals.total + excluded.total"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(entity).
		Error
	if err != nil {
		return 0, errors.Wrap(err, "increment total")
	}

	return r.Get(ctx, userID)
}

// Get returns the user's total, 0 when no row exists.
func (r *TotalRepository) Get(ctx context.Context, userID int64) (float64, error) {
	var entity TotalEntity
	err := r.Write(ctx).
		Where("user_id = ?", userID).
		Take(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "get total")
	}
	return entity.Total, nil
}

// Set overwrites the user's total. Used by recovery.
func (r *TotalRepository) Set(ctx context.Context, userID int64, total float64) error {
	entity := &TotalEntity{
		UserID:    userID,
		Total:     total,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total", "updated_at"}),
		}).
		Create(entity).
		Error
	return errors.Wrap(err, "set total")
}

func (r *TotalRepository) DeleteByUser(ctx context.Context, userID int64) error {
	err := r.Write(ctx).
		Where("user_id = ?", userID).
		Delete(&TotalEntity{}).
		Error
	return errors.Wrap(err, "delete total")
}

// Rebuild replaces every total with the sum of the user's transactions and
// returns the number of rows written.
func (r *TotalRepository) Rebuild(ctx context.Context) (int64, error) {
	tx := r.Write(ctx)
	if err := tx.Exec("DELETE FROM totals").Error; err != nil {
		return 0, errors.Wrap(err, "clear totals")
	}

	result := tx.Exec(
		"INSERT INTO totals (user_id, total, updated_at) SELECT user_id, SUM(amount), ? FROM transactions GROUP BY user_id",
		time.Now().UTC(),
	)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "rebuild totals")
	}
	return result.RowsAffected, nil
}
