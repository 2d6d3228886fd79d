package repository

import (
	"context"
	"time"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/pkg/errors"
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, userID int64, amount float64) (*model.Transaction, error) {
	entity := &TransactionEntity{
		UserID:    userID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, errors.Wrap(err, "create transaction")
	}

	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var entities []*TransactionEntity
	err := r.Read(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}

	return toTransactionModels(entities), nil
}

// SumByUser returns the sum of all amounts recorded for the user.
func (r *TransactionRepository) SumByUser(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.Read(ctx).
		Model(&TransactionEntity{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).
		Error
	if err != nil {
		return 0, errors.Wrap(err, "sum transactions")
	}
	return sum, nil
}

func (r *TransactionRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result := r.Write(ctx).
		Where("user_id = ?", userID).
		Delete(&TransactionEntity{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "delete transactions")
	}
	return result.RowsAffected, nil
}
