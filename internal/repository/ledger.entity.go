package repository

import (
	"time"

	"github.com/nimasrn/hero-points/internal/model"
)

type TransactionEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `db:"user_id"    gorm:"column:user_id;not null;index"`
	Amount    float64   `db:"amount"     gorm:"column:amount;not null"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;not null"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type TotalEntity struct {
	UserID    int64     `db:"user_id"    gorm:"primaryKey;autoIncrement:false;column:user_id"`
	Total     float64   `db:"total"      gorm:"column:total;not null;default:0"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;not null"`
}

func (TotalEntity) TableName() string {
	return "totals"
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:        e.ID,
		UserID:    e.UserID,
		Amount:    e.Amount,
		CreatedAt: e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

func toTotalModel(e *TotalEntity) *model.Total {
	if e == nil {
		return nil
	}
	return &model.Total{
		UserID:    e.UserID,
		Total:     e.Total,
		UpdatedAt: e.UpdatedAt,
	}
}
