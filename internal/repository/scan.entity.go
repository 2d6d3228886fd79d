package repository

import (
	"time"

	"github.com/nimasrn/hero-points/internal/model"
)

type ScanEntity struct {
	ID  int64     `db:"id"  gorm:"primaryKey;autoIncrement;column:id"`
	UID string    `db:"uid" gorm:"column:uid;not null;index"`
	TS  time.Time `db:"ts"  gorm:"column:ts;not null"`
}

func (ScanEntity) TableName() string {
	return "scans"
}

func toScanModel(e *ScanEntity) *model.Scan {
	if e == nil {
		return nil
	}
	return &model.Scan{
		ID:  e.ID,
		UID: e.UID,
		TS:  e.TS,
	}
}

func toScanModels(entities []*ScanEntity) []*model.Scan {
	models := make([]*model.Scan, len(entities))
	for i, e := range entities {
		models[i] = toScanModel(e)
	}
	return models
}
