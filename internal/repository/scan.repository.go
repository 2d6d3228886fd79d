package repository

import (
	"context"
	"time"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ScanRepository struct {
	*pg.DB
}

func NewScanRepository(db *pg.DB) *ScanRepository {
	return &ScanRepository{
		db,
	}
}

// Create appends a scan event. The uid is stored as given.
func (r *ScanRepository) Create(ctx context.Context, uid string) (*model.Scan, error) {
	entity := &ScanEntity{
		UID: uid,
		TS:  time.Now().UTC(),
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, errors.Wrap(err, "create scan")
	}

	return toScanModel(entity), nil
}

// Latest returns the scan with the greatest id.
func (r *ScanRepository) Latest(ctx context.Context) (*model.Scan, error) {
	var entity ScanEntity
	err := r.Read(ctx).
		Order("id DESC").
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNoScans
		}
		return nil, errors.Wrap(err, "get latest scan")
	}

	return toScanModel(&entity), nil
}

// List returns scans newest first, optionally restricted to one uid.
func (r *ScanRepository) List(ctx context.Context, uid string, limit int) ([]*model.Scan, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	tx := r.Read(ctx).Model(&ScanEntity{})
	if uid != "" {
		tx = tx.Where("uid = ?", uid)
	}

	var entities []*ScanEntity
	if err := tx.Order("id DESC").Limit(limit).Find(&entities).Error; err != nil {
		return nil, errors.Wrap(err, "list scans")
	}

	return toScanModels(entities), nil
}
