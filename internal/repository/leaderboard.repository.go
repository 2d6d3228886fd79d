package repository

import (
	"context"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/pkg/errors"
)

type LeaderboardRepository struct {
	*pg.DB
}

func NewLeaderboardRepository(db *pg.DB) *LeaderboardRepository {
	return &LeaderboardRepository{
		db,
	}
}

type leaderboardRow struct {
	ID         int64   `gorm:"column:id"`
	Name       string  `gorm:"column:name"`
	Nickname   *string `gorm:"column:nickname"`
	Profession *string `gorm:"column:profession"`
	Industry   *string `gorm:"column:industry"`
	Total      float64 `gorm:"column:total"`
}

// Ranked lists every user, including those without a total, by total
// descending with ties broken by ascending id. limit <= 0 returns all rows.
func (r *LeaderboardRepository) Ranked(ctx context.Context, limit int) ([]*model.LeaderboardRow, error) {
	tx := r.Read(ctx).
		Table("users AS u").
		Select("u.id, u.name, u.nickname, u.profession, u.industry, COALESCE(t.total, 0) AS total").
		Joins("LEFT JOIN totals AS t ON t.user_id = u.id").
		Order("total DESC").
		Order("u.id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []*leaderboardRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "rank users")
	}

	ranked := make([]*model.LeaderboardRow, len(rows))
	for i, row := range rows {
		ranked[i] = &model.LeaderboardRow{
			ID:         row.ID,
			Label:      model.Label(row.ID, row.Name, row.Nickname),
			Total:      row.Total,
			Profession: row.Profession,
			Industry:   row.Industry,
		}
	}
	return ranked, nil
}
