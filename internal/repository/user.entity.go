package repository

import (
	"time"

	"github.com/nimasrn/hero-points/internal/model"
)

type UserEntity struct {
	ID         int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Name       string    `db:"name"       gorm:"column:name;not null"`
	Nickname   *string   `db:"nickname"   gorm:"column:nickname"`
	Profession *string   `db:"profession" gorm:"column:profession"`
	Industry   *string   `db:"industry"   gorm:"column:industry"`
	Phone      *string   `db:"phone"      gorm:"column:phone"`
	Bio        *string   `db:"bio"        gorm:"column:bio"`
	Gender     string    `db:"gender"     gorm:"column:gender;not null;default:other"`
	UID        *string   `db:"uid"        gorm:"column:uid;uniqueIndex:idx_users_uid"`
	CreatedAt  time.Time `db:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `db:"updated_at" gorm:"column:updated_at;not null"`
}

func (UserEntity) TableName() string {
	return "users"
}

// userWithTotalRow is the scan target of users LEFT JOIN totals.
type userWithTotalRow struct {
	UserEntity
	Total float64 `gorm:"column:total"`
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:         m.ID,
		Name:       m.Name,
		Nickname:   m.Nickname,
		Profession: m.Profession,
		Industry:   m.Industry,
		Phone:      m.Phone,
		Bio:        m.Bio,
		Gender:     string(m.Gender),
		UID:        m.UID,
		CreatedAt:  m.CreatedAt,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:         e.ID,
		Name:       e.Name,
		Nickname:   e.Nickname,
		Profession: e.Profession,
		Industry:   e.Industry,
		Phone:      e.Phone,
		Bio:        e.Bio,
		Gender:     model.Gender(e.Gender),
		UID:        e.UID,
		CreatedAt:  e.CreatedAt,
	}
}

func toUserWithTotalModels(rows []*userWithTotalRow) []*model.UserWithTotal {
	models := make([]*model.UserWithTotal, len(rows))
	for i, r := range rows {
		models[i] = &model.UserWithTotal{
			User:  *toUserModel(&r.UserEntity),
			Total: r.Total,
		}
	}
	return models
}
