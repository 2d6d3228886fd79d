package repository

import (
	"context"
	"strings"
	"time"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultListLimit   = 50
	DefaultSearchLimit = 100
)

// profileColumns are the columns a profile update may write. uid is bound
// only through SetUID.
var profileColumns = []string{"name", "nickname", "profession", "industry", "phone", "bio", "gender", "updated_at"}

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	entity := toUserEntity(user)
	now := time.Now().UTC()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	entity.UpdatedAt = now

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, model.ErrUIDConflict
		}
		return nil, errors.Wrap(err, "create user")
	}

	return toUserModel(entity), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "get user")
	}

	return toUserModel(&entity), nil
}

// GetByIDForUpdate loads the user and locks its row until the surrounding
// transaction ends.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.User, error) {
	var entity UserEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "lock user")
	}

	return toUserModel(&entity), nil
}

// GetByUID resolves a tag uid to its holder, ignoring case.
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).
		Where("UPPER(uid) = ?", model.NormalizeUID(uid)).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUIDNotFound
		}
		return nil, errors.Wrap(err, "get user by uid")
	}

	return toUserModel(&entity), nil
}

// UpdateProfile writes the profile columns of user. The uid column is left
// untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) (*model.User, error) {
	entity := toUserEntity(user)
	entity.UpdatedAt = time.Now().UTC()

	result := r.Write(ctx).
		Model(&UserEntity{}).
		Where("id = ?", user.ID).
		Select(profileColumns).
		Updates(entity)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "update user profile")
	}
	if result.RowsAffected == 0 {
		return nil, model.ErrUserNotFound
	}

	return r.GetByID(ctx, user.ID)
}

// SetUID binds uid to the user. A nil uid unlinks the user.
func (r *UserRepository) SetUID(ctx context.Context, id int64, uid *string) error {
	result := r.Write(ctx).
		Model(&UserEntity{}).
		Where("id = ?", id).
		Updates(map[string]any{"uid": uid, "updated_at": time.Now().UTC()})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrUIDConflict
		}
		return errors.Wrap(result.Error, "set user uid")
	}
	if result.RowsAffected == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

// ReleaseUID clears uid from whichever user holds it and returns that user's
// id, or 0 when the uid was free.
func (r *UserRepository) ReleaseUID(ctx context.Context, uid string) (int64, error) {
	holder, err := r.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, model.ErrUIDNotFound) {
			return 0, nil
		}
		return 0, err
	}

	if err := r.SetUID(ctx, holder.ID, nil); err != nil {
		return 0, err
	}
	return holder.ID, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).
		Where("id = ?", id).
		Delete(&UserEntity{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "delete user")
	}
	if result.RowsAffected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Search lists users with their totals, newest first. An empty query lists
// the latest DefaultListLimit users, otherwise name, nickname, profession,
// industry and uid are matched case-insensitively.
func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]*model.UserWithTotal, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = DefaultListLimit
		if query != "" {
			limit = DefaultSearchLimit
		}
	}

	tx := r.Read(ctx).
		Table("users AS u").
		Select("u.*, COALESCE(t.total, 0) AS total").
		Joins("LEFT JOIN totals AS t ON t.user_id = u.id")

	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		tx = tx.Where(
			"LOWER(u.name) LIKE ? OR LOWER(u.nickname) LIKE ? OR LOWER(u.profession) LIKE ? OR LOWER(u.industry) LIKE ? OR LOWER(u.uid) LIKE ?",
			like, like, like, like, like,
		)
	}

	var rows []*userWithTotalRow
	err := tx.Order("u.id DESC").
		Limit(limit).
		Scan(&rows).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}

	return toUserWithTotalModels(rows), nil
}
