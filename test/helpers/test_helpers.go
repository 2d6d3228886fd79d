package helpers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/internal/repository"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/nimasrn/hero-points/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated in-memory sqlite database behind a pg.DB.
// A single connection is shared, so concurrent callers serialize on it.
func SetupTestDB(t *testing.T) *pg.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Entities()...))

	return pg.New(db, db)
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	t.Cleanup(func() { _ = client.Close() })

	return mr, redis.NewRedisAdapterFromClient("test:", client)
}

func CreateTestUser(t *testing.T, db *pg.DB, name string, uid *string) *model.User {
	t.Helper()

	user, err := repository.NewUserRepository(db).Create(context.Background(), &model.User{
		Name:   name,
		Gender: model.GenderOther,
		UID:    uid,
	})
	require.NoError(t, err)
	return user
}

func CreateTestContribution(t *testing.T, db *pg.DB, userID int64, amount float64) {
	t.Helper()

	ctx := context.Background()
	err := db.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repository.NewTransactionRepository(db).Create(ctx, userID, amount); err != nil {
			return err
		}
		_, err := repository.NewTotalRepository(db).Increment(ctx, userID, amount)
		return err
	})
	require.NoError(t, err)
}

func Ptr[T any](v T) *T {
	return &v
}
