package services

import (
	"context"
	"errors"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.User, error)
	GetByUID(ctx context.Context, uid string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) (*model.User, error)
	SetUID(ctx context.Context, id int64, uid *string) error
	ReleaseUID(ctx context.Context, uid string) (int64, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int) ([]*model.UserWithTotal, error)
}

type ScanRepository interface {
	Create(ctx context.Context, uid string) (*model.Scan, error)
	Latest(ctx context.Context) (*model.Scan, error)
	List(ctx context.Context, uid string, limit int) ([]*model.Scan, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, userID int64, amount float64) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error)
	SumByUser(ctx context.Context, userID int64) (float64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type TotalRepository interface {
	Increment(ctx context.Context, userID int64, amount float64) (float64, error)
	Get(ctx context.Context, userID int64) (float64, error)
	Set(ctx context.Context, userID int64, total float64) error
	DeleteByUser(ctx context.Context, userID int64) error
	Rebuild(ctx context.Context) (int64, error)
}

type LeaderboardRepository interface {
	Ranked(ctx context.Context, limit int) ([]*model.LeaderboardRow, error)
}

// LeaderboardInvalidator is notified after every committed change that can
// reorder the leaderboard.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

func orNoop(inv LeaderboardInvalidator) LeaderboardInvalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

var domainKinds = []error{
	model.ErrValidation,
	model.ErrConflict,
	model.ErrNotFound,
	model.ErrUnauthenticated,
	model.ErrOperationFailed,
}

// classify passes domain errors through and turns anything else into an
// operation failure, logging the cause.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range domainKinds {
		if errors.Is(err, k) {
			return err
		}
	}
	logger.Error(op+" failed", "error", err)
	return model.OperationFailed(op, err)
}
