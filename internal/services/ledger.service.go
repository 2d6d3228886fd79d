package services

import (
	"context"
	"math"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/prom"
)

const (
	SourceGateway = "gateway"
	SourceAdmin   = "admin"
)

type LedgerService struct {
	tx       Transactor
	users    UserRepository
	txns     TransactionRepository
	totals   TotalRepository
	registry *UIDRegistry
	board    LeaderboardInvalidator
}

func NewLedgerService(tx Transactor, users UserRepository, txns TransactionRepository, totals TotalRepository, registry *UIDRegistry, board LeaderboardInvalidator) *LedgerService {
	return &LedgerService{
		tx:       tx,
		users:    users,
		txns:     txns,
		totals:   totals,
		registry: registry,
		board:    orNoop(board),
	}
}

func ValidAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}

// AddContribution records amount for the user and adds it to the running
// total. Both writes commit together or not at all.
func (s *LedgerService) AddContribution(ctx context.Context, userID int64, amount float64, source string) (*model.Contribution, error) {
	if !ValidAmount(amount) {
		return nil, model.ErrInvalidAmount
	}

	var result *model.Contribution
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		txn, err := s.txns.Create(ctx, userID, amount)
		if err != nil {
			return err
		}

		total, err := s.totals.Increment(ctx, userID, amount)
		if err != nil {
			return err
		}

		result = &model.Contribution{Transaction: txn, User: user, NewTotal: total}
		return nil
	})
	if err != nil {
		logger.Warn("contribution not applied", "user_id", userID, "amount", amount, "source", source, "error", err)
		return nil, classify("add contribution", err)
	}

	prom.AddContribution(source, amount)
	s.board.Invalidate(ctx)
	logger.Info("contribution applied",
		"user_id", userID,
		"amount", amount,
		"total", result.NewTotal,
		"transaction_id", result.Transaction.ID,
		"source", source)

	return result, nil
}

// AddContributionByUID resolves the tag first. An unknown uid fails with
// ErrUIDNotFound.
func (s *LedgerService) AddContributionByUID(ctx context.Context, uid string, amount float64, source string) (*model.Contribution, error) {
	if !ValidAmount(amount) {
		return nil, model.ErrInvalidAmount
	}
	user, err := s.registry.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.AddContribution(ctx, user.ID, amount, source)
}

func (s *LedgerService) Total(ctx context.Context, userID int64) (float64, error) {
	total, err := s.totals.Get(ctx, userID)
	return total, classify("get total", err)
}

func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, classify("transaction history", err)
	}
	txns, err := s.txns.ListByUser(ctx, userID, limit)
	return txns, classify("transaction history", err)
}

// RecomputeTotal rebuilds one user's total from the transaction log.
func (s *LedgerService) RecomputeTotal(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sum, err := s.txns.SumByUser(ctx, userID)
		if err != nil {
			return err
		}
		total = sum
		if sum == 0 {
			return s.totals.DeleteByUser(ctx, userID)
		}
		return s.totals.Set(ctx, userID, sum)
	})
	if err != nil {
		return 0, classify("recompute total", err)
	}

	s.board.Invalidate(ctx)
	return total, nil
}

// RecomputeTotals rebuilds every total from the transaction log and returns
// the number of totals written.
func (s *LedgerService) RecomputeTotals(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.totals.Rebuild(ctx)
		return err
	})
	if err != nil {
		return 0, classify("recompute totals", err)
	}

	s.board.Invalidate(ctx)
	logger.Info("totals recomputed", "rows", n)
	return n, nil
}
