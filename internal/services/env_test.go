package services

import (
	"testing"

	"github.com/nimasrn/hero-points/internal/repository"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/nimasrn/hero-points/test/helpers"
)

type testEnv struct {
	db       *pg.DB
	users    *repository.UserRepository
	scans    *repository.ScanRepository
	txns     *repository.TransactionRepository
	totals   *repository.TotalRepository
	registry *UIDRegistry
	ledger   *LedgerService
	userSvc  *UserService
	scanSvc  *ScanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := helpers.SetupTestDB(t)
	env := &testEnv{
		db:     db,
		users:  repository.NewUserRepository(db),
		scans:  repository.NewScanRepository(db),
		txns:   repository.NewTransactionRepository(db),
		totals: repository.NewTotalRepository(db),
	}
	env.registry = NewUIDRegistry(env.users, db, DefaultUIDGenerationAttempts)
	env.ledger = NewLedgerService(db, env.users, env.txns, env.totals, env.registry, nil)
	env.userSvc = NewUserService(db, env.users, env.txns, env.totals, env.registry, nil)
	env.scanSvc = NewScanService(env.scans, env.registry, env.ledger)
	return env
}

// sequence returns a generator that yields uids in order, then repeats the
// last one.
func sequence(uids ...string) func() string {
	i := 0
	return func() string {
		uid := uids[i]
		if i < len(uids)-1 {
			i++
		}
		return uid
	}
}
