package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nimasrn/hero-points/internal/config"
	"github.com/nimasrn/hero-points/internal/repository"
	"github.com/nimasrn/hero-points/internal/services"
	"github.com/nimasrn/hero-points/migrations"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/pkg/errors"
)

func main() {
	var (
		envPath      = flag.String("env", "", "path of an env file to load")
		migrate      = flag.Bool("migrate", false, "apply pending migrations")
		recompute    = flag.Bool("recompute-totals", false, "rebuild every total from its transactions")
		userID       = flag.Int64("user", 0, "with --recompute-totals, rebuild only this user's total")
		hashPassword = flag.String("hash-password", "", "print the bcrypt hash of the given admin password")
	)
	flag.Parse()
	defer logger.Sync()

	if *hashPassword != "" {
		hash, err := services.HashPassword(*hashPassword)
		if err != nil {
			logger.Fatal(errors.Wrap(err, "failed hashing password"))
		}
		fmt.Println(hash)
		return
	}

	if !*migrate && !*recompute {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.Load(*envPath); err != nil {
		logger.Fatal(errors.Wrap(err, "failed to load config"))
	}
	cfg := config.Get()

	if *migrate {
		if err := pg.Migrate(cfg.PostgresWrite(), migrations.FS, "."); err != nil {
			logger.Fatal(errors.Wrap(err, "migration: error running migrations"))
		}
	}

	if *recompute {
		db, err := pg.CreateReadWrite(cfg.PostgresWrite(), cfg.PostgresWrite(), cfg.AppDebug)
		if err != nil {
			logger.Fatal(errors.Wrap(err, "failed connecting to pg"))
		}
		defer db.Close()

		userRepo := repository.NewUserRepository(db)
		registry := services.NewUIDRegistry(userRepo, db, cfg.UIDGenerationAttempts)
		ledger := services.NewLedgerService(db, userRepo,
			repository.NewTransactionRepository(db),
			repository.NewTotalRepository(db),
			registry, nil)

		ctx := context.Background()
		if *userID > 0 {
			total, err := ledger.RecomputeTotal(ctx, *userID)
			if err != nil {
				logger.Error("recompute total failed", "user_id", *userID, "error", err)
				return
			}
			logger.Info("total recomputed", "user_id", *userID, "total", total)
			return
		}

		n, err := ledger.RecomputeTotals(ctx)
		if err != nil {
			logger.Error("recompute totals failed", "error", err)
			return
		}
		logger.Info("totals recomputed", "users", n)
	}
}
