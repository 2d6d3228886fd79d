package pg

import (
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending migration found in dir of fsys. Applied
// versions are tracked by goose in its version table.
func Migrate(cfg Config, fsys fs.FS, dir string) error {
	goose.SetBaseFS(fsys)
	goose.SetLogger(logger.GetLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = goose.Up(db, dir); err != nil {
		return err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return err
	}
	logger.Info("database migrated", "version", version)
	return nil
}
