package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate 使用内嵌的迁移文件升级到最新版本。
// 迁移驱动在关闭时会一并关闭底层连接，因此这里单独打开一个连接。
func Migrate(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (err error) {
	dialect := NewDialect(cfg.Driver)
	if dialect.Kind() == KindSQLite {
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return err
		}
	}

	db, err := sql.Open(dialect.DriverName(), cfg.DSN)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database for migration: %w", err)
	}

	driver, err := migrationDriver(dialect, db)
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+dialect.Kind())
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect.Kind(), driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	m.LockTimeout = 30 * time.Second
	defer func() {
		srcErr, dbErr := m.Close()
		err = multierr.Combine(err, srcErr, dbErr)
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", verr)
	}
	logger.Info("database migrations applied", zap.String("dialect", dialect.Kind()), zap.Uint("version", version))
	return nil
}

func migrationDriver(dialect Dialect, db *sql.DB) (migratedb.Driver, error) {
	switch dialect.Kind() {
	case KindPostgres:
		return migratepgx.WithInstance(db, &migratepgx.Config{})
	case KindMySQL:
		return migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		return migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
}
