// Package databasetest 提供测试用的已迁移 SQLite 数据库。
package databasetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/database"
	"go.uber.org/zap"
)

// Config 返回指向临时文件的 SQLite 配置。
func Config(t *testing.T) config.DatabaseConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contentcraft_test.db")
	return config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + filepath.ToSlash(path) + "?_time_format=sqlite",
	}
}

// Open 迁移临时 SQLite 库并返回连接，测试结束时自动关闭。
func Open(t *testing.T) (*sql.DB, database.Dialect) {
	t.Helper()
	cfg := Config(t)
	ctx := context.Background()
	if err := database.Migrate(ctx, cfg, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.New(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, database.NewDialect(cfg.Driver)
}
