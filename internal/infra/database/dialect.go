package database

import (
	"fmt"
	"strings"
)

const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMySQL    = "mysql"
)

// Dialect 用于适配不同数据库的占位符风格与少量语法差异。
type Dialect struct {
	kind string
}

// NewDialect 根据驱动名称构建方言，postgresql/pgx 视为 postgres。
func NewDialect(driver string) Dialect {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx", "postgresql":
		return Dialect{kind: KindPostgres}
	case "mysql":
		return Dialect{kind: KindMySQL}
	default:
		return Dialect{kind: KindSQLite}
	}
}

// Kind 返回归一化后的方言名称，同时也是迁移目录名。
func (d Dialect) Kind() string {
	return d.kind
}

// DriverName 返回 database/sql 注册的驱动名。
func (d Dialect) DriverName() string {
	switch d.kind {
	case KindPostgres:
		return "pgx"
	case KindMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// SupportsReturning 表示 INSERT 是否可用 RETURNING 取回自增主键。
func (d Dialect) SupportsReturning() bool {
	return d.kind == KindPostgres
}

// Placeholder 返回指定序号的占位符。
func (d Dialect) Placeholder(index int) string {
	if d.kind == KindPostgres {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}

// UpsertClause 返回主键冲突时用新值覆盖 columns 的语句片段。
func (d Dialect) UpsertClause(key string, columns ...string) string {
	sets := make([]string, 0, len(columns))
	for _, column := range columns {
		if d.kind == KindMySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", column, column))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", column, column))
		}
	}
	if d.kind == KindMySQL {
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
}

// PlaceholderBuilder 用于生成顺序占位符，避免手动维护计数。
type PlaceholderBuilder struct {
	dialect Dialect
	index   int
}

// NewPlaceholderBuilder 创建一个计数器实例。
func NewPlaceholderBuilder(d Dialect) *PlaceholderBuilder {
	return &PlaceholderBuilder{dialect: d}
}

// Next 返回下一个可用占位符。
func (b *PlaceholderBuilder) Next() string {
	b.index++
	return b.dialect.Placeholder(b.index)
}
