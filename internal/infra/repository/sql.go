package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/infra/database"
)

// NewSQLRepositories 构建基于 *sql.DB 的仓储集合。
func NewSQLRepositories(db *sql.DB, dialect database.Dialect) *domain.Repositories {
	return &domain.Repositories{
		ActivityLogs: &activityLogRepository{db: db, dialect: dialect},
		Settings:     &settingsRepository{db: db, dialect: dialect},
	}
}

// ---- 活动日志仓储 ----

type activityLogRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

type activityLogRow struct {
	id           int64
	userID       int64
	logType      string
	targetID     sql.NullInt64
	tokensUsed   int64
	latencyMs    int64
	status       string
	errorMessage sql.NullString
	createdAt    time.Time
}

type totalsRow struct {
	total      int64
	successful int64
	failed     int64
	tokens     int64
	avgLatency sql.NullFloat64
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.LogEntry) (int64, error) {
	ph := database.NewPlaceholderBuilder(r.dialect)
	query := fmt.Sprintf(`INSERT INTO activity_logs (user_id, type, target_id, tokens_used, latency_ms, status, error_message, created_at)
VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`, ph.Next(), ph.Next(), ph.Next(), ph.Next(), ph.Next(), ph.Next(), ph.Next(), ph.Next())

	targetID := sql.NullInt64{}
	if entry.TargetID != nil {
		targetID = sql.NullInt64{Int64: *entry.TargetID, Valid: true}
	}
	errorMessage := sql.NullString{}
	if entry.ErrorMessage != nil {
		errorMessage = sql.NullString{String: *entry.ErrorMessage, Valid: true}
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	args := []any{entry.UserID, string(entry.Type), targetID, entry.TokensUsed, entry.LatencyMs, string(entry.Status), errorMessage, createdAt}

	var id int64
	if r.dialect.SupportsReturning() {
		if err := r.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
	} else {
		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		if id, err = result.LastInsertId(); err != nil {
			return 0, err
		}
	}

	entry.ID = id
	entry.CreatedAt = createdAt
	return id, nil
}

func (r *activityLogRepository) Aggregate(ctx context.Context, filter domain.LogFilter) (*domain.LogTotals, error) {
	ph := database.NewPlaceholderBuilder(r.dialect)
	where, args := buildLogFilter(ph, filter)
	query := `SELECT COUNT(*),
        COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(tokens_used), 0),
        AVG(latency_ms)
      FROM activity_logs` + where

	var row totalsRow
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&row.total, &row.successful, &row.failed, &row.tokens, &row.avgLatency); err != nil {
		return nil, err
	}

	totals := &domain.LogTotals{
		TotalGenerations: row.total,
		Successful:       row.successful,
		Failed:           row.failed,
		TotalTokens:      row.tokens,
	}
	if row.avgLatency.Valid {
		totals.AvgLatencyMs = row.avgLatency.Float64
	}
	return totals, nil
}

func (r *activityLogRepository) AggregateByType(ctx context.Context, filter domain.LogFilter) ([]*domain.TypeUsage, error) {
	ph := database.NewPlaceholderBuilder(r.dialect)
	where, args := buildLogFilter(ph, filter)
	query := `SELECT type, COUNT(*) AS total, COALESCE(SUM(tokens_used), 0), AVG(latency_ms)
      FROM activity_logs` + where + `
      GROUP BY type
      ORDER BY total DESC, type ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []*domain.TypeUsage
	for rows.Next() {
		var (
			logType    string
			count      int64
			tokens     int64
			avgLatency sql.NullFloat64
		)
		if err := rows.Scan(&logType, &count, &tokens, &avgLatency); err != nil {
			return nil, err
		}
		item := &domain.TypeUsage{Type: domain.LogType(logType), Count: count, Tokens: tokens}
		if avgLatency.Valid {
			item.AvgLatencyMs = avgLatency.Float64
		}
		usage = append(usage, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *activityLogRepository) ListRecent(ctx context.Context, filter domain.LogFilter, limit int) ([]*domain.LogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	ph := database.NewPlaceholderBuilder(r.dialect)
	where, args := buildLogFilter(ph, filter)
	query := fmt.Sprintf(`SELECT id, user_id, type, target_id, tokens_used, latency_ms, status, error_message, created_at
FROM activity_logs%s ORDER BY created_at DESC, id DESC LIMIT %s`, where, ph.Next())
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LogEntry
	for rows.Next() {
		var row activityLogRow
		if err := rows.Scan(&row.id, &row.userID, &row.logType, &row.targetID, &row.tokensUsed, &row.latencyMs, &row.status, &row.errorMessage, &row.createdAt); err != nil {
			return nil, err
		}
		entry := &domain.LogEntry{
			ID:         row.id,
			UserID:     row.userID,
			Type:       domain.LogType(row.logType),
			TokensUsed: row.tokensUsed,
			LatencyMs:  row.latencyMs,
			Status:     domain.LogStatus(row.status),
			CreatedAt:  row.createdAt,
		}
		if row.targetID.Valid {
			entry.TargetID = &row.targetID.Int64
		}
		if row.errorMessage.Valid {
			entry.ErrorMessage = &row.errorMessage.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *activityLogRepository) SumTokens(ctx context.Context, filter domain.LogFilter) (int64, error) {
	ph := database.NewPlaceholderBuilder(r.dialect)
	where, args := buildLogFilter(ph, filter)
	query := `SELECT COALESCE(SUM(tokens_used), 0) FROM activity_logs` + where

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *activityLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ph := database.NewPlaceholderBuilder(r.dialect)
	query := fmt.Sprintf(`DELETE FROM activity_logs WHERE created_at < %s`, ph.Next())

	result, err := r.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// buildLogFilter 生成 WHERE 子句，UserID 为 0 时不限制用户。
func buildLogFilter(ph *database.PlaceholderBuilder, filter domain.LogFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != 0 {
		clauses = append(clauses, "user_id = "+ph.Next())
		args = append(args, filter.UserID)
	}
	if filter.From != nil {
		clauses = append(clauses, "created_at >= "+ph.Next())
		args = append(args, filter.From.UTC())
	}
	if filter.Until != nil {
		clauses = append(clauses, "created_at < "+ph.Next())
		args = append(args, filter.Until.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ---- 配置仓储 ----

type settingsRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func (r *settingsRepository) Get(ctx context.Context, key string) ([]byte, error) {
	ph := database.NewPlaceholderBuilder(r.dialect)
	query := fmt.Sprintf(`SELECT option_value FROM app_options WHERE option_key = %s`, ph.Next())

	var value string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

func (r *settingsRepository) Put(ctx context.Context, key string, value []byte) error {
	ph := database.NewPlaceholderBuilder(r.dialect)
	query := fmt.Sprintf(`INSERT INTO app_options (option_key, option_value, updated_at) VALUES (%s, %s, %s) %s`,
		ph.Next(), ph.Next(), ph.Next(), r.dialect.UpsertClause("option_key", "option_value", "updated_at"))

	_, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UTC())
	return err
}
