// internal/repository/warmup_repository.go
package repository

import (
	"context"
	"database/sql"

	"github.com/sendramp/sendramp-backend/internal/model"
)

type WarmupRepositoryInterface interface {
	Get(ctx context.Context) (*model.WarmupConfig, error)
	Update(ctx context.Context, cfg *model.WarmupConfig) error
	IncrementSentToday(ctx context.Context, n int) error
	InsertLog(ctx context.Context, entry *model.WarmupLog) error
	Logs(ctx context.Context, limit int) ([]model.WarmupLog, error)
}

type WarmupRepository struct {
	DB *sql.DB
}

// Get loads the singleton warmup row, creating it on first access. Before
// reading it applies the local-day rollover: sent_today resets once
// last_sent_at falls behind the current day, so callers always see a
// counter that belongs to today.
func (r *WarmupRepository) Get(ctx context.Context) (*model.WarmupConfig, error) {
	_, err := r.DB.ExecContext(ctx, `
        UPDATE warmup_config
        SET sent_today = 0
        WHERE id = 1 AND sent_today > 0
          AND last_sent_at IS NOT NULL
          AND last_sent_at < date_trunc('day', now())
    `)
	if err != nil {
		return nil, err
	}

	cfg, err := r.fetch(ctx)
	if err == sql.ErrNoRows {
		if _, err := r.DB.ExecContext(ctx, `
            INSERT INTO warmup_config (id, status, current_day, sent_today)
            VALUES (1, $1, 0, 0)
            ON CONFLICT (id) DO NOTHING
        `, model.WarmupStatusNotStarted); err != nil {
			return nil, err
		}
		return r.fetch(ctx)
	}
	return cfg, err
}

func (r *WarmupRepository) fetch(ctx context.Context) (*model.WarmupConfig, error) {
	query := `
        SELECT id, status, current_day, sent_today, last_sent_at,
               started_at, paused_at, COALESCE(pause_reason, ''), updated_at
        FROM warmup_config WHERE id = 1
    `
	var cfg model.WarmupConfig
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&cfg.ID, &cfg.Status, &cfg.CurrentDay, &cfg.SentToday, &cfg.LastSentAt,
		&cfg.StartedAt, &cfg.PausedAt, &cfg.PauseReason, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *WarmupRepository) Update(ctx context.Context, cfg *model.WarmupConfig) error {
	query := `
        UPDATE warmup_config
        SET status=$1, current_day=$2, sent_today=$3, started_at=$4,
            paused_at=$5, pause_reason=$6, updated_at=NOW()
        WHERE id = 1
    `
	_, err := r.DB.ExecContext(ctx, query,
		cfg.Status, cfg.CurrentDay, cfg.SentToday, cfg.StartedAt,
		cfg.PausedAt, nullIfEmpty(cfg.PauseReason),
	)
	return err
}

// IncrementSentToday is the single shared counter mutation. It must stay an
// atomic in-database increment: concurrent dispatch invocations add to the
// same row and a read-modify-write here would lose sends.
func (r *WarmupRepository) IncrementSentToday(ctx context.Context, n int) error {
	query := `
        UPDATE warmup_config
        SET sent_today = sent_today + $1, last_sent_at = NOW(), updated_at = NOW()
        WHERE id = 1
    `
	_, err := r.DB.ExecContext(ctx, query, n)
	return err
}

func (r *WarmupRepository) InsertLog(ctx context.Context, entry *model.WarmupLog) error {
	query := `
        INSERT INTO warmup_logs (day, phase, daily_limit, actual_sent, open_rate, bounce_rate, spam_rate, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, created_at
    `
	return r.DB.QueryRowContext(ctx, query,
		entry.Day, entry.Phase, entry.DailyLimit, entry.ActualSent,
		entry.OpenRate, entry.BounceRate, entry.SpamRate,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *WarmupRepository) Logs(ctx context.Context, limit int) ([]model.WarmupLog, error) {
	query := `
        SELECT id, day, phase, daily_limit, actual_sent, open_rate, bounce_rate, spam_rate, created_at
        FROM warmup_logs
        ORDER BY id DESC
        LIMIT $1
    `
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.WarmupLog{}
	for rows.Next() {
		var l model.WarmupLog
		if err := rows.Scan(&l.ID, &l.Day, &l.Phase, &l.DailyLimit, &l.ActualSent,
			&l.OpenRate, &l.BounceRate, &l.SpamRate, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ WarmupRepositoryInterface = (*WarmupRepository)(nil)
