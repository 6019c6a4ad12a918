package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"pillar-backend/internal/domain"
)

// PostgresPivotStore stores one row per session in pivot_sessions.
// Expired rows are invisible to reads and removed by PurgeExpired.
type PostgresPivotStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgresPivotStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresPivotStore {
	return &PostgresPivotStore{pool: pool, ttl: ttl}
}

func (r *PostgresPivotStore) expiresAt() pgtype.Timestamptz {
	if r.ttl <= 0 {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Valid: true, Time: time.Now().UTC().Add(r.ttl)}
}

func (r *PostgresPivotStore) Create(ctx context.Context, cfg domain.PivotConfig) error {
	broken, err := json.Marshal(cfg.Broken)
	if err != nil {
		return fmt.Errorf("encode broken levels: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		insert into pivot_sessions(
			session_id, r3, r2, r1, pivot, s1, s2, s3,
			price, broken, initialized, updated_at, expires_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		on conflict (session_id) do nothing
	`,
		cfg.SessionID,
		cfg.Levels.R3, cfg.Levels.R2, cfg.Levels.R1, cfg.Levels.Pivot,
		cfg.Levels.S1, cfg.Levels.S2, cfg.Levels.S3,
		cfg.Price,
		string(broken),
		cfg.Initialized,
		cfg.UpdatedAt,
		r.expiresAt(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionExists
	}
	return nil
}

const selectLiveSession = `
	select session_id, r3, r2, r1, pivot, s1, s2, s3,
		price, broken, initialized, updated_at
	from pivot_sessions
	where session_id = $1 and (expires_at is null or expires_at > now())
`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *PostgresPivotStore) Get(ctx context.Context, sessionID string) (domain.PivotConfig, error) {
	cfg, err := scanPivotConfig(r.pool.QueryRow(ctx, selectLiveSession, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PivotConfig{}, domain.ErrSessionNotFound
	}
	return cfg, err
}

func (r *PostgresPivotStore) Save(ctx context.Context, cfg domain.PivotConfig) error {
	return r.save(ctx, r.pool, cfg)
}

// Update locks the row for the duration of fn.
func (r *PostgresPivotStore) Update(ctx context.Context, sessionID string, fn func(*domain.PivotConfig) error) (domain.PivotConfig, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.PivotConfig{}, err
	}
	defer tx.Rollback(ctx)

	cfg, err := scanPivotConfig(tx.QueryRow(ctx, selectLiveSession+" for update", sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PivotConfig{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.PivotConfig{}, err
	}
	if err := fn(&cfg); err != nil {
		return domain.PivotConfig{}, err
	}
	cfg.SessionID = sessionID

	if err := r.save(ctx, tx, cfg); err != nil {
		return domain.PivotConfig{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.PivotConfig{}, fmt.Errorf("commit session update: %w", err)
	}
	return cfg, nil
}

func (r *PostgresPivotStore) save(ctx context.Context, q execer, cfg domain.PivotConfig) error {
	broken, err := json.Marshal(cfg.Broken)
	if err != nil {
		return fmt.Errorf("encode broken levels: %w", err)
	}

	tag, err := q.Exec(ctx, `
		update pivot_sessions set
			r3 = $2, r2 = $3, r1 = $4, pivot = $5, s1 = $6, s2 = $7, s3 = $8,
			price = $9, broken = $10, initialized = $11, updated_at = $12, expires_at = $13
		where session_id = $1 and (expires_at is null or expires_at > now())
	`,
		cfg.SessionID,
		cfg.Levels.R3, cfg.Levels.R2, cfg.Levels.R1, cfg.Levels.Pivot,
		cfg.Levels.S1, cfg.Levels.S2, cfg.Levels.S3,
		cfg.Price,
		string(broken),
		cfg.Initialized,
		cfg.UpdatedAt,
		r.expiresAt(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *PostgresPivotStore) Delete(ctx context.Context, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `delete from pivot_sessions where session_id = $1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// PurgeExpired deletes sessions past their expiry and returns their IDs.
func (r *PostgresPivotStore) PurgeExpired(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		delete from pivot_sessions
		where expires_at is not null and expires_at <= now()
		returning session_id
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPivotConfig(s scanner) (domain.PivotConfig, error) {
	var cfg domain.PivotConfig
	var broken []byte
	var updatedAt pgtype.Timestamptz

	if err := s.Scan(
		&cfg.SessionID,
		&cfg.Levels.R3,
		&cfg.Levels.R2,
		&cfg.Levels.R1,
		&cfg.Levels.Pivot,
		&cfg.Levels.S1,
		&cfg.Levels.S2,
		&cfg.Levels.S3,
		&cfg.Price,
		&broken,
		&cfg.Initialized,
		&updatedAt,
	); err != nil {
		return domain.PivotConfig{}, err
	}

	cfg.Broken = []domain.BrokenLevel{}
	if len(broken) > 0 {
		if err := json.Unmarshal(broken, &cfg.Broken); err != nil {
			return domain.PivotConfig{}, fmt.Errorf("decode broken levels: %w", err)
		}
	}
	if updatedAt.Valid {
		cfg.UpdatedAt = updatedAt.Time.UTC()
	}
	return cfg, nil
}
