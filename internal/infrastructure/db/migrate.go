package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the session table. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists pivot_sessions (
			session_id text primary key,
			r3 double precision not null,
			r2 double precision not null,
			r1 double precision not null,
			pivot double precision not null,
			s1 double precision not null,
			s2 double precision not null,
			s3 double precision not null,
			price double precision not null,
			broken jsonb not null default '[]'::jsonb,
			initialized boolean not null default false,
			updated_at timestamptz not null default now(),
			expires_at timestamptz null
		);`,
		`create index if not exists pivot_sessions_expires_at_idx on pivot_sessions(expires_at);`,
	}

	for i, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
