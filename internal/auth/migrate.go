package auth

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		log.Printf("loopify: migrate pgcrypto: %v", err)
	}

	_, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS users (
          id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          email        TEXT NOT NULL UNIQUE,
          password     TEXT NOT NULL,
          display_name TEXT NOT NULL DEFAULT '',
          country      TEXT NOT NULL DEFAULT '',
          sex          TEXT NOT NULL DEFAULT '',
          language     TEXT NOT NULL DEFAULT '',
          bio          TEXT NOT NULL DEFAULT '',
          created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
          updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `)
	if err != nil {
		log.Printf("loopify: migrate users: %v", err)
	}
	return err
}
