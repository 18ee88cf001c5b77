package playlist

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlists (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          owner_id    TEXT NOT NULL,
          title       TEXT NOT NULL,
          description TEXT NOT NULL DEFAULT '',
          visibility  TEXT NOT NULL DEFAULT 'private',
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
          updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `)
	if err != nil {
		log.Printf("loopify: migrate playlists: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_members (
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          user_id     TEXT NOT NULL,
          role        TEXT NOT NULL DEFAULT 'viewer',
          joined_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (playlist_id, user_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_tracks (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          playlist_id   uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          track_id      TEXT NOT NULL,
          title         TEXT NOT NULL,
          artist        TEXT NOT NULL DEFAULT '',
          album         TEXT NOT NULL DEFAULT '',
          duration_secs INT NOT NULL DEFAULT 0,
          cover_url     TEXT NOT NULL DEFAULT '',
          added_by      TEXT NOT NULL,
          added_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (playlist_id, track_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS track_votes (
          playlist_track_id uuid NOT NULL REFERENCES playlist_tracks(id) ON DELETE CASCADE,
          user_id           TEXT NOT NULL,
          created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (playlist_track_id, user_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS invites (
          code        TEXT PRIMARY KEY,
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          role        TEXT NOT NULL DEFAULT 'viewer',
          created_by  TEXT NOT NULL,
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	return nil
}
