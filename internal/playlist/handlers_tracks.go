package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Thinnapop/Loopify-sub000/internal/httpx"
)

// listTracks returns the playlist's tracks ordered for display: most votes
// first, earliest-added first among ties. The vote count is computed from
// the vote rows, there is no counter column to drift.
func (s *Server) listTracks(ctx context.Context, playlistID, viewerID string) ([]PlaylistTrack, error) {
	rows, err := s.db.Query(ctx, `
		SELECT pt.id, pt.playlist_id, pt.track_id, pt.title, pt.artist, pt.album,
		       pt.duration_secs, pt.cover_url, pt.added_by, pt.added_at,
		       COUNT(tv.user_id) AS votes,
		       bool_or(tv.user_id = $2) AS voted
		FROM playlist_tracks pt
		LEFT JOIN track_votes tv ON tv.playlist_track_id = pt.id
		WHERE pt.playlist_id = $1
		GROUP BY pt.id
		ORDER BY votes DESC, pt.added_at ASC
	`, playlistID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []PlaylistTrack{}
	for rows.Next() {
		var tr PlaylistTrack
		var voted *bool
		if err := rows.Scan(
			&tr.ID,
			&tr.PlaylistID,
			&tr.TrackID,
			&tr.Title,
			&tr.Artist,
			&tr.Album,
			&tr.DurationSecs,
			&tr.CoverURL,
			&tr.AddedBy,
			&tr.AddedAt,
			&tr.Votes,
			&voted,
		); err != nil {
			return nil, err
		}
		tr.Voted = voted != nil && *voted
		tracks = append(tracks, tr)
	}
	return tracks, rows.Err()
}

// handleAddTrack appends a catalog track. Editor role or better. Adding a
// track the playlist already holds is a conflict, never a duplicate row.
func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	var body struct {
		TrackID      string `json:"trackId"`
		Title        string `json:"title"`
		Artist       string `json:"artist"`
		Album        string `json:"album"`
		DurationSecs int    `json:"durationSecs"`
		CoverURL     string `json:"coverUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.TrackID = strings.TrimSpace(body.TrackID)
	body.Title = strings.TrimSpace(body.Title)
	body.Artist = strings.TrimSpace(body.Artist)
	body.Album = strings.TrimSpace(body.Album)
	body.CoverURL = strings.TrimSpace(body.CoverURL)

	if body.TrackID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "trackId is required")
		return
	}
	if body.Title == "" || len(body.Title) > 300 {
		httpx.WriteError(w, http.StatusBadRequest, "title must be between 1 and 300 characters")
		return
	}
	if len(body.Artist) > 200 {
		httpx.WriteError(w, http.StatusBadRequest, "artist is too long")
		return
	}
	if body.DurationSecs < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "durationSecs must be >= 0")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("loopify: add track begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	_, allowed, err := requireRole(ctx, tx, playlistID, userID, RoleEditor)
	if errors.Is(err, errPlaylistNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("loopify: add track access: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		httpx.WriteError(w, http.StatusForbidden, "editor role required")
		return
	}

	var tr PlaylistTrack
	err = tx.QueryRow(ctx, `
		INSERT INTO playlist_tracks (playlist_id, track_id, title, artist, album, duration_secs, cover_url, added_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (playlist_id, track_id) DO NOTHING
		RETURNING id, playlist_id, track_id, title, artist, album, duration_secs, cover_url, added_by, added_at
	`,
		playlistID,
		body.TrackID,
		body.Title,
		body.Artist,
		body.Album,
		body.DurationSecs,
		body.CoverURL,
		userID,
	).Scan(
		&tr.ID,
		&tr.PlaylistID,
		&tr.TrackID,
		&tr.Title,
		&tr.Artist,
		&tr.Album,
		&tr.DurationSecs,
		&tr.CoverURL,
		&tr.AddedBy,
		&tr.AddedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// ON CONFLICT DO NOTHING returns no row when the track is present.
		httpx.WriteError(w, http.StatusConflict, "track already in playlist")
		return
	}
	if err != nil {
		log.Printf("loopify: add track insert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: add track commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "track.added", map[string]any{
		"playlistId": playlistID,
		"track":      tr,
	})

	httpx.WriteJSON(w, http.StatusCreated, tr)
}

// handleRemoveTrack deletes a track from the playlist. Editor role or
// better. Removing an absent track succeeds; the operation is idempotent.
func (s *Server) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	playlistID := chi.URLParam(r, "id")
	trackID := chi.URLParam(r, "trackId")
	if playlistID == "" || trackID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing playlist or track id")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("loopify: remove track begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	_, allowed, err := requireRole(ctx, tx, playlistID, userID, RoleEditor)
	if errors.Is(err, errPlaylistNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("loopify: remove track access: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		httpx.WriteError(w, http.StatusForbidden, "editor role required")
		return
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM playlist_tracks
		WHERE playlist_id = $1 AND track_id = $2
	`, playlistID, trackID); err != nil {
		log.Printf("loopify: remove track delete: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: remove track commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "track.removed", map[string]any{
		"playlistId": playlistID,
		"trackId":    trackID,
	})

	w.WriteHeader(http.StatusNoContent)
}
