package playlist

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Thinnapop/Loopify-sub000/internal/httpx"
)

// handleToggleVote flips the caller's vote on a track. Any member may vote,
// viewers included. The whole toggle runs in one transaction with the track
// row locked, so two rapid clicks or two concurrent voters cannot lose an
// update; the returned count is COUNT(*) over the vote rows.
func (s *Server) handleToggleVote(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("loopify: toggle vote begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	_, allowed, err := requireRole(ctx, tx, playlistID, userID, RoleViewer)
	if errors.Is(err, errPlaylistNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("loopify: toggle vote access: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		httpx.WriteError(w, http.StatusForbidden, "membership required to vote")
		return
	}

	var playlistTrackID string
	err = tx.QueryRow(ctx, `
		SELECT id
		FROM playlist_tracks
		WHERE playlist_id = $1 AND track_id = $2
		FOR UPDATE
	`, playlistID, trackID).Scan(&playlistTrackID)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "track not found")
		return
	}
	if err != nil {
		log.Printf("loopify: toggle vote fetch track: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM track_votes
		WHERE playlist_track_id = $1 AND user_id = $2
	`, playlistTrackID, userID)
	if err != nil {
		log.Printf("loopify: toggle vote delete: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	voted := tag.RowsAffected() == 0
	if voted {
		if _, err := tx.Exec(ctx, `
			INSERT INTO track_votes (playlist_track_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (playlist_track_id, user_id) DO NOTHING
		`, playlistTrackID, userID); err != nil {
			log.Printf("loopify: toggle vote insert: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	var votes int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM track_votes WHERE playlist_track_id = $1
	`, playlistTrackID).Scan(&votes); err != nil {
		log.Printf("loopify: toggle vote count: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: toggle vote commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "track.voted", map[string]any{
		"playlistId": playlistID,
		"trackId":    trackID,
		"userId":     userID,
		"voted":      voted,
		"votes":      votes,
	})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"voted": voted,
		"votes": votes,
	})
}
