package playlist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Thinnapop/Loopify-sub000/internal/httpx"
)

// handleCreatePlaylist creates a playlist and its sole owner member in one
// transaction: a playlist never exists without exactly one owner.
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := r.Header.Get("X-User-Id")
	if ownerID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Visibility  *string `json:"visibility"` // optional, default "private"
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Title = strings.TrimSpace(body.Title)
	body.Description = strings.TrimSpace(body.Description)

	if body.Title == "" || len(body.Title) > 200 {
		httpx.WriteError(w, http.StatusBadRequest, "title must be between 1 and 200 characters")
		return
	}
	if len(body.Description) > 1000 {
		httpx.WriteError(w, http.StatusBadRequest, "description is too long")
		return
	}

	visibility := VisibilityPrivate
	if body.Visibility != nil {
		v := strings.ToLower(strings.TrimSpace(*body.Visibility))
		if !validVisibility(v) {
			httpx.WriteError(w, http.StatusBadRequest, `invalid visibility (must be "private", "shared" or "public")`)
			return
		}
		visibility = v
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("loopify: create playlist begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	var pl Playlist
	err = tx.QueryRow(ctx, `
		INSERT INTO playlists (owner_id, title, description, visibility)
		VALUES ($1,$2,$3,$4)
		RETURNING id, owner_id, title, description, visibility, created_at, updated_at
	`, ownerID, body.Title, body.Description, visibility).Scan(
		&pl.ID,
		&pl.OwnerID,
		&pl.Title,
		&pl.Description,
		&pl.Visibility,
		&pl.CreatedAt,
		&pl.UpdatedAt,
	)
	if err != nil {
		log.Printf("loopify: create playlist insert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO playlist_members (playlist_id, user_id, role)
		VALUES ($1, $2, $3)
	`, pl.ID, ownerID, string(RoleOwner)); err != nil {
		log.Printf("loopify: create playlist owner member: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: create playlist commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "playlist.created", map[string]any{"playlist": pl})

	httpx.WriteJSON(w, http.StatusCreated, pl)
}

func (s *Server) handleListPublicPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, title, description, visibility, created_at, updated_at
		FROM playlists
		WHERE visibility = 'public'
		ORDER BY created_at DESC
		LIMIT 200
	`)
	if err != nil {
		log.Printf("loopify: list public playlists: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	playlists := []Playlist{}
	for rows.Next() {
		var pl Playlist
		if err := rows.Scan(
			&pl.ID,
			&pl.OwnerID,
			&pl.Title,
			&pl.Description,
			&pl.Visibility,
			&pl.CreatedAt,
			&pl.UpdatedAt,
		); err != nil {
			log.Printf("loopify: list public playlists scan: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		log.Printf("loopify: list public playlists rows: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, playlists)
}

// handleListMyPlaylists returns every playlist the caller is a member of,
// with the caller's role attached.
func (s *Server) handleListMyPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.owner_id, p.title, p.description, p.visibility, p.created_at, p.updated_at, pm.role
		FROM playlists p
		JOIN playlist_members pm ON pm.playlist_id = p.id
		WHERE pm.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		log.Printf("loopify: list my playlists: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	type playlistWithRole struct {
		Playlist
		Role Role `json:"role"`
	}

	playlists := []playlistWithRole{}
	for rows.Next() {
		var pl playlistWithRole
		var rawRole string
		if err := rows.Scan(
			&pl.ID,
			&pl.OwnerID,
			&pl.Title,
			&pl.Description,
			&pl.Visibility,
			&pl.CreatedAt,
			&pl.UpdatedAt,
			&rawRole,
		); err != nil {
			log.Printf("loopify: list my playlists scan: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		pl.Role, _ = ParseRole(rawRole)
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		log.Printf("loopify: list my playlists rows: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, playlists)
}

// handleGetPlaylist returns metadata, the ordered track list and the
// caller's role. Non-members see only public playlists; a private playlist
// answers 404 so its existence does not leak.
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	var pl Playlist
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, title, description, visibility, created_at, updated_at
		FROM playlists
		WHERE id = $1
	`, playlistID).Scan(
		&pl.ID,
		&pl.OwnerID,
		&pl.Title,
		&pl.Description,
		&pl.Visibility,
		&pl.CreatedAt,
		&pl.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("loopify: get playlist: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	role, isMember, err := memberRole(ctx, s.db, playlistID, userID)
	if err != nil {
		log.Printf("loopify: get playlist member check: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !isMember && pl.Visibility != VisibilityPublic {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}

	tracks, err := s.listTracks(ctx, playlistID, userID)
	if err != nil {
		log.Printf("loopify: get playlist tracks: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	resp := map[string]any{
		"playlist": pl,
		"tracks":   tracks,
	}
	if isMember {
		resp["role"] = role
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// handlePatchPlaylist updates title/description/visibility. Editors and the
// owner may edit; the role is re-read inside the update transaction so a
// concurrent removal or downgrade cannot apply a stale permission.
func (s *Server) handlePatchPlaylist(w http.ResponseWriter, r *http.Request) {
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
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Visibility  *string `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("loopify: patch playlist begin tx: %v", err)
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
		log.Printf("loopify: patch playlist access: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		httpx.WriteError(w, http.StatusForbidden, "editor role required")
		return
	}

	var existing Playlist
	err = tx.QueryRow(ctx, `
		SELECT id, owner_id, title, description, visibility, created_at, updated_at
		FROM playlists
		WHERE id = $1
		FOR UPDATE
	`, playlistID).Scan(
		&existing.ID,
		&existing.OwnerID,
		&existing.Title,
		&existing.Description,
		&existing.Visibility,
		&existing.CreatedAt,
		&existing.UpdatedAt,
	)
	if err != nil {
		log.Printf("loopify: patch playlist fetch: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" || len(title) > 200 {
			httpx.WriteError(w, http.StatusBadRequest, "title must be between 1 and 200 characters")
			return
		}
		existing.Title = title
	}
	if body.Description != nil {
		desc := strings.TrimSpace(*body.Description)
		if len(desc) > 1000 {
			httpx.WriteError(w, http.StatusBadRequest, "description is too long")
			return
		}
		existing.Description = desc
	}
	if body.Visibility != nil {
		v := strings.ToLower(strings.TrimSpace(*body.Visibility))
		if !validVisibility(v) {
			httpx.WriteError(w, http.StatusBadRequest, `invalid visibility (must be "private", "shared" or "public")`)
			return
		}
		existing.Visibility = v
	}

	err = tx.QueryRow(ctx, `
		UPDATE playlists
		SET title = $2,
			description = $3,
			visibility = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, existing.ID, existing.Title, existing.Description, existing.Visibility).Scan(&existing.UpdatedAt)
	if err != nil {
		log.Printf("loopify: patch playlist update: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: patch playlist commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "playlist.updated", map[string]any{"playlist": existing})

	httpx.WriteJSON(w, http.StatusOK, existing)
}

// handleDeletePlaylist removes a playlist; members, tracks, votes and
// outstanding invites go with it (FK cascade). Owner only.
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
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

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("loopify: delete playlist begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	_, allowed, err := requireRole(ctx, tx, playlistID, userID, RoleOwner)
	if errors.Is(err, errPlaylistNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("loopify: delete playlist access: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		httpx.WriteError(w, http.StatusForbidden, "owner role required")
		return
	}

	if _, err := tx.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, playlistID); err != nil {
		log.Printf("loopify: delete playlist exec: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: delete playlist commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "playlist.deleted", map[string]any{"playlistId": playlistID})

	w.WriteHeader(http.StatusNoContent)
}
