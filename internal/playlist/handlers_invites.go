package playlist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Thinnapop/Loopify-sub000/internal/httpx"
)

// handleIssueInvite mints a fresh invite code bound to (playlist, role).
// Owner or editor only; the caller's role is re-read on the insert
// transaction so a concurrent demotion cannot mint with stale standing.
// Invites never grant ownership, and issuing a new code leaves earlier
// codes redeemable.
func (s *Server) handleIssueInvite(w http.ResponseWriter, r *http.Request) {
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
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	grantedRole, err := ParseRole(body.Role)
	if err != nil || grantedRole == RoleOwner {
		httpx.WriteError(w, http.StatusBadRequest, `role must be "editor" or "viewer"`)
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("loopify: issue invite begin tx: %v", err)
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
		log.Printf("loopify: issue invite access: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		httpx.WriteError(w, http.StatusForbidden, "editor role required")
		return
	}

	inv := Invite{
		Code:       httpx.RandomToken(16),
		PlaylistID: playlistID,
		Role:       grantedRole,
		CreatedBy:  userID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO invites (code, playlist_id, role, created_by)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, inv.Code, inv.PlaylistID, string(inv.Role), inv.CreatedBy).Scan(&inv.CreatedAt)
	if err != nil {
		log.Printf("loopify: issue invite insert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: issue invite commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "invite.created", map[string]any{
		"playlistId": playlistID,
		"role":       inv.Role,
	})

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"code": inv.Code,
		"role": inv.Role,
		"url":  s.inviteBaseURL + "/join/" + inv.Code,
	})
}

// handleRedeemInvite turns a code into membership with the invite's role.
// The member insert is keyed on (playlist_id, user_id), so a retried
// redemption can never create a second row; an existing member gets 409.
func (s *Server) handleRedeemInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	code := chi.URLParam(r, "code")
	if code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing invite code")
		return
	}

	var playlistID, rawRole string
	err := s.db.QueryRow(ctx, `
		SELECT playlist_id, role
		FROM invites
		WHERE code = $1
	`, code).Scan(&playlistID, &rawRole)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid invite code")
		return
	}
	if err != nil {
		log.Printf("loopify: redeem invite fetch: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	grantedRole, err := ParseRole(rawRole)
	if err != nil || grantedRole == RoleOwner {
		log.Printf("loopify: invite %s carries bad role %q", code, rawRole)
		httpx.WriteError(w, http.StatusBadRequest, "invalid invite code")
		return
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO playlist_members (playlist_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (playlist_id, user_id) DO NOTHING
	`, playlistID, userID, string(grantedRole))
	if err != nil {
		// The playlist can vanish between the code lookup and the join;
		// the member FK then fires and the code is effectively dead.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			httpx.WriteError(w, http.StatusNotFound, "playlist not found")
			return
		}
		log.Printf("loopify: redeem invite insert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if tag.RowsAffected() == 0 {
		httpx.WriteError(w, http.StatusConflict, "already a member of this playlist")
		return
	}

	s.publishEvent(ctx, "member.joined", map[string]any{
		"playlistId": playlistID,
		"userId":     userID,
		"role":       grantedRole,
	})

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"playlistId": playlistID,
		"role":       grantedRole,
	})
}

// handleListMembers returns the membership roster. Members always see it;
// anyone sees it on a public playlist.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	meta, err := getPlaylistMeta(ctx, s.db, playlistID)
	if errors.Is(err, errPlaylistNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("loopify: list members fetch playlist: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	_, isMember, err := memberRole(ctx, s.db, playlistID, userID)
	if err != nil {
		log.Printf("loopify: list members member check: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !isMember && meta.Visibility != VisibilityPublic {
		httpx.WriteError(w, http.StatusNotFound, "playlist not found")
		return
	}

	rows, err := s.db.Query(ctx, `
		SELECT user_id, role, joined_at
		FROM playlist_members
		WHERE playlist_id = $1
		ORDER BY joined_at ASC
	`, playlistID)
	if err != nil {
		log.Printf("loopify: list members query: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		var rawRole string
		if err := rows.Scan(&m.UserID, &rawRole, &m.JoinedAt); err != nil {
			log.Printf("loopify: list members scan: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		m.Role, _ = ParseRole(rawRole)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		log.Printf("loopify: list members rows: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, members)
}

// handleRemoveMember evicts a member. Owner only, and the owner row itself
// is untouchable: there is no ownership transfer, so removing the owner
// would orphan the playlist.
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	playlistID := chi.URLParam(r, "id")
	targetUserID := chi.URLParam(r, "userId")
	if playlistID == "" || targetUserID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing playlist id or user id")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("loopify: remove member begin tx: %v", err)
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
		log.Printf("loopify: remove member access: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		httpx.WriteError(w, http.StatusForbidden, "owner role required")
		return
	}

	targetRole, targetIsMember, err := memberRole(ctx, tx, playlistID, targetUserID)
	if err != nil {
		log.Printf("loopify: remove member target check: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if targetIsMember && targetRole == RoleOwner {
		httpx.WriteError(w, http.StatusForbidden, "cannot remove the playlist owner")
		return
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM playlist_members
		WHERE playlist_id = $1 AND user_id = $2
	`, playlistID, targetUserID); err != nil {
		log.Printf("loopify: remove member delete: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("loopify: remove member commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "member.removed", map[string]any{
		"playlistId": playlistID,
		"userId":     targetUserID,
	})

	w.WriteHeader(http.StatusNoContent)
}
