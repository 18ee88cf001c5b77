package user

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

const profileColumns = `id, email, display_name, country, sex, language, bio, created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.Country,
		&p.Sex,
		&p.Language,
		&p.Bio,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (s *Server) getProfile(ctx context.Context, userID string) (Profile, error) {
	return scanProfile(s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1`, userID))
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	prof, err := s.getProfile(r.Context(), userID)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("loopify: get profile: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, prof)
}

func (s *Server) handlePatchMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	prof, err := s.getProfile(r.Context(), userID)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("loopify: patch profile fetch: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if req.DisplayName != nil {
		prof.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Country != nil {
		prof.Country = strings.TrimSpace(*req.Country)
	}
	if req.Sex != nil {
		prof.Sex = strings.ToLower(strings.TrimSpace(*req.Sex))
	}
	if req.Language != nil {
		prof.Language = strings.TrimSpace(*req.Language)
	}
	if req.Bio != nil {
		prof.Bio = strings.TrimSpace(*req.Bio)
	}

	err = s.db.QueryRow(r.Context(), `
		UPDATE users
		SET display_name = $2,
			country = $3,
			sex = $4,
			language = $5,
			bio = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, userID, prof.DisplayName, prof.Country, prof.Sex, prof.Language, prof.Bio).Scan(&prof.UpdatedAt)
	if err != nil {
		log.Printf("loopify: patch profile save: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, prof)
}

func (s *Server) handleGetPublicProfile(w http.ResponseWriter, r *http.Request) {
	targetID := strings.TrimSpace(chi.URLParam(r, "id"))
	if targetID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var pub PublicProfile
	err := s.db.QueryRow(r.Context(), `
		SELECT id, display_name, country, bio
		FROM users
		WHERE id = $1
	`, targetID).Scan(&pub.ID, &pub.DisplayName, &pub.Country, &pub.Bio)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("loopify: public profile: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pub)
}
