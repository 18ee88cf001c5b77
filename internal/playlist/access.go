package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// querier is satisfied by both DB and pgx.Tx, so access checks can run
// against the same snapshot as the mutation they guard.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// errPlaylistNotFound is the single sentinel for "absent or hidden": private
// playlists look absent to non-members so their existence never leaks.
var errPlaylistNotFound = errors.New("playlist not found")

type playlistMeta struct {
	OwnerID    string
	Visibility string
}

func getPlaylistMeta(ctx context.Context, q querier, playlistID string) (playlistMeta, error) {
	var meta playlistMeta
	err := q.QueryRow(ctx, `
		SELECT owner_id, visibility
		FROM playlists
		WHERE id = $1
	`, playlistID).Scan(&meta.OwnerID, &meta.Visibility)
	if errors.Is(err, pgx.ErrNoRows) {
		return playlistMeta{}, errPlaylistNotFound
	}
	return meta, err
}

// memberRole returns the caller's role for the playlist, or ok=false when no
// member row exists. Pass a pgx.Tx to evaluate the role on the transaction's
// snapshot; a concurrent downgrade then cannot slip past the check.
func memberRole(ctx context.Context, q querier, playlistID, userID string) (Role, bool, error) {
	if userID == "" {
		return "", false, nil
	}
	var raw string
	err := q.QueryRow(ctx, `
		SELECT role
		FROM playlist_members
		WHERE playlist_id = $1 AND user_id = $2
	`, playlistID, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role, err := ParseRole(raw)
	if err != nil {
		// A row with a junk role is treated as no membership: fail closed.
		log.Printf("loopify: playlist %s member %s has %v", playlistID, userID, err)
		return "", false, nil
	}
	return role, true, nil
}

// requireRole resolves the caller's standing for a guarded operation.
// It returns errPlaylistNotFound when the playlist is absent, or when the
// caller is not a member of a non-public playlist. An insufficient role on a
// visible playlist is reported as ok=false with the playlist's metadata.
func requireRole(ctx context.Context, q querier, playlistID, userID string, min Role) (Role, bool, error) {
	meta, err := getPlaylistMeta(ctx, q, playlistID)
	if err != nil {
		return "", false, err
	}

	role, isMember, err := memberRole(ctx, q, playlistID, userID)
	if err != nil {
		return "", false, err
	}
	if !isMember {
		if meta.Visibility != VisibilityPublic {
			return "", false, errPlaylistNotFound
		}
		return "", false, nil
	}
	return role, role.AtLeast(min), nil
}

func (s *Server) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}
	// The event id lets subscribers dedupe across redis reconnects.
	data, err := json.Marshal(map[string]any{
		"id":      uuid.NewString(),
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("loopify: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("loopify: publish event: %v", err)
	}
}
