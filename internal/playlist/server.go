package playlist

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// DB is the subset of pgxpool.Pool the playlist service uses.
// It can be mocked for testing.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Server struct {
	db  DB
	rdb *redis.Client

	// inviteBaseURL prefixes the shareable join link, e.g. "https://loopify.app".
	inviteBaseURL string
}

func NewServer(db DB, rdb *redis.Client, inviteBaseURL string) *Server {
	return &Server{
		db:            db,
		rdb:           rdb,
		inviteBaseURL: inviteBaseURL,
	}
}

// Router binds the playlist routes. requireAuth must reject requests without
// a verified identity; optionalAuth resolves one when present but lets
// anonymous requests through (public playlists are world-readable).
func (s *Server) Router(requireAuth, optionalAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", s.handleListPublicPlaylists)
		r.Get("/{id}", s.handleGetPlaylist)
		r.Get("/{id}/members", s.handleListMembers)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", s.handleCreatePlaylist)
		r.Get("/user", s.handleListMyPlaylists)
		r.Patch("/{id}", s.handlePatchPlaylist)
		r.Delete("/{id}", s.handleDeletePlaylist)

		r.Post("/{id}/tracks", s.handleAddTrack)
		r.Delete("/{id}/tracks/{trackId}", s.handleRemoveTrack)
		r.Post("/{id}/tracks/{trackId}/vote", s.handleToggleVote)

		r.Post("/{id}/invites", s.handleIssueInvite)
		r.Post("/join/{code}", s.handleRedeemInvite)
		r.Delete("/{id}/members/{userId}", s.handleRemoveMember)
	})

	return r
}
