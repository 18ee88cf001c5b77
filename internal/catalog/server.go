package catalog

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Thinnapop/Loopify-sub000/internal/httpx"
)

// Provider is the catalog search surface; *Client implements it.
type Provider interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)
	SearchArtists(ctx context.Context, query string, limit int) ([]Artist, error)
}

type Server struct {
	provider Provider
}

func NewServer(p Provider) *Server {
	return &Server{provider: p}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/tracks", s.handleSearchTracks)
	r.Get("/artists", s.handleSearchArtists)
	return r
}

func (s *Server) handleSearchTracks(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httpx.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := s.provider.SearchTracks(r.Context(), query, limit)
	if err != nil {
		log.Printf("loopify: catalog track search: %v", err)
		httpx.WriteError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TrackSearchResponse{Items: items})
}

func (s *Server) handleSearchArtists(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httpx.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := s.provider.SearchArtists(r.Context(), query, limit)
	if err != nil {
		log.Printf("loopify: catalog artist search: %v", err)
		httpx.WriteError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ArtistSearchResponse{Items: items})
}
