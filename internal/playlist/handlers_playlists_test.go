package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func newTestRouter(srv *Server) chi.Router {
	r := chi.NewRouter()
	r.Post("/playlists", srv.handleCreatePlaylist)
	r.Get("/playlists", srv.handleListPublicPlaylists)
	r.Get("/playlists/{id}", srv.handleGetPlaylist)
	r.Patch("/playlists/{id}", srv.handlePatchPlaylist)
	r.Delete("/playlists/{id}", srv.handleDeletePlaylist)
	r.Post("/playlists/{id}/tracks", srv.handleAddTrack)
	r.Delete("/playlists/{id}/tracks/{trackId}", srv.handleRemoveTrack)
	r.Post("/playlists/{id}/tracks/{trackId}/vote", srv.handleToggleVote)
	r.Post("/playlists/{id}/invites", srv.handleIssueInvite)
	r.Post("/playlists/join/{code}", srv.handleRedeemInvite)
	r.Get("/playlists/{id}/members", srv.handleListMembers)
	r.Delete("/playlists/{id}/members/{userId}", srv.handleRemoveMember)
	return r
}

// metaRow mocks the owner_id/visibility lookup.
func metaRow(ownerID, visibility string) *MockRow {
	return &MockRow{ScanFunc: func(dest ...any) error {
		*dest[0].(*string) = ownerID
		*dest[1].(*string) = visibility
		return nil
	}}
}

// roleRow mocks the caller's playlist_members row.
func roleRow(role Role) *MockRow {
	return &MockRow{ScanFunc: func(dest ...any) error {
		*dest[0].(*string) = string(role)
		return nil
	}}
}

func noRow() *MockRow {
	return &MockRow{ScanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func TestHandleCreatePlaylist_Success(t *testing.T) {
	now := time.Now()
	memberInserted := false

	mockDB := &MockDB{
		BeginTxFunc: func(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
			return &MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					if !strings.Contains(sql, "INSERT INTO playlists") {
						t.Fatalf("unexpected tx query: %s", sql)
					}
					return &MockRow{ScanFunc: func(dest ...any) error {
						*dest[0].(*string) = "pl-1"
						*dest[1].(*string) = "user-1"
						*dest[2].(*string) = "Road Trip"
						*dest[3].(*string) = ""
						*dest[4].(*string) = VisibilityPrivate
						*dest[5].(*time.Time) = now
						*dest[6].(*time.Time) = now
						return nil
					}}
				},
				ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
					if strings.Contains(sql, "INSERT INTO playlist_members") {
						memberInserted = true
						if args[2] != string(RoleOwner) {
							t.Errorf("creator role = %v; want owner", args[2])
						}
					}
					return pgconn.CommandTag{}, nil
				},
			}, nil
		},
	}

	srv := NewServer(mockDB, nil, "")
	router := newTestRouter(srv)

	body, _ := json.Marshal(map[string]any{"title": "Road Trip"})
	req := httptest.NewRequest("POST", "/playlists", bytes.NewReader(body))
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !memberInserted {
		t.Error("owner member row was not inserted")
	}

	var pl Playlist
	if err := json.Unmarshal(w.Body.Bytes(), &pl); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pl.Visibility != VisibilityPrivate {
		t.Errorf("default visibility = %q; want private", pl.Visibility)
	}
}

func TestHandleCreatePlaylist_Invalid(t *testing.T) {
	srv := NewServer(&MockDB{}, nil, "")
	router := newTestRouter(srv)

	tests := []struct {
		name     string
		userID   string
		body     string
		wantCode int
	}{
		{"Missing User", "", `{"title":"x"}`, http.StatusUnauthorized},
		{"Empty Title", "user-1", `{"title":"  "}`, http.StatusBadRequest},
		{"Long Title", "user-1", `{"title":"` + strings.Repeat("a", 201) + `"}`, http.StatusBadRequest},
		{"Bad Visibility", "user-1", `{"title":"x","visibility":"secret"}`, http.StatusBadRequest},
		{"Bad JSON", "user-1", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/playlists", strings.NewReader(tt.body))
			if tt.userID != "" {
				req.Header.Set("X-User-Id", tt.userID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleGetPlaylist_PrivateHiddenFromNonMembers(t *testing.T) {
	now := time.Now()
	mockDB := &MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if strings.Contains(sql, "FROM playlists") {
				return &MockRow{ScanFunc: func(dest ...any) error {
					*dest[0].(*string) = "pl-1"
					*dest[1].(*string) = "owner-1"
					*dest[2].(*string) = "Secret Mix"
					*dest[3].(*string) = ""
					*dest[4].(*string) = VisibilityPrivate
					*dest[5].(*time.Time) = now
					*dest[6].(*time.Time) = now
					return nil
				}}
			}
			// member lookup
			return noRow()
		},
	}

	srv := NewServer(mockDB, nil, "")
	router := newTestRouter(srv)

	req := httptest.NewRequest("GET", "/playlists/pl-1", nil)
	req.Header.Set("X-User-Id", "stranger")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// 404, not 403: private playlists must not leak their existence.
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleGetPlaylist_PublicVisibleToAnonymous(t *testing.T) {
	now := time.Now()
	mockDB := &MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &MockRow{ScanFunc: func(dest ...any) error {
				*dest[0].(*string) = "pl-1"
				*dest[1].(*string) = "owner-1"
				*dest[2].(*string) = "Summer Hits"
				*dest[3].(*string) = ""
				*dest[4].(*string) = VisibilityPublic
				*dest[5].(*time.Time) = now
				*dest[6].(*time.Time) = now
				return nil
			}}
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return NewMockRows(nil), nil
		},
	}

	srv := NewServer(mockDB, nil, "")
	router := newTestRouter(srv)

	req := httptest.NewRequest("GET", "/playlists/pl-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := resp["role"]; ok {
		t.Error("anonymous response should not carry a role")
	}
}

func TestHandlePatchPlaylist_ViewerForbidden(t *testing.T) {
	mockDB := &MockDB{
		BeginTxFunc: func(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
			return &MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					if strings.Contains(sql, "FROM playlists") {
						return metaRow("owner-1", VisibilityShared)
					}
					return roleRow(RoleViewer)
				},
			}, nil
		},
	}

	srv := NewServer(mockDB, nil, "")
	router := newTestRouter(srv)

	req := httptest.NewRequest("PATCH", "/playlists/pl-1", strings.NewReader(`{"title":"New"}`))
	req.Header.Set("X-User-Id", "viewer-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleDeletePlaylist_EditorForbidden(t *testing.T) {
	mockDB := &MockDB{
		BeginTxFunc: func(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
			return &MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					if strings.Contains(sql, "FROM playlists") {
						return metaRow("owner-1", VisibilityPrivate)
					}
					return roleRow(RoleEditor)
				},
			}, nil
		},
	}

	srv := NewServer(mockDB, nil, "")
	router := newTestRouter(srv)

	req := httptest.NewRequest("DELETE", "/playlists/pl-1", nil)
	req.Header.Set("X-User-Id", "editor-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleDeletePlaylist_NotFound(t *testing.T) {
	mockDB := &MockDB{
		BeginTxFunc: func(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
			return &MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					return noRow()
				},
			}, nil
		},
	}

	srv := NewServer(mockDB, nil, "")
	router := newTestRouter(srv)

	req := httptest.NewRequest("DELETE", "/playlists/missing", nil)
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
