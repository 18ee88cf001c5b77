package auth

import (
	"net/http"
	"strings"

	"github.com/Thinnapop/Loopify-sub000/internal/httpx"
)

// StripTrustedHeaders drops identity headers arriving from the outside so
// clients cannot spoof X-User-Id. Install it before any auth middleware.
func StripTrustedHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del("X-User-Id")
		r.Header.Del("X-User-Email")
		next.ServeHTTP(w, r)
	})
}

// RequireAuth verifies the bearer access token and stamps the resolved
// identity onto X-User-Id / X-User-Email for downstream handlers.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, errMsg := s.claimsFromRequest(r)
		if claims == nil {
			httpx.WriteError(w, http.StatusUnauthorized, errMsg)
			return
		}
		r.Header.Set("X-User-Id", claims.UserID)
		r.Header.Set("X-User-Email", claims.Email)
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth resolves identity when a valid bearer token is present and
// lets the request through anonymously otherwise. Routes serving public
// playlists use this.
func (s *Server) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, _ := s.claimsFromRequest(r); claims != nil {
			r.Header.Set("X-User-Id", claims.UserID)
			r.Header.Set("X-User-Email", claims.Email)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) claimsFromRequest(r *http.Request) (*TokenClaims, string) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return nil, "missing Authorization header"
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, "invalid Authorization header"
	}
	claims, err := s.parseToken(parts[1], "access")
	if err != nil {
		return nil, "invalid token"
	}
	return claims, ""
}
