package auth

import (
	"testing"
	"time"
)

func testServer(accessTTL, refreshTTL time.Duration) *Server {
	return NewServer(&MockDB{}, []byte("test-secret"), accessTTL, refreshTTL)
}

func TestIssueAndParseTokens(t *testing.T) {
	srv := testServer(15*time.Minute, 720*time.Hour)
	user := User{ID: "user-1", Email: "ada@example.com"}

	tokens, err := srv.issueTokens(user)
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("empty token pair")
	}
	if tokens.AccessToken == tokens.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := srv.parseToken(tokens.AccessToken, "access")
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ada@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := srv.parseToken(tokens.RefreshToken, "refresh"); err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
}

func TestParseToken_TypeMismatch(t *testing.T) {
	srv := testServer(15*time.Minute, 720*time.Hour)
	tokens, err := srv.issueTokens(User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}

	// A refresh token must not pass where an access token is expected.
	if _, err := srv.parseToken(tokens.RefreshToken, "access"); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := srv.parseToken(tokens.AccessToken, "refresh"); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestParseToken_Expired(t *testing.T) {
	srv := testServer(-time.Minute, -time.Minute)
	tokens, err := srv.issueTokens(User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}

	if _, err := srv.parseToken(tokens.AccessToken, "access"); err == nil {
		t.Error("expired token accepted")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	srv := testServer(15*time.Minute, 720*time.Hour)
	tokens, err := srv.issueTokens(User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}

	other := NewServer(&MockDB{}, []byte("other-secret"), 15*time.Minute, 720*time.Hour)
	if _, err := other.parseToken(tokens.AccessToken, "access"); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}
