package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserIDFromToken_Deterministic(t *testing.T) {
	a := UserIDFromToken("token-1")
	b := UserIDFromToken("token-1")
	if a != b {
		t.Errorf("same token must map to the same user id: %q vs %q", a, b)
	}

	if UserIDFromToken("token-2") == a {
		t.Error("different tokens must map to different user ids")
	}

	if a == "token-1" {
		t.Error("user id must not expose the raw token")
	}
}

func TestMemberTokenCookieRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	token := SetupMemberToken(rec, req)
	if token == "" {
		t.Fatal("expected a token to be issued")
	}

	// Replay the cookie on a followup request.
	followup := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		followup.AddCookie(c)
	}

	if got := GetMemberToken(followup); got != token {
		t.Errorf("expected token %q back, got %q", token, got)
	}

	rec2 := httptest.NewRecorder()
	if got := SetupMemberToken(rec2, followup); got != token {
		t.Errorf("existing token must be kept, got %q", got)
	}
}

func TestGetMemberToken_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetMemberToken(req); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}
