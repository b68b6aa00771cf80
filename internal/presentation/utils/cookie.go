package utils

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieMemberID = "member_id"

// GetMemberToken returns the caller's member token from its cookie, or
// empty when absent or unreadable.
func GetMemberToken(r *http.Request) string {
	cookie, err := r.Cookie(CookieMemberID)
	if err != nil {
		return ""
	}

	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}

	return string(decoded)
}

// SetupMemberToken reads the member token cookie, issuing a fresh one
// when the caller has none yet. The cookie is refreshed either way.
func SetupMemberToken(w http.ResponseWriter, r *http.Request) string {
	token := GetMemberToken(r)
	if token == "" {
		token = uuid.NewString()
	}

	setMemberIDCookie(token, w)
	return token
}

func setMemberIDCookie(memberToken string, w http.ResponseWriter) {
	http.SetCookie(w, MemberCookie(memberToken))
}

// MemberCookie builds the member token cookie without writing it. The
// websocket handler needs the raw cookie so it can ride along on the
// upgrade response headers.
func MemberCookie(memberToken string) *http.Cookie {
	cookieExpiry := time.Now().Add(24 * 30 * time.Hour)
	return &http.Cookie{
		Name:     CookieMemberID,
		Value:    base64.StdEncoding.EncodeToString([]byte(memberToken)),
		Path:     "/",
		HttpOnly: true,
		Expires:  cookieExpiry,
	}
}
