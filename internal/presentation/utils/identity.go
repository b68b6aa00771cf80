package utils

import "github.com/google/uuid"

// UserIDFromToken derives a stable, non-reversible user id from the
// member token, so the same browser maps to the same user across the
// REST layer and every websocket connection it opens.
func UserIDFromToken(token string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String()
}
