package sessions

import "time"

// Session is the renewable token pair representing an authenticated identity.
// It is persisted client-side as a signed cookie and mirrored back on every
// request; the server keeps no session table. A Session is invalid the moment
// the identity provider rejects its tokens.
type Session struct {
	UserID       string    // Provider subject, stable
	Email        string    // Display only
	AccessToken  string    // Provider access token
	RefreshToken string    // Provider refresh token, may be empty
	TokenExpiry  time.Time // When the access token expires
	CreatedAt    time.Time // When the session was established
}

// Stale reports whether the access token needs a refresh.
func (s *Session) Stale() bool {
	return time.Now().After(s.TokenExpiry)
}
