package sessions

import (
	"crypto/rand"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	apperrors "linkstash/internal/errors"
)

const (
	// CookieName is the session cookie set on successful sign-in
	CookieName = "linkstash_session"

	// cookieLifetime bounds how long a session cookie survives without a
	// fresh sign-in, independent of access token expiry
	cookieLifetime = 30 * 24 * time.Hour
)

// CookieCodec signs Session data into an HTTP cookie and reads it back.
// Tampered, malformed, or expired cookies read as "no session".
type CookieCodec struct {
	secret []byte
}

// NewCookieCodec creates a codec keyed with secret. An empty secret falls
// back to a random per-process key so the server keeps running; existing
// sessions will not survive a restart.
func NewCookieCodec(secret string) *CookieCodec {
	if secret == "" {
		log.Warn().Msg("COOKIE_SECRET not set, using ephemeral key; sessions reset on restart")
		b := make([]byte, 32)
		rand.Read(b)
		return &CookieCodec{secret: b}
	}
	return &CookieCodec{secret: []byte(secret)}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email        string `json:"email,omitempty"`
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt,omitempty"`
	TokenExpiry  int64  `json:"texp"`
}

// Write signs the session and sets it as the session cookie.
func (c *CookieCodec) Write(w http.ResponseWriter, r *http.Request, session *Session) error {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cookieLifetime)),
		},
		Email:        session.Email,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenExpiry:  session.TokenExpiry.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return apperrors.Wrapf(err, "[CookieCodec Write] signing session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cookieLifetime.Seconds()),
	})
	return nil
}

// Read decodes and verifies the session cookie. Returns ErrSessionNotFound
// when no cookie is present, ErrSessionInvalid when it fails verification.
func (c *CookieCodec) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.ErrSessionNotFound
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperrors.ErrSessionInvalid
	}

	session := &Session{
		UserID:       claims.Subject,
		Email:        claims.Email,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
		TokenExpiry:  time.Unix(claims.TokenExpiry, 0),
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	return session, nil
}

// Clear deletes the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
