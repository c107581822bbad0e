package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/resource"
)

// Store keys.
const (
	KeyToken = "auth_token"
	KeyUser  = "user_data"
	KeyRole  = "user_role"
)

// Keys lists every key a session writes.
var Keys = []string{KeyToken, KeyUser, KeyRole}

// NilIdentifier is stamped as creator when the current user id is not a UUID.
const NilIdentifier = "00000000-0000-0000-0000-000000000000"

// UserProfile is the logged-in user, serialized with the backend field names.
type UserProfile struct {
	ID          resource.ID `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"nombre"`
	Username    string      `json:"nombre_usuario,omitempty"`
	LastName    string      `json:"apellido,omitempty"`
	Active      bool        `json:"activo"`
	IsAdmin     bool        `json:"es_admin"`
	Role        auth.Role   `json:"rol"`
}

// Session is what a successful login produces.
type Session struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	User      UserProfile `json:"user"`
}

// Credentials for Login. Email is sent as the backend username.
type Credentials struct {
	Email    string
	Password string
}

// AuthError is returned when the backend rejects a login.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// TokenInfo is the unverified content of a JWT access token, for display only.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry before now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// ParseTokenInfo decodes token claims without verifying the signature. The
// console never trusts these values; it only shows them to the operator.
func ParseTokenInfo(token string) (*TokenInfo, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	info := &TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
