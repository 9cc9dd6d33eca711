package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the SimpleJWT payload issued by the booking backend.
type Claims struct {
	TokenType string `json:"token_type"`
	UserID    UserID `json:"user_id"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// UserID accepts both numeric and string user ids; SimpleJWT emits either
// depending on the user model's primary key.
type UserID string

func (u *UserID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	*u = UserID(string(b))
	return nil
}

func (u UserID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(u), 10, 64); err == nil {
		return []byte(u), nil
	}
	return []byte(strconv.Quote(string(u))), nil
}

var ErrMalformedToken = errors.New("malformed token")

// Inspect decodes a token's claims without verifying the signature. The
// client never holds the signing key; this is for display and logging only,
// never for authorization decisions.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// ExpiresIn reports how long the token remains valid according to its exp
// claim. ok is false when the token has no exp claim or cannot be decoded.
func ExpiresIn(token string, now time.Time) (time.Duration, bool) {
	claims, err := Inspect(token)
	if err != nil || claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Time.Sub(now), true
}

// NewToken signs a SimpleJWT-shaped token. Used by the fake backend in tests
// and by local tooling; production tokens are minted by the server.
func NewToken(userID int64, tokenType, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		UserID:    UserID(strconv.FormatInt(userID, 10)),
		JTI:       strconv.FormatInt(now.UnixNano(), 36),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse verifies a token signed with secret.
func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
