package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/meridianlabs/accounthub/internal/config"
)

var (
	ErrTokenExpired = errors.New("session token expired")
	ErrTokenInvalid = errors.New("invalid session token")
)

// defaultSessionDuration is used when the configured duration is missing.
const defaultSessionDuration = 720 * time.Hour

// Claims is the signed bundle asserting identity and role for the session
// horizon. The subject is the account id.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) AccountID() string {
	return c.Subject
}

// Identity is what the issuer needs from a verified account.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// Issuer mints and validates the HS256 session tokens. There is no
// revocation list; expiry is the only termination path.
type Issuer struct {
	config   *config.AuthConfig
	log      *zap.Logger
	duration time.Duration
}

func NewIssuer(cfg *config.AuthConfig, log *zap.Logger) *Issuer {
	duration := cfg.SessionDuration
	if duration <= 0 {
		duration = defaultSessionDuration
	}
	return &Issuer{config: cfg, log: log, duration: duration}
}

// Issue signs a token for the identity, valid for the configured session
// duration (30 days by default).
func (i *Issuer) Issue(identity Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(i.config.JWTSecret))
}

// Validate parses and verifies a token, distinguishing expiry from every
// other failure.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(i.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh re-issues a token with a full session horizon, carrying over the
// subject. A non-nil identity overrides the mutable claims; this is how
// display-name or role changes reach an existing session.
func (i *Issuer) Refresh(tokenString string, updated *Identity) (string, error) {
	claims, err := i.Validate(tokenString)
	if err != nil {
		return "", err
	}

	identity := Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}
	if updated != nil {
		if updated.Email != "" {
			identity.Email = updated.Email
		}
		if updated.Name != "" {
			identity.Name = updated.Name
		}
		if updated.Role != "" {
			identity.Role = updated.Role
		}
	}

	return i.Issue(identity)
}
