package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/webwatch/platform/internal/config"
)

const _ISSUER = "webwatch"

var _DEFAULT_CLAIMS = []string{"can:view"}

// TokenService signs and verifies dashboard access tokens. The signing
// key is generated at startup; tokens do not survive a restart, which is
// fine for a dashboard session that re-authenticates anyway.
type TokenService struct {
	signKey   jwk.Key
	verifyKey jwk.Key
	keyID     string
	ttl       time.Duration
}

func NewTokenService(cfg *config.Config) (*TokenService, error) {
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	signKey, err := jwk.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("wrap signing key: %w", err)
	}
	keyID := uuid.NewString()
	if err := signKey.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, err
	}
	verifyKey, err := signKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &TokenService{
		signKey:   signKey,
		verifyKey: verifyKey,
		keyID:     keyID,
		ttl:       cfg.Auth.TokenTTL,
	}, nil
}

func (s *TokenService) CreateAccessToken(username string, userID int64) (string, error) {
	expiresAt := time.Now().Add(s.ttl)

	b := jwt.NewBuilder().
		Issuer(_ISSUER).
		Audience(_DEFAULT_CLAIMS).
		Subject(username).
		Expiration(expiresAt)

	token, err := b.Build()
	if err != nil {
		return "", err
	}
	if err = token.Set("user:id", userID); err != nil {
		return "", fmt.Errorf("unable set `user:id` claim. Error: %s", err)
	}
	if err = token.Set("token:use", "access_token"); err != nil {
		return "", fmt.Errorf("unable set `token:use` claim. Error: %s", err)
	}

	headers := jws.NewHeaders()
	if err = headers.Set(jws.KeyIDKey, s.keyID); err != nil {
		return "", fmt.Errorf("unable set header `kid`. Error: %s", err)
	}

	byteToken, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, s.signKey, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", err
	}
	return string(byteToken), nil
}

// Verify parses and validates a token string, returning its claims.
func (s *TokenService) Verify(raw string) (jwt.Token, error) {
	return jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.RS256, s.verifyKey),
		jwt.WithIssuer(_ISSUER),
		jwt.WithValidate(true),
	)
}
