package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/webwatch/platform/internal/config"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// IdentityService checks dashboard credentials against the users table
// and issues access tokens. Relay participants are deliberately not
// authenticated; only the dashboard login uses this.
type IdentityService struct {
	pool   *pgxpool.Pool
	token  *TokenService
	logger *slog.Logger
}

// SignIn verifies the credential pair and returns a signed access token.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *IdentityService) SignIn(ctx context.Context, username, password string) (string, error) {
	var userID int64
	var hash string
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&userID, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.token.CreateAccessToken(username, userID)
}

// ensureSchema creates the users table and seeds the default dashboard
// account when it does not exist yet.
func (s *IdentityService) ensureSchema(ctx context.Context, auth config.AuthConfig) error {
	if _, err := s.pool.Exec(ctx, usersSchema); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	if auth.Username == "" || auth.Password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(auth.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		 ON CONFLICT (username) DO NOTHING`,
		auth.Username, string(hash),
	)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.logger.Info("seeded dashboard user", slog.String("username", auth.Username))
	}
	return nil
}

type newIdentityServiceParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Pool      *pgxpool.Pool
	Token     *TokenService
	Config    *config.Config
	Logger    *slog.Logger
}

func NewIdentityService(params newIdentityServiceParams) *IdentityService {
	svc := &IdentityService{
		pool:   params.Pool,
		token:  params.Token,
		logger: params.Logger,
	}
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.ensureSchema(ctx, params.Config.Auth)
		},
	})
	return svc
}
