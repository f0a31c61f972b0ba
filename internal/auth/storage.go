package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
)

// ErrNotAuthenticated is returned when no usable credentials are stored
var ErrNotAuthenticated = errors.New("not authenticated: run 'strava-season-stats auth login' first")

// Queries is the subset of db.Queries auth persistence needs
type Queries interface {
	GetAuthConfig(ctx context.Context) (db.AuthConfig, error)
	SaveAuthConfig(ctx context.Context, arg db.SaveAuthConfigParams) error
	UpdateTokens(ctx context.Context, arg db.UpdateTokensParams) error
	DeleteAuthConfig(ctx context.Context) error
}

// RefreshFunc exchanges a refresh token for a new token set
type RefreshFunc func(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error)

// Storage handles auth data persistence
type Storage struct {
	queries Queries
	refresh RefreshFunc
}

// NewStorage creates a Storage that refreshes tokens against Strava
func NewStorage(queries Queries) *Storage {
	return &Storage{
		queries: queries,
		refresh: RefreshAccessToken,
	}
}

// WithRefresher overrides how expired tokens are refreshed
func (s *Storage) WithRefresher(fn RefreshFunc) *Storage {
	s.refresh = fn
	return s
}

func (s *Storage) loadConfig(ctx context.Context) (db.AuthConfig, error) {
	config, err := s.queries.GetAuthConfig(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return db.AuthConfig{}, ErrNotAuthenticated
	}
	if err != nil {
		return db.AuthConfig{}, fmt.Errorf("loading auth config: %w", err)
	}
	return config, nil
}

// SaveTokens replaces the stored tokens, keeping the client credentials
func (s *Storage) SaveTokens(ctx context.Context, tokens *TokenResponse) error {
	if _, err := s.loadConfig(ctx); err != nil {
		return err
	}
	return s.queries.UpdateTokens(ctx, db.UpdateTokensParams{
		AccessToken:  sql.NullString{String: tokens.AccessToken, Valid: true},
		RefreshToken: sql.NullString{String: tokens.RefreshToken, Valid: true},
		ExpiresAt:    sql.NullInt64{Int64: tokens.ExpiresAt, Valid: true},
	})
}

// LoadTokens loads the stored tokens
func (s *Storage) LoadTokens(ctx context.Context) (*StoredTokens, error) {
	config, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !config.AccessToken.Valid {
		return nil, ErrNotAuthenticated
	}

	return &StoredTokens{
		AccessToken:  config.AccessToken.String,
		RefreshToken: config.RefreshToken.String,
		ExpiresAt:    config.ExpiresAt.Int64,
	}, nil
}

// SaveClientConfig saves client credentials, clearing any tokens
func (s *Storage) SaveClientConfig(ctx context.Context, clientID, clientSecret string) error {
	return s.queries.SaveAuthConfig(ctx, db.SaveAuthConfigParams{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// SaveFullConfig saves client credentials and tokens together
func (s *Storage) SaveFullConfig(ctx context.Context, clientID, clientSecret string, tokens *TokenResponse) error {
	return s.queries.SaveAuthConfig(ctx, db.SaveAuthConfigParams{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AccessToken:  sql.NullString{String: tokens.AccessToken, Valid: true},
		RefreshToken: sql.NullString{String: tokens.RefreshToken, Valid: true},
		ExpiresAt:    sql.NullInt64{Int64: tokens.ExpiresAt, Valid: true},
	})
}

// LoadClientConfig loads the stored client credentials
func (s *Storage) LoadClientConfig(ctx context.Context) (*ClientConfig, error) {
	config, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &ClientConfig{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
	}, nil
}

// DeleteTokens removes the stored auth config
func (s *Storage) DeleteTokens(ctx context.Context) error {
	return s.queries.DeleteAuthConfig(ctx)
}

// GetValidAccessToken returns a usable access token, refreshing and storing
// a new one when the current token is about to expire
func (s *Storage) GetValidAccessToken(ctx context.Context) (string, error) {
	tokens, _, err := s.RefreshIfExpiring(ctx, expiryMargin)
	if err != nil {
		return "", err
	}
	return tokens.AccessToken, nil
}

// RefreshIfExpiring refreshes the stored token when it expires within the
// given window. refreshed reports whether a new token was saved.
func (s *Storage) RefreshIfExpiring(ctx context.Context, within time.Duration) (tokens *StoredTokens, refreshed bool, err error) {
	tokens, err = s.LoadTokens(ctx)
	if err != nil {
		return nil, false, err
	}
	if time.Until(time.Unix(tokens.ExpiresAt, 0)) >= within {
		return tokens, false, nil
	}

	config, err := s.LoadClientConfig(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("loading client config for refresh: %w", err)
	}

	fresh, err := s.refresh(ctx, config.ClientID, config.ClientSecret, tokens.RefreshToken)
	if err != nil {
		return nil, false, fmt.Errorf("refreshing token: %w", err)
	}
	if err := s.SaveTokens(ctx, fresh); err != nil {
		return nil, false, fmt.Errorf("saving refreshed tokens: %w", err)
	}

	return &StoredTokens{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    fresh.ExpiresAt,
	}, true, nil
}

// StoredTokens represents the tokens stored in the database
type StoredTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// ClientConfig represents the stored client credentials
type ClientConfig struct {
	ClientID     string
	ClientSecret string
}
