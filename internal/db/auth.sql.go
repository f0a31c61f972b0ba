package db

import (
	"context"
	"database/sql"
)

const deleteAuthConfig = `-- name: DeleteAuthConfig :exec
DELETE FROM auth_config WHERE id = 1
`

func (q *Queries) DeleteAuthConfig(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAuthConfig)
	return err
}

const getAuthConfig = `-- name: GetAuthConfig :one
SELECT id, client_id, client_secret, access_token, refresh_token, expires_at
FROM auth_config WHERE id = 1
`

func (q *Queries) GetAuthConfig(ctx context.Context) (AuthConfig, error) {
	row := q.db.QueryRowContext(ctx, getAuthConfig)
	var i AuthConfig
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.ClientSecret,
		&i.AccessToken,
		&i.RefreshToken,
		&i.ExpiresAt,
	)
	return i, err
}

const saveAuthConfig = `-- name: SaveAuthConfig :exec
INSERT INTO auth_config (id, client_id, client_secret, access_token, refresh_token, expires_at)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    client_id = excluded.client_id,
    client_secret = excluded.client_secret,
    access_token = excluded.access_token,
    refresh_token = excluded.refresh_token,
    expires_at = excluded.expires_at,
    updated_at = CURRENT_TIMESTAMP
`

type SaveAuthConfigParams struct {
	ClientID     string
	ClientSecret string
	AccessToken  sql.NullString
	RefreshToken sql.NullString
	ExpiresAt    sql.NullInt64
}

func (q *Queries) SaveAuthConfig(ctx context.Context, arg SaveAuthConfigParams) error {
	_, err := q.db.ExecContext(ctx, saveAuthConfig,
		arg.ClientID,
		arg.ClientSecret,
		arg.AccessToken,
		arg.RefreshToken,
		arg.ExpiresAt,
	)
	return err
}

const updateTokens = `-- name: UpdateTokens :exec
UPDATE auth_config
SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = 1
`

type UpdateTokensParams struct {
	AccessToken  sql.NullString
	RefreshToken sql.NullString
	ExpiresAt    sql.NullInt64
}

func (q *Queries) UpdateTokens(ctx context.Context, arg UpdateTokensParams) error {
	_, err := q.db.ExecContext(ctx, updateTokens, arg.AccessToken, arg.RefreshToken, arg.ExpiresAt)
	return err
}
