package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
)

// OAuthToken is a linked provider credential of a console user.
type OAuthToken struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Provider     string     `db:"provider" json:"provider"`
	Account      string     `db:"account" json:"account"`
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken string     `db:"refresh_token" json:"-"`
	TokenType    string     `db:"token_type" json:"token_type"`
	Scopes       string     `db:"scopes" json:"scopes"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

const oauthColumns = `id, user_id, provider, account, access_token, refresh_token, token_type, scopes, expires_at, created_at, updated_at`

// SaveOAuthToken stores tok, replacing an earlier credential of the same
// user and provider. The stored token is returned.
func (db *DB) SaveOAuthToken(ctx context.Context, tok OAuthToken) (OAuthToken, error) {
	now := time.Now().UTC()
	if tok.ID == "" {
		tok.ID = uuid.NewString()
	}
	tok.CreatedAt, tok.UpdatedAt = now, now

	_, err := db.NamedExecContext(ctx, `INSERT INTO oauth_tokens (`+oauthColumns+`)
		VALUES (:id, :user_id, :provider, :account, :access_token, :refresh_token, :token_type, :scopes, :expires_at, :created_at, :updated_at)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			account = excluded.account,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			scopes = excluded.scopes,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`, tok)
	if err != nil {
		return OAuthToken{}, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "save_oauth_token", "insert failed", tok.Provider, err)
	}

	var stored OAuthToken
	err = db.GetContext(ctx, &stored, `SELECT `+oauthColumns+` FROM oauth_tokens WHERE user_id = ? AND provider = ?`, tok.UserID, tok.Provider)
	if err != nil {
		return OAuthToken{}, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "save_oauth_token", "reload failed", tok.Provider, err)
	}
	return stored, nil
}

// OAuthTokens lists the credentials linked by userID.
func (db *DB) OAuthTokens(ctx context.Context, userID string) ([]OAuthToken, error) {
	tokens := []OAuthToken{}
	err := db.SelectContext(ctx, &tokens, `SELECT `+oauthColumns+` FROM oauth_tokens WHERE user_id = ? ORDER BY provider`, userID)
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "list_oauth_tokens", "query failed", userID, err)
	}
	return tokens, nil
}

// DeleteOAuthToken unlinks the credential id owned by userID.
func (db *DB) DeleteOAuthToken(ctx context.Context, userID, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "delete_oauth_token", "delete failed", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrClassNotFound, "delete_oauth_token", "token not found").WithContext("id", id)
	}
	return nil
}
