// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/formset/backend/internal/core"
)

type Repository interface {
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshTokenByHash(
		ctx context.Context,
		hash string,
	) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id, replacedBy string) error
	RevokeTokenFamily(ctx context.Context, familyID string) error
	RevokeAllUserTokens(ctx context.Context, userID string) error
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) CreateRefreshToken(
	ctx context.Context,
	token *RefreshToken,
) error {
	query := `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, expires_at,
			 user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.FamilyID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, family_id, expires_at,
		       created_at, revoked_at, replaced_by, user_agent, ip_address
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) RevokeRefreshToken(
	ctx context.Context,
	id, replacedBy string,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by = NULLIF($2, '')
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, replacedBy)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}

	return nil
}

// RevokeTokenFamily revokes every token in a rotation family. Called
// when a previously-rotated token is replayed.
func (r *repository) RevokeTokenFamily(
	ctx context.Context,
	familyID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, familyID); err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}

	return nil
}

func (r *repository) RevokeAllUserTokens(
	ctx context.Context,
	userID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}

	return nil
}

func (r *repository) DeleteExpiredTokens(
	ctx context.Context,
) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW() - INTERVAL '7 days'`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}
