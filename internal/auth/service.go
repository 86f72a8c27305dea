// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/formset/backend/internal/access"
	"github.com/formset/backend/internal/config"
	"github.com/formset/backend/internal/core"
)

// UserProvider is the user-store surface the auth flow needs. The user
// package's Service satisfies it.
type UserProvider interface {
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo       Repository
	users      UserProvider
	jwtManager *JWTManager
	config     config.JWTConfig
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	users UserProvider,
	jwtManager *JWTManager,
	cfg config.JWTConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		jwtManager: jwtManager,
		config:     cfg,
		logger:     logger,
	}
}

type ClientMeta struct {
	UserAgent string
	IPAddress string
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	meta ClientMeta,
) (*TokenPairResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("account")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	return s.issueTokenPair(ctx, user, "", meta)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	meta ClientMeta,
) (*TokenPairResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Burn comparable time so a missing account is not
			// distinguishable from a wrong password.
			//nolint:errcheck // result intentionally discarded
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, core.UnauthorizedError("invalid credentials")
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := core.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, core.UnauthorizedError("invalid credentials")
	}

	return s.issueTokenPair(ctx, user, "", meta)
}

// Refresh rotates a refresh token. Replaying an already-rotated token
// revokes the whole family.
func (s *Service) Refresh(
	ctx context.Context,
	req RefreshRequest,
	meta ClientMeta,
) (*TokenPairResponse, error) {
	hash := core.HashToken(req.RefreshToken)

	stored, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenInvalidError()
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if stored.IsRevoked() {
		s.logger.Warn("refresh token replay detected",
			"user_id", stored.UserID,
			"family_id", stored.FamilyID,
		)
		if revokeErr := s.repo.RevokeTokenFamily(ctx, stored.FamilyID); revokeErr != nil {
			s.logger.Error("failed to revoke token family",
				"family_id", stored.FamilyID,
				"error", revokeErr,
			)
		}
		return nil, core.TokenRevokedError()
	}

	if stored.IsExpired() {
		return nil, core.TokenExpiredError()
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenInvalidError()
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	pair, err := s.issueTokenPair(ctx, user, stored.FamilyID, meta)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, ""); err != nil {
		s.logger.Error("failed to revoke rotated token",
			"token_id", stored.ID,
			"error", err,
		)
	}

	return pair, nil
}

func (s *Service) Logout(ctx context.Context, req LogoutRequest) error {
	hash := core.HashToken(req.RefreshToken)

	stored, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("logout: %w", err)
	}

	if err := s.repo.RevokeTokenFamily(ctx, stored.FamilyID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// ChangePassword rotates the password hash and invalidates every
// outstanding credential for the account.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID string,
	req ChangePasswordRequest,
) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := core.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return core.UnauthorizedError("current password is incorrect")
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if err := s.repo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Error("failed to revoke tokens after password change",
			"user_id", userID,
			"error", err,
		)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*CurrentUserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &CurrentUserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}, nil
}

// ResolveActor turns a bearer token into a request actor. The token
// only proves the subject id; role and account status are read fresh
// from the user row so a role change or deletion takes effect on the
// next request, not at token expiry.
func (s *Service) ResolveActor(
	ctx context.Context,
	token string,
) (access.Actor, error) {
	claims, err := s.jwtManager.VerifyAccessToken(token)
	if err != nil {
		return access.Anonymous, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return access.Anonymous, fmt.Errorf(
				"resolve actor: %w",
				core.ErrTokenInvalid,
			)
		}
		return access.Anonymous, fmt.Errorf("resolve actor: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return access.Anonymous, fmt.Errorf(
			"resolve actor: %w",
			core.ErrTokenRevoked,
		)
	}

	return access.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *Service) CleanupExpiredTokens(ctx context.Context) error {
	deleted, err := s.repo.DeleteExpiredTokens(ctx)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("cleaned up expired refresh tokens",
			"count", deleted,
		)
	}

	return nil
}

func (s *Service) issueTokenPair(
	ctx context.Context,
	user *UserInfo,
	familyID string,
	meta ClientMeta,
) (*TokenPairResponse, error) {
	accessToken, err := s.jwtManager.CreateAccessToken(
		user.ID,
		user.TokenVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	refreshData, err := s.jwtManager.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	stored := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}

	if err := s.repo.CreateRefreshToken(ctx, stored); err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshData.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.AccessTokenExpire / time.Second),
	}, nil
}
