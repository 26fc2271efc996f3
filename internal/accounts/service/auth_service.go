package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/dto"
	apperror "github.com/smartfunds-ke/smartfunds-backend/internal/errors"
)

// AuthService is the token issuer: it verifies credentials, records every
// attempt in the audit trail, and rotates refresh tokens on use.
type AuthService struct {
	repo   domain.UserRepository
	tokens TokenGenerator
}

func NewAuthService(repo domain.UserRepository, tokens TokenGenerator) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Login authenticates by email and password. Unknown email, wrong password
// and inactive account all collapse into the same opaque error so callers
// cannot enumerate accounts. Exactly one LoginAttempt row is written per call
// regardless of outcome.
func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	ok := user != nil && user.IsActive &&
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) == nil

	s.recordAttempt(ctx, user, input, ok)

	if !ok {
		return nil, apperror.ErrInvalidCredentials
	}

	accessToken, refreshToken, refreshExpiresAt, err := s.tokens.Generate(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, err
	}

	rt := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refreshToken,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		ExpiresAt: refreshExpiresAt,
		CreatedAt: time.Now(),
		Revoked:   false,
	}
	if err := s.repo.StoreRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, domain.MethodWeb); err != nil {
		log.Printf("warn: failed to update last login for user %s: %v", user.ID, err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// recordAttempt writes the audit record. Auditing is best-effort relative to
// the authentication outcome: a failed insert is logged, never returned.
func (s *AuthService) recordAttempt(ctx context.Context, user *domain.User, input dto.LoginInput, success bool) {
	attempt := &domain.LoginAttempt{
		ID:         uuid.NewString(),
		Email:      input.Email,
		IPAddress:  input.IPAddress,
		Method:     domain.MethodWeb,
		Successful: success,
		Timestamp:  time.Now(),
		UserAgent:  input.UserAgent,
	}
	if user != nil {
		id := user.ID
		attempt.UserID = &id
	}

	if err := s.repo.RecordLoginAttempt(ctx, attempt); err != nil {
		log.Printf("warn: failed to record login attempt for %s: %v", input.Email, err)
	}
}

// Refresh rotates the presented refresh token. Consuming the token is a
// storage-level compare-and-swap; presenting an already-consumed token is
// treated as compromise of the session line and revokes every active token
// the user holds.
func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	token, err := s.repo.GetRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, apperror.ErrRefreshTokenNotFound
	}

	if token.Revoked {
		return nil, s.handleReuse(ctx, token)
	}

	if time.Now().After(token.ExpiresAt) {
		return nil, apperror.ErrRefreshTokenExpired
	}

	consumed, err := s.repo.ConsumeRefreshToken(ctx, token.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !consumed {
		// Lost the race: someone else rotated this token concurrently.
		return nil, s.handleReuse(ctx, token)
	}

	user, err := s.repo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperror.ErrInvalidCredentials
	}

	accessToken, newRefreshToken, refreshExpiresAt, err := s.tokens.Generate(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate new tokens: %w", err)
	}

	newToken := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    token.UserID,
		Token:     newRefreshToken,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		ExpiresAt: refreshExpiresAt,
		CreatedAt: time.Now(),
		Revoked:   false,
	}
	if err := s.repo.StoreRefreshToken(ctx, newToken); err != nil {
		return nil, fmt.Errorf("failed to store new refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (s *AuthService) handleReuse(ctx context.Context, token *domain.RefreshToken) error {
	if _, err := s.repo.RevokeAllRefreshTokensByUserID(ctx, token.UserID); err != nil {
		log.Printf("warn: failed to revoke token line for user %s: %v", token.UserID, err)
	}
	return apperror.ErrRefreshTokenReused
}

// Verify validates an access token and returns its claims.
func (s *AuthService) Verify(tokenString string) (*JWTCustomClaims, error) {
	return s.tokens.VerifyAccessToken(tokenString)
}
