package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"
	"smartbin-backend/pkg/utils"

	"gorm.io/gorm"
)

type AuthService struct {
	userRepo *repository.UserRepository
}

func NewAuthService(userRepo *repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"-"`
	User         *models.User `json:"user"`
}

func invalidCredentials() *Error {
	return newError(ErrUnauthorized, "invalid credentials")
}

// Login checks credentials and issues an access token and a stored refresh token.
// Banned accounts are rejected with ErrAccountDisabled.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, dbError("find user", err)
	}

	if !utils.ComparePassword(user.Password, password) {
		return nil, invalidCredentials()
	}
	if user.IsBanned {
		return nil, newError(ErrAccountDisabled, "account is disabled")
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := utils.GenerateRefreshToken()
	if err := s.userRepo.CreateRefreshToken(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: time.Now().Add(utils.RefreshTokenExpiry()),
	}); err != nil {
		return nil, dbError("store refresh token", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// RefreshAccessToken issues a new access token for a valid refresh token
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	token, err := s.userRepo.FindRefreshTokenByHash(ctx, utils.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", newError(ErrUnauthorized, "invalid or revoked refresh token")
		}
		return "", dbError("find refresh token", err)
	}

	if time.Now().After(token.ExpiresAt) {
		return "", newError(ErrUnauthorized, "refresh token expired")
	}
	if token.User.IsBanned {
		return "", newError(ErrAccountDisabled, "account is disabled")
	}

	accessToken, err := utils.GenerateAccessToken(token.User.ID, token.User.Email, token.User.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.userRepo.RevokeRefreshTokenByHash(ctx, utils.HashRefreshToken(refreshToken)); err != nil {
		return dbError("revoke refresh token", err)
	}
	return nil
}
