//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	apperrors "chat-relay/errors"
	"chat-relay/repositories"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type IAuthService interface {
	Register(username, password string) (string, error)
	Login(username, password string) (string, error)
}

// AuthService issues the tokens that gate every websocket connection.
type AuthService struct {
	users    repositories.IUserRepository
	log      *slog.Logger
	tokenTTL time.Duration
}

func NewAuthService(users repositories.IUserRepository, log *slog.Logger, tokenTTL time.Duration) IAuthService {
	return &AuthService{users: users, log: log, tokenTTL: tokenTTL}
}

// Register validates the credentials, stores the account and returns a
// fresh token so the client can connect immediately.
func (s *AuthService) Register(username, password string) (string, error) {
	req := auth.RegisterRequest{Username: username, Password: password}
	if err := auth.ValidateRegister(req); err != nil {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrTokenGeneration, err)
	}

	userID, err := s.users.CreateUser(username, hash)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			return "", err
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", "username", username)
	return s.issueToken(userID, username)
}

// Login verifies the password and returns a token. All failures collapse
// into ErrInvalidCredentials so callers cannot probe for valid usernames.
func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", apperrors.ErrInvalidCredentials
	}

	return s.issueToken(user.ID, user.Username)
}

func (s *AuthService) issueToken(userID, username string) (string, error) {
	token, err := auth.GenerateToken(userID, username, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrTokenGeneration, err)
	}
	return token, nil
}
