package services

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T) (IAuthService, *mocks.MockIUserRepository) {
	t.Helper()
	auth.UseSecret([]byte("a-secret-only-for-tests"))
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	return NewAuthService(users, logs.GetLoggerFromLevel(slog.LevelDebug), time.Hour), users
}

func Test_Register_Returns_Usable_Token(t *testing.T) {
	req := require.New(t)
	service, users := newTestService(t)

	// Given the repository accepts the new account
	users.EXPECT().
		CreateUser("alice42", gomock.Any()).
		DoAndReturn(func(_, hashedPassword string) (string, error) {
			// The service must never store the plain password
			req.NotEqual("S3cure!Password", hashedPassword)
			return "user-1", nil
		})

	// When registering
	token, err := service.Register("alice42", "S3cure!Password")
	req.NoError(err)

	// Then the token carries the identity
	claims, err := auth.VerifyToken(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice42", claims.Username)
}

func Test_Register_Rejects_Weak_Password(t *testing.T) {
	req := require.New(t)
	service, _ := newTestService(t)

	// No repository call expected: validation fails first
	_, err := service.Register("alice42", "weak")

	req.ErrorIs(err, errors.ErrInvalidPassword)
}

func Test_Register_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	service, users := newTestService(t)

	users.EXPECT().
		CreateUser("alice42", gomock.Any()).
		Return("", errors.ErrUserAlreadyExists)

	_, err := service.Register("alice42", "S3cure!Password")

	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Login_Success(t *testing.T) {
	req := require.New(t)
	service, users := newTestService(t)

	hash, err := auth.HashPassword("S3cure!Password")
	req.NoError(err)
	users.EXPECT().
		GetUserByUsername("alice42").
		Return(repositories.User{ID: "user-1", Username: "alice42", PasswordHash: hash}, nil)

	token, err := service.Login("alice42", "S3cure!Password")
	req.NoError(err)

	claims, err := auth.VerifyToken(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
}

func Test_Login_Wrong_Password(t *testing.T) {
	req := require.New(t)
	service, users := newTestService(t)

	hash, err := auth.HashPassword("S3cure!Password")
	req.NoError(err)
	users.EXPECT().
		GetUserByUsername("alice42").
		Return(repositories.User{ID: "user-1", Username: "alice42", PasswordHash: hash}, nil)

	_, err = service.Login("alice42", "NotThePassword1!")

	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func Test_Login_Unknown_User(t *testing.T) {
	req := require.New(t)
	service, users := newTestService(t)

	users.EXPECT().
		GetUserByUsername("ghost").
		Return(repositories.User{}, errors.ErrInvalidCredentials)

	// Then the caller cannot tell a bad username from a bad password
	_, err := service.Login("ghost", "S3cure!Password")

	req.ErrorIs(err, errors.ErrInvalidCredentials)
}
