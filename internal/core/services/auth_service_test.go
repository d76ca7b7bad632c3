package services

import (
	"context"
	"testing"

	"openshelf/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.auth.Register(ctx, &RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, string(domain.RoleStudent), result.User.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	login, err := env.auth.Login(ctx, &LoginInput{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
}

func TestRegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, &RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, &RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUsernameAlreadyUsed)

	_, err = env.auth.Register(ctx, &RegisterInput{
		Username: "alice2", Email: "alice@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestRegisterShortPassword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), &RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "short",
	})
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createStudent(t, "alice")

	_, err := env.auth.Login(ctx, &LoginInput{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, &LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginBlockedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	_, err := env.users.SetAccountStatus(ctx, student.ID, domain.AccountBlocked)
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, &LoginInput{
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createStudent(t, "alice")
	login, err := env.auth.Login(ctx, &LoginInput{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	refreshed, err := env.auth.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// The old refresh token was rotated out and cannot be reused
	_, err = env.auth.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshTokenGarbage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.RefreshToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createStudent(t, "alice")
	login, err := env.auth.Login(ctx, &LoginInput{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, login.RefreshToken))

	_, err = env.auth.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogoutAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")

	first, err := env.auth.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	second, err := env.auth.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, env.auth.LogoutAll(ctx, student.ID))

	_, err = env.auth.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = env.auth.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestValidateAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createStudent(t, "alice")
	login, err := env.auth.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	claims, err := env.auth.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(domain.RoleStudent), claims.Role)
}
