package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biotechlab/lis-backend/internal/lis/auth"
	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/config"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/messaging"
)

func newUserService(env *testEnv) *service.UserService {
	manager := auth.NewManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: 15 * time.Minute,
		Issuer:       "lis-test",
	})
	return service.NewUserService(env.store, manager, env.publisher, env.log)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()
	svc := newUserService(env)
	ctx := context.Background()

	user, err := svc.Register(ctx, service.RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "  Jane.Doe@lis.local ",
		Password:  "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@lis.local", user.Email)
	assert.Equal(t, "staff", user.Role)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	env.published.AssertEventPublished(t, messaging.EventUserRegistered)

	result, err := svc.Login(ctx, "jane.doe@lis.local", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Token.AccessToken)
	assert.Equal(t, "Bearer", result.Token.TokenType)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	svc := newUserService(env)
	ctx := context.Background()

	input := service.RegisterInput{
		FirstName: "Jane", LastName: "Doe",
		Email: "jane.doe@lis.local", Password: "correct horse",
	}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestRegister_ShortPassword(t *testing.T) {
	env := newTestEnv()
	svc := newUserService(env)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		FirstName: "Jane", LastName: "Doe",
		Email: "jane.doe@lis.local", Password: "short",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv()
	svc := newUserService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, service.RegisterInput{
		FirstName: "Jane", LastName: "Doe",
		Email: "jane.doe@lis.local", Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "jane.doe@lis.local", "wrong horse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := newTestEnv()
	svc := newUserService(env)

	_, err := svc.Login(context.Background(), "nobody@lis.local", "whatever")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}
