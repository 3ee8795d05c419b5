package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/biotechlab/lis-backend/internal/lis/auth"
	"github.com/biotechlab/lis-backend/internal/lis/events"
	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// UserService handles staff registration and login
type UserService struct {
	store     repository.Store
	tokens    *auth.Manager
	publisher *events.Publisher
	logger    *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(store repository.Store, tokens *auth.Manager, publisher *events.Publisher, log *logger.Logger) *UserService {
	return &UserService{
		store:     store,
		tokens:    tokens,
		publisher: publisher,
		logger:    log,
	}
}

// RegisterInput describes a new staff account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// LoginResult is a successful login: the user and their access token.
type LoginResult struct {
	User  *repository.User `json:"user"`
	Token *auth.Token      `json:"token"`
}

// Register creates a staff account. The password is bcrypt-hashed before it
// touches the database.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*repository.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return nil, errors.BadRequest("email must not be empty")
	}
	if len(input.Password) < 8 {
		return nil, errors.BadRequest("password must be at least 8 characters")
	}
	if input.Role == "" {
		input.Role = "staff"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.publisher.PublishUserRegistered(ctx, user.Email)
	s.logger.Info().Str("email", user.Email).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password return the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	token, err := s.tokens.GenerateToken(&auth.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	})
	if err != nil {
		return nil, errors.Internal("failed to issue token")
	}

	s.logger.Info().Str("email", user.Email).Msg("user logged in")
	return &LoginResult{User: user, Token: token}, nil
}
