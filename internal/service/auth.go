package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/repo"
	"github.com/BuzzLyutic/taskflow/internal/validation"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Generate(u model.User) (string, error)
}

type AuthService struct {
	users  repo.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users repo.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

func (s *AuthService) Signup(ctx context.Context, in model.SignupInput) (model.Session, error) {
	in, err := validation.Signup(in)
	if err != nil {
		return model.Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{Email: in.Email, Name: in.Name, PasswordHash: hash})
	if errors.Is(err, repo.ErrorConflict) {
		return model.Session{}, ErrEmailTaken
	}
	if err != nil {
		return model.Session{}, storeErr("signup", err)
	}
	return s.session(user)
}

// Login не различает неизвестный email и неверный пароль
func (s *AuthService) Login(ctx context.Context, in model.LoginInput) (model.Session, error) {
	in, err := validation.Login(in)
	if err != nil {
		return model.Session{}, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repo.ErrorNotFound) {
		return model.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, storeErr("login", err)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return model.Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

// Me resolves the caller's account. A token whose user no longer exists is unauthenticated.
func (s *AuthService) Me(ctx context.Context, who model.Identity) (model.User, error) {
	if who.Empty() {
		return model.User{}, ErrUnauthenticated
	}
	user, err := s.users.GetByID(ctx, who.UserID)
	if errors.Is(err, repo.ErrorNotFound) {
		return model.User{}, ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, storeErr("me", err)
	}
	return user, nil
}

func (s *AuthService) session(u model.User) (model.Session, error) {
	token, err := s.tokens.Generate(u)
	if err != nil {
		return model.Session{}, fmt.Errorf("issue token: %w", err)
	}
	return model.Session{User: u, Token: token}, nil
}
