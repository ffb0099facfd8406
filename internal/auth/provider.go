package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sipeta/internal/database"
	"sipeta/internal/model"
	"sipeta/internal/repository"
)

// Provider is the identity provider the auth service talks to.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*model.User, error)
	Session(ctx context.Context, token string) (*model.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Local keeps credentials in the users table.
type Local struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	tokens   *Tokens
	cost     int
}

var _ Provider = (*Local)(nil)

// NewLocal builds the provider. profiles may be nil; roles then default to "user".
func NewLocal(users repository.UserRepository, profiles repository.ProfileRepository, tokens *Tokens) *Local {
	return &Local{users: users, profiles: profiles, tokens: tokens, cost: bcrypt.DefaultCost}
}

// SignIn checks the password and issues a session. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (l *Local) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	u, err := l.users.FindUserByEmail(ctx, email)
	if err != nil {
		if repository.IsNoRowsError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := "user"
	name := u.FullName
	if l.profiles != nil {
		if p, err := l.profiles.FindProfileByID(ctx, u.ID); err == nil {
			if p.Role != "" {
				role = p.Role
			}
			if name == "" {
				name = p.FullName
			}
		}
	}
	return l.tokens.Issue(u.ID, u.Email, name, role)
}

// SignUp creates the identity row.
func (l *Local) SignUp(ctx context.Context, email, password, fullName string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := l.users.CreateUser(ctx, &model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     fullName,
		PasswordHash: string(hash),
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Session resolves a token.
func (l *Local) Session(_ context.Context, token string) (*model.Session, error) {
	return l.tokens.Parse(token)
}

// SignOut revokes a token. Signing out an invalid token is a no-op.
func (l *Local) SignOut(_ context.Context, token string) error {
	s, err := l.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil
		}
		return err
	}
	l.tokens.Revoke(s)
	return nil
}
