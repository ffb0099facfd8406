package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"sipeta/internal/auth"
	"sipeta/internal/database"
	"sipeta/internal/model"
	"sipeta/internal/repository"
)

// Messages returned with a registration.
const (
	MsgRegistered         = "Registration successful. Please sign in."
	MsgRegisteredDegraded = "Registration successful, but the profile could not be saved. Sign in with your email and contact the administrator."
)

// RegisterResult reports a sign-up. A missing profile is a degraded success.
type RegisterResult struct {
	User           *model.User `json:"user"`
	ProfileCreated bool        `json:"profile_created"`
	Message        string      `json:"message"`
}

// AuthService is the auth gateway.
type AuthService interface {
	// Login accepts an email or a NIK as identifier.
	Login(ctx context.Context, identifier, password string) (*model.Session, error)
	Register(ctx context.Context, r auth.Registration) (*RegisterResult, error)
	Session(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	provider auth.Provider
	profiles repository.ProfileRepository
	log      zerolog.Logger
}

// NewAuthService constructs the auth gateway.
func NewAuthService(provider auth.Provider, profiles repository.ProfileRepository, log zerolog.Logger) AuthService {
	return &authService{provider: provider, profiles: profiles, log: log}
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*model.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentifierRequired
	}

	email := identifier
	if !auth.IsEmail(identifier) {
		p, err := s.profiles.FindProfileByNIK(ctx, identifier)
		if err != nil {
			if repository.IsNoRowsError(err) || database.IsUndefinedTable(err) {
				return nil, auth.ErrNIKNotFound
			}
			return nil, fmt.Errorf("resolve NIK: %w", err)
		}
		email = p.Email
	}

	return s.provider.SignIn(ctx, email, password)
}

func (s *authService) Register(ctx context.Context, r auth.Registration) (*RegisterResult, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	u, err := s.provider.SignUp(ctx, r.Email, r.Password, r.FullName)
	if err != nil {
		return nil, err
	}

	err = s.profiles.CreateProfile(ctx, &model.Profile{
		ID:       u.ID,
		Email:    r.Email,
		FullName: r.FullName,
		NIK:      r.NIK,
		Role:     "user",
	})
	if err != nil {
		ev := s.log.Warn().Str("event", "profile_create_failed").Str("user_id", u.ID).Err(err)
		if database.IsUndefinedTable(err) {
			ev.Msg("profiles table is missing")
		} else {
			ev.Msg("")
		}
		return &RegisterResult{User: u, ProfileCreated: false, Message: MsgRegisteredDegraded}, nil
	}

	return &RegisterResult{User: u, ProfileCreated: true, Message: MsgRegistered}, nil
}

func (s *authService) Session(ctx context.Context, token string) (*model.Session, error) {
	return s.provider.Session(ctx, token)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	return s.provider.SignOut(ctx, token)
}
