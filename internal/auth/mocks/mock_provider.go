package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sipeta/internal/auth"
	"sipeta/internal/model"
)

type MockProvider struct {
	mock.Mock
}

var _ auth.Provider = (*MockProvider)(nil)

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockProvider) SignUp(ctx context.Context, email, password, fullName string) (*model.User, error) {
	args := m.Called(ctx, email, password, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProvider) Session(ctx context.Context, token string) (*model.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
