package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sipeta/internal/auth"
	"sipeta/internal/category"
	"sipeta/internal/history"
	"sipeta/internal/model"
	"sipeta/internal/service"
	"sipeta/internal/upload"
)

type MockArchiveService struct {
	mock.Mock
}

var _ service.ArchiveService = (*MockArchiveService)(nil)

func (m *MockArchiveService) Categories() []*category.Category {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*category.Category)
}

func (m *MockArchiveService) Sections() []category.Section {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]category.Section)
}

func (m *MockArchiveService) Upload(ctx context.Context, uploadID, categoryKey, sectionKey string, f upload.File) (*upload.Result, error) {
	args := m.Called(ctx, uploadID, categoryKey, sectionKey, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.Result), args.Error(1)
}

func (m *MockArchiveService) UploadProgress(uploadID string) (upload.Progress, bool) {
	args := m.Called(uploadID)
	return args.Get(0).(upload.Progress), args.Bool(1)
}

func (m *MockArchiveService) Submit(ctx context.Context, in service.SubmitInput) (*model.Entry, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entry), args.Error(1)
}

func (m *MockArchiveService) List(ctx context.Context, categoryKey, q string) ([]model.Entry, error) {
	args := m.Called(ctx, categoryKey, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Entry), args.Error(1)
}

func (m *MockArchiveService) Get(ctx context.Context, categoryKey, id string) (*model.Entry, error) {
	args := m.Called(ctx, categoryKey, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entry), args.Error(1)
}

func (m *MockArchiveService) Open(ctx context.Context, categoryKey, id string) (*service.Download, error) {
	args := m.Called(ctx, categoryKey, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}

func (m *MockArchiveService) Link(ctx context.Context, categoryKey, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, categoryKey, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockArchiveService) Delete(ctx context.Context, categoryKey, id string, confirmed bool) error {
	args := m.Called(ctx, categoryKey, id, confirmed)
	return args.Error(0)
}

func (m *MockArchiveService) Board(ctx context.Context, sectionKey string, q service.BoardQuery) (*history.View, error) {
	args := m.Called(ctx, sectionKey, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.View), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

var _ service.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) Login(ctx context.Context, identifier, password string) (*model.Session, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, r auth.Registration) (*service.RegisterResult, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RegisterResult), args.Error(1)
}

func (m *MockAuthService) Session(ctx context.Context, token string) (*model.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockDiagnosticsService struct {
	mock.Mock
}

var _ service.DiagnosticsService = (*MockDiagnosticsService)(nil)

func (m *MockDiagnosticsService) Run(ctx context.Context) (*service.DiagnosticsResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DiagnosticsResult), args.Error(1)
}
