package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sipeta/internal/category"
	"sipeta/internal/model"
	"sipeta/internal/repository"
)

type MockRecordRepository struct {
	mock.Mock
}

var _ repository.RecordRepository = (*MockRecordRepository)(nil)

func (m *MockRecordRepository) Insert(ctx context.Context, c *category.Category, rec *model.Record) (*model.Record, error) {
	args := m.Called(ctx, c, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordRepository) List(ctx context.Context, c *category.Category, q repository.ListQuery) ([]model.Record, error) {
	args := m.Called(ctx, c, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByID(ctx context.Context, c *category.Category, id string) (*model.Record, error) {
	args := m.Called(ctx, c, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordRepository) Count(ctx context.Context, c *category.Category) (int, error) {
	args := m.Called(ctx, c)
	return args.Int(0), args.Error(1)
}

func (m *MockRecordRepository) Probe(ctx context.Context, c *category.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRecordRepository) MarkDeleting(ctx context.Context, c *category.Category, id string, at time.Time) error {
	args := m.Called(ctx, c, id, at)
	return args.Error(0)
}

func (m *MockRecordRepository) ClearDeleting(ctx context.Context, c *category.Category, id string) error {
	args := m.Called(ctx, c, id)
	return args.Error(0)
}

func (m *MockRecordRepository) Delete(ctx context.Context, c *category.Category, id string) error {
	args := m.Called(ctx, c, id)
	return args.Error(0)
}

func (m *MockRecordRepository) ListDeleting(ctx context.Context, c *category.Category, before time.Time) ([]model.Record, error) {
	args := m.Called(ctx, c, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.ProfileRepository = (*MockUserRepository)(nil)
)

func (m *MockUserRepository) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) CreateProfile(ctx context.Context, p *model.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockUserRepository) FindProfileByNIK(ctx context.Context, nik string) (*model.Profile, error) {
	args := m.Called(ctx, nik)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockUserRepository) FindProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}
