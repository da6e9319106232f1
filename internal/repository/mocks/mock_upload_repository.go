package mocks

import (
	"context"
	"time"

	"fileax/internal/model"
	"fileax/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockUploadRepository struct {
	mock.Mock
}

func (m *MockUploadRepository) Create(ctx context.Context, f *model.StoredFile) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockUploadRepository) Stats(ctx context.Context, since time.Time) (*repository.UploadStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UploadStats), args.Error(1)
}
