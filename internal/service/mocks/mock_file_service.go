package mocks

import (
	"context"
	"io"

	"fileax/internal/model"
	"fileax/internal/storage"
	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.StoredFile, error) {
	args := m.Called(ctx, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileService) Open(ctx context.Context, storedName string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, storedName)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockFileService) Ready(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
