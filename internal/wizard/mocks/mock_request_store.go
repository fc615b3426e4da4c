package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wso2/idcard-reissue-api/internal/models"
)

// MockRequestStore is a mock implementation of the wizard's RequestStore
type MockRequestStore struct {
	mock.Mock
}

func (m *MockRequestStore) LoadAll(ctx context.Context) ([]models.RequestRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RequestRecord), args.Error(1)
}

func (m *MockRequestStore) Append(ctx context.Context, record models.RequestRecord) (models.RequestRecord, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(models.RequestRecord), args.Error(1)
}
