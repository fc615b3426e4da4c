package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wso2/idcard-reissue-api/internal/models"
)

// MockStore is a mock implementation of the console's Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadAll(ctx context.Context) ([]models.RequestRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RequestRecord), args.Error(1)
}

func (m *MockStore) SaveAll(ctx context.Context, records []models.RequestRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockStore) AppendAudit(ctx context.Context, audit models.StatusAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockStore) AuditFor(ctx context.Context, requestID int64) ([]models.StatusAudit, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusAudit), args.Error(1)
}
