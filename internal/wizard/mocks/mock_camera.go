package mocks

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"github.com/wso2/idcard-reissue-api/internal/camera"
)

// MockDeviceProvider is a mock implementation of camera.DeviceProvider
type MockDeviceProvider struct {
	mock.Mock
}

func (m *MockDeviceProvider) Acquire(ctx context.Context, constraints camera.Constraints) (camera.Device, error) {
	args := m.Called(ctx, constraints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(camera.Device), args.Error(1)
}

// MockDevice is a mock implementation of camera.Device
type MockDevice struct {
	mock.Mock
}

func (m *MockDevice) Frame(ctx context.Context) (image.Image, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}

func (m *MockDevice) Release() error {
	args := m.Called()
	return args.Error(0)
}
