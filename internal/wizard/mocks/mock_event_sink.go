package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockEventSink is a mock implementation of the wizard's EventSink
type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Countdown(sessionID string, remaining int) {
	m.Called(sessionID, remaining)
}

func (m *MockEventSink) Captured(sessionID string) {
	m.Called(sessionID)
}
