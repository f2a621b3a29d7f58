// internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockTreasuryYieldAPI mocks the TreasuryYieldAPI interface
type MockTreasuryYieldAPI struct {
	mock.Mock
}

func (m *MockTreasuryYieldAPI) Fetch(ctx context.Context, maturities []entity.Maturity, start, end civil.Date) ([]entity.YieldCurvePoint, error) {
	args := m.Called(ctx, maturities, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.YieldCurvePoint), args.Error(1)
}

// MockObservationCache mocks the ObservationCache interface
type MockObservationCache struct {
	mock.Mock
}

func (m *MockObservationCache) Get(ctx context.Context, key string) ([]entity.YieldCurvePoint, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]entity.YieldCurvePoint), args.Bool(1), args.Error(2)
}

func (m *MockObservationCache) Put(ctx context.Context, key string, points []entity.YieldCurvePoint, ttl time.Duration) error {
	args := m.Called(ctx, key, points, ttl)
	return args.Error(0)
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	args := m.Called(key, value)
	return args.Get(0).(logger.Logger)
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	args := m.Called(fields)
	return args.Get(0).(logger.Logger)
}
