package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// MockCompletionClient implements models.CompletionClient
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) GenerateCompletion(ctx context.Context, messages []models.Message, model string, params models.CompletionParams) (*models.CompletionResponse, error) {
	args := m.Called(ctx, messages, model, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompletionResponse), args.Error(1)
}

func (m *MockCompletionClient) CheckAvailability(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// MockCostCalculator implements models.CostCalculator
type MockCostCalculator struct {
	mock.Mock
}

func (m *MockCostCalculator) CalculateCost(tokens int, model string) float64 {
	args := m.Called(tokens, model)
	return args.Get(0).(float64)
}

// MockResultStore implements models.ResultStore
type MockResultStore struct {
	mock.Mock
}

func (m *MockResultStore) Get(ctx context.Context, key string) (*models.ProcessingResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProcessingResult), args.Error(1)
}

func (m *MockResultStore) Set(ctx context.Context, key string, result *models.ProcessingResult) error {
	args := m.Called(ctx, key, result)
	return args.Error(0)
}

func (m *MockResultStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockResultStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockResultStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
