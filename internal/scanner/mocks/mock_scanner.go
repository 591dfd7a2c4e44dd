package mocks

import (
	"context"

	"catalogapi/internal/scanner"

	"github.com/stretchr/testify/mock"
)

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) CheckImage(ctx context.Context, path string) (scanner.Result, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(scanner.Result), args.Error(1)
}
