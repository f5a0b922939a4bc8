// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ccmock.dev/pkg/ccmock/internal/domain"
)

// MockGenerator is a mock type for the domain.Generator interface.
type MockGenerator struct {
	mock.Mock
}

var _ domain.Generator = (*MockGenerator)(nil)

// Generate provides a mock function with given fields: ctx, args.
func (_m *MockGenerator) Generate(ctx context.Context, args domain.GenerateArgs) error {
	ret := _m.Called(ctx, args)

	if len(ret) == 0 {
		panic("no return value specified for Generate")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.GenerateArgs) error); ok {
		return rf(ctx, args)
	}

	return ret.Error(0)
}

// Collect provides a mock function with given fields: ctx, args.
func (_m *MockGenerator) Collect(ctx context.Context, args domain.CollectArgs) ([]domain.CollectReport, error) {
	ret := _m.Called(ctx, args)

	if len(ret) == 0 {
		panic("no return value specified for Collect")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.CollectArgs) ([]domain.CollectReport, error)); ok {
		return rf(ctx, args)
	}

	var r0 []domain.CollectReport
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.CollectReport)
	}

	return r0, ret.Error(1)
}

// NewMockGenerator creates a new instance of MockGenerator. It registers a
// cleanup function that asserts the mock's expectations.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
