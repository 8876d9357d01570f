// Package mocks provides test doubles for the hunter client.
package mocks

import (
	"context"

	hunter "github.com/sells-group/venue-cli/pkg/hunter"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// DomainSearch provides a mock function with given fields: ctx, domain, limit
func (_m *MockClient) DomainSearch(ctx context.Context, domain string, limit int) (*hunter.DomainSearch, error) {
	ret := _m.Called(ctx, domain, limit)

	if len(ret) == 0 {
		panic("no return value specified for DomainSearch")
	}

	var r0 *hunter.DomainSearch
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*hunter.DomainSearch)
	}
	return r0, ret.Error(1)
}

// VerifyEmail provides a mock function with given fields: ctx, email
func (_m *MockClient) VerifyEmail(ctx context.Context, email string) (*hunter.Verification, error) {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for VerifyEmail")
	}

	var r0 *hunter.Verification
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*hunter.Verification)
	}
	return r0, ret.Error(1)
}

// Account provides a mock function with given fields: ctx
func (_m *MockClient) Account(ctx context.Context) (*hunter.Account, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Account")
	}

	var r0 *hunter.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*hunter.Account)
	}
	return r0, ret.Error(1)
}

// CreditsUsed provides a mock function with no fields
func (_m *MockClient) CreditsUsed() int {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for CreditsUsed")
	}

	return ret.Int(0)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
