// Mock of TransactionProvider from chain/external.go, written by hand in
// the untyped form that
//
//	mockgen -source=chain/external.go -destination=internal/mocks/transaction_provider_mock.go -package=mocks
//
// produces.

// Package mocks holds hand-maintained stand-ins for go.uber.org/mock/gomock
// generated code, used where a test needs call-count/ordering assertions
// that the internal/fixtures stand-ins don't provide.
package mocks

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	chain "github.com/sequencerlabs/parallex/chain"
)

// MockTransactionProvider is a mock of TransactionProvider interface.
type MockTransactionProvider struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionProviderMockRecorder
}

// MockTransactionProviderMockRecorder is the mock recorder for MockTransactionProvider.
type MockTransactionProviderMockRecorder struct {
	mock *MockTransactionProvider
}

// NewMockTransactionProvider creates a new mock instance.
func NewMockTransactionProvider(ctrl *gomock.Controller) *MockTransactionProvider {
	mock := &MockTransactionProvider{ctrl: ctrl}
	mock.recorder = &MockTransactionProviderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransactionProvider) EXPECT() *MockTransactionProviderMockRecorder {
	return m.recorder
}

// GetTxs mocks base method.
func (m *MockTransactionProvider) GetTxs(ctx context.Context, n int) (chain.NextTxs, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetTxs", ctx, n)
	ret0, _ := ret[0].(chain.NextTxs)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetTxs indicates an expected call of GetTxs.
func (mr *MockTransactionProviderMockRecorder) GetTxs(ctx, n any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetTxs", reflect.TypeOf((*MockTransactionProvider)(nil).GetTxs), ctx, n)
}
