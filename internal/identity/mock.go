// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package identity

import (
	"context"
	"sync"
)

// MockProvider is a Provider with settable results, for tests in packages
// that consume identities.
type MockProvider struct {
	mu         sync.Mutex
	token      string
	userID     string
	tokenErr   error
	userIDErr  error
	tokenCalls int
}

// NewMockProvider returns a provider that always succeeds with token and userID.
func NewMockProvider(token, userID string) *MockProvider {
	return &MockProvider{token: token, userID: userID}
}

// SetTokenError makes Token fail with err. nil restores success.
func (m *MockProvider) SetTokenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenErr = err
}

// SetUserIDError makes UserID fail with err. nil restores success.
func (m *MockProvider) SetUserIDError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userIDErr = err
}

// Token implements Provider.
func (m *MockProvider) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenCalls++
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return m.token, nil
}

// UserID implements Provider.
func (m *MockProvider) UserID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userIDErr != nil {
		return "", m.userIDErr
	}
	return m.userID, nil
}

// TokenCalls returns how many times Token was called.
func (m *MockProvider) TokenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCalls
}
