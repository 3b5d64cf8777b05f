// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package sync

import (
	"context"
	"sync"

	"github.com/tomtom215/trackline/internal/models"
)

// MockClient is an in-memory LocationClient for tests.
type MockClient struct {
	mu         sync.Mutex
	submitted  []models.LocationRecord
	history    []models.LocationRecord
	submitErr  error
	historyErr error
	fetchCalls int

	// SubmitHook, when set, runs before Submit records anything. Tests use
	// it to block or observe in-flight submissions.
	SubmitHook func(ctx context.Context, record models.LocationRecord)
}

var _ LocationClient = (*MockClient)(nil)

// NewMockClient returns a MockClient whose history is records.
func NewMockClient(records ...models.LocationRecord) *MockClient {
	return &MockClient{history: records}
}

// SetSubmitError makes Submit fail with err. nil restores success.
func (m *MockClient) SetSubmitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitErr = err
}

// SetHistory replaces the history returned by FetchHistory.
func (m *MockClient) SetHistory(records []models.LocationRecord, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = records
	m.historyErr = err
}

// Submit implements LocationClient. Failed submissions are not recorded.
func (m *MockClient) Submit(ctx context.Context, record models.LocationRecord) error {
	if m.SubmitHook != nil {
		m.SubmitHook(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, record)
	return nil
}

// FetchHistory implements LocationClient.
func (m *MockClient) FetchHistory(ctx context.Context, owner string) ([]models.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return append([]models.LocationRecord(nil), m.history...), nil
}

// Submitted returns a copy of the accepted records.
func (m *MockClient) Submitted() []models.LocationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LocationRecord(nil), m.submitted...)
}

// FetchCalls returns how many times FetchHistory ran.
func (m *MockClient) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}
