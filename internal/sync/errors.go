// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package sync

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/trackline/internal/metrics"
)

// ErrorKind classifies a failed remote call.
type ErrorKind int

const (
	// KindUnauthenticated: no token, or the server answered 401/403.
	KindUnauthenticated ErrorKind = iota + 1
	// KindNetwork: transport failure, timeout or open circuit. Transient.
	KindNetwork
	// KindServerRejected: any other non-2xx answer, or an unreadable body.
	KindServerRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNetwork:
		return "network"
	case KindServerRejected:
		return "server_rejected"
	default:
		return "unknown"
	}
}

// Sentinels matched with errors.Is against a *SyncError of the same kind.
var (
	ErrUnauthenticated = errors.New("sync: unauthenticated")
	ErrNetwork         = errors.New("sync: network failure")
	ErrServerRejected  = errors.New("sync: rejected by server")
)

// Scheduler errors.
var (
	ErrInvalidInterval = errors.New("sync: interval must be between 1 and 720 minutes")
	ErrMissingOwner    = errors.New("sync: owner identity is required")
	ErrNoFixAvailable  = errors.New("sync: no location fix available")
	ErrNotConfigured   = errors.New("sync: remote base url is not configured")
)

// maxErrorBody bounds how much of a rejection body is kept.
const maxErrorBody = 64 * 1024

// SyncError is the typed error returned by LocationClient operations.
type SyncError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *SyncError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s: %s: status %d: %s", e.Op, e.Kind, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d", e.Op, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *SyncError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNetwork) and friends match on Kind.
func (e *SyncError) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServerRejected:
		return e.Kind == KindServerRejected
	}
	return false
}

// Retryable reports whether the next cycle may succeed without user action.
func (e *SyncError) Retryable() bool {
	return e.Kind == KindNetwork || (e.Kind == KindServerRejected && e.StatusCode >= 500)
}

// kindForStatus maps a non-2xx status code onto the taxonomy.
func kindForStatus(code int) ErrorKind {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return KindUnauthenticated
	}
	return KindServerRejected
}

// resultLabel is the metrics label for err.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrUnauthenticated):
		return metrics.ResultUnauthenticated
	case errors.Is(err, ErrNetwork):
		return metrics.ResultNetwork
	case errors.Is(err, ErrServerRejected):
		return metrics.ResultRejected
	case errors.Is(err, ErrNoFixAvailable):
		return metrics.ResultNoFix
	default:
		return metrics.ResultError
	}
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
