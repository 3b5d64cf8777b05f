// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package identity

import (
	"context"
	"os"
	"strings"
	"time"
)

// StaticProvider serves a fixed token from configuration.
type StaticProvider struct {
	token  string
	userID string
	now    func() time.Time
}

// NewStaticProvider creates a provider for token. userID overrides the sub
// claim when non-empty.
func NewStaticProvider(token, userID string) *StaticProvider {
	return &StaticProvider{token: strings.TrimSpace(token), userID: userID, now: time.Now}
}

// Token returns the configured token unless it is empty or expired.
func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkToken(p.token, p.now()); err != nil {
		return "", err
	}
	return p.token, nil
}

// UserID returns the configured user ID, or the token's sub claim.
func (p *StaticProvider) UserID(ctx context.Context) (string, error) {
	if p.userID != "" {
		return p.userID, nil
	}
	if sub := subjectOf(p.token); sub != "" {
		return sub, nil
	}
	return "", ErrNoUserID
}

// FileProvider re-reads a token file on every call, so the host can rotate
// the token without restarting the engine.
type FileProvider struct {
	path   string
	userID string
	now    func() time.Time
}

// NewFileProvider creates a provider reading path.
func NewFileProvider(path, userID string) *FileProvider {
	return &FileProvider{path: path, userID: userID, now: time.Now}
}

func (p *FileProvider) read() (string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Token returns the current file contents. A missing or unreadable file
// means the user is signed out.
func (p *FileProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token, err := p.read()
	if err != nil {
		return "", unauthenticated(err)
	}
	if err := checkToken(token, p.now()); err != nil {
		return "", err
	}
	return token, nil
}

// UserID returns the configured user ID, or the sub claim of the current token.
func (p *FileProvider) UserID(ctx context.Context) (string, error) {
	if p.userID != "" {
		return p.userID, nil
	}
	token, err := p.read()
	if err != nil {
		return "", unauthenticated(err)
	}
	if sub := subjectOf(token); sub != "" {
		return sub, nil
	}
	return "", ErrNoUserID
}
