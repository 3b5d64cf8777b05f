// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tomtom215/trackline/internal/logging"
)

// OAuth2Config configures the refresh-token flow.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RefreshToken string
	UserID       string

	// HTTPClient is used for token endpoint calls. nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// OAuth2Provider obtains tokens with an OAuth 2.0 refresh token. The
// oauth2 token source caches the access token and refreshes it shortly
// before expiry.
type OAuth2Provider struct {
	source oauth2.TokenSource
	userID string
}

// NewOAuth2Provider creates a refresh-token backed provider.
func NewOAuth2Provider(cfg OAuth2Config) (*OAuth2Provider, error) {
	if cfg.TokenURL == "" || cfg.ClientID == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("oauth2 identity: token url, client id and refresh token are required")
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// The token source outlives any single request, so it gets its own
	// context carrying only the HTTP client.
	srcCtx := context.Background()
	if cfg.HTTPClient != nil {
		srcCtx = context.WithValue(srcCtx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	return &OAuth2Provider{
		source: oc.TokenSource(srcCtx, &oauth2.Token{RefreshToken: cfg.RefreshToken}),
		userID: cfg.UserID,
	}, nil
}

// Token returns the id_token from the last refresh when the endpoint sent
// one, otherwise the access token.
func (p *OAuth2Provider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := p.source.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			logging.Ctx(ctx).Warn().
				Int("status", re.Response.StatusCode).
				Str("error_code", re.ErrorCode).
				Msg("Token refresh rejected")
		}
		return "", fmt.Errorf("%w: refresh failed: %v", ErrUnauthenticated, err)
	}
	return bearerOf(tok), nil
}

// UserID returns the configured user ID, or the sub claim of the current token.
func (p *OAuth2Provider) UserID(ctx context.Context) (string, error) {
	if p.userID != "" {
		return p.userID, nil
	}
	token, err := p.Token(ctx)
	if err != nil {
		return "", err
	}
	if sub := subjectOf(token); sub != "" {
		return sub, nil
	}
	return "", ErrNoUserID
}

func bearerOf(tok *oauth2.Token) string {
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		return idToken
	}
	return tok.AccessToken
}
