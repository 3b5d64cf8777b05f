// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package identity

import (
	"fmt"

	"github.com/tomtom215/trackline/internal/config"
	"github.com/tomtom215/trackline/internal/logging"
)

// NewFromConfig builds the provider selected by cfg.Mode.
func NewFromConfig(cfg config.IdentityConfig) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Mode {
	case "static", "":
		p = NewStaticProvider(cfg.Token, cfg.UserID)
	case "file":
		p = NewFileProvider(cfg.TokenFile, cfg.UserID)
	case "oauth2":
		p, err = NewOAuth2Provider(OAuth2Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			RefreshToken: cfg.RefreshToken,
			UserID:       cfg.UserID,
		})
	default:
		err = fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	ev := logging.Info().Str("mode", cfg.Mode)
	if cfg.Mode == "static" && cfg.Token != "" {
		ev = ev.Str("token", logging.RedactToken(cfg.Token))
	}
	if cfg.UserID != "" {
		ev = ev.Str("user_id", logging.RedactUserID(cfg.UserID))
	}
	ev.Msg("Identity provider configured")
	return p, nil
}
