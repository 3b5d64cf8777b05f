// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package logging

import "strings"

// Redaction helpers for identity fields. Owner identities are usually email
// addresses and must not reach logs in full.

// RedactToken keeps the first and last 4 characters of a credential.
//
//	"eyJhbGciOiJSUzI1NiJ9.e30.sig" -> "eyJh....sig"
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactUserID keeps the first and last 4 characters of a user ID.
func RedactUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// RedactOwner masks the local part of an email-style owner identity and
// falls back to RedactUserID for anything else.
//
//	"alice@example.com" -> "al***@example.com"
func RedactOwner(owner string) string {
	at := strings.LastIndex(owner, "@")
	if at <= 0 {
		return RedactUserID(owner)
	}
	local, domain := owner[:at], owner[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}
