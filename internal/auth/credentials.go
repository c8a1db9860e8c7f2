// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore verifies the single configured admin login. The
// password is hashed once at startup so requests never see plaintext.
type CredentialStore struct {
	username     string
	passwordHash []byte
}

// NewCredentialStore hashes the configured admin password with bcrypt
// cost 12.
func NewCredentialStore(username, password string) (*CredentialStore, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &CredentialStore{username: username, passwordHash: hash}, nil
}

// Verify checks a username/password pair. Both comparisons run on every
// call so a wrong username costs the same as a wrong password.
func (s *CredentialStore) Verify(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	return usernameMatch && passwordMatch
}
