package model

import "errors"

// ErrNotFound is returned when a requested entity does not exist or has
// expired.
var ErrNotFound = errors.New("entity not found")

// ErrMissingCredentials is returned when the email or password is empty.
var ErrMissingCredentials = errors.New("missing credentials")

// ErrInvalidCredentials is returned for unknown emails, missing password
// hashes and wrong passwords alike, so callers cannot tell them apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already taken")

// ErrCSRFMismatch is returned when the submitted CSRF token does not match
// the issued one.
var ErrCSRFMismatch = errors.New("csrf token mismatch")

// ErrUnknownProvider is returned for provider IDs that are not configured.
var ErrUnknownProvider = errors.New("unknown provider")
