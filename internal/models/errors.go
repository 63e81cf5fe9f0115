package models

import "errors"

var (
	// ErrInvalidPattern is returned for a bad detection class or term configuration.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidInput is returned for malformed spans, records or key contents.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntegrity is returned when the sanitized document does not match the key digest.
	ErrIntegrity = errors.New("integrity violation: sanitized document altered")

	// ErrDecryption is returned for a wrong passphrase or a corrupted encrypted key.
	ErrDecryption = errors.New("decryption failed")

	// ErrUnsupportedFormat is returned for keys written in an unknown format or version.
	ErrUnsupportedFormat = errors.New("unsupported key format")

	// ErrRecordMismatch is returned when a record cannot be replayed against
	// a document that already passed the integrity check.
	ErrRecordMismatch = errors.New("record mismatch")
)
