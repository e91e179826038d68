package mapi

import (
	"errors"
	"fmt"
)

// Error classes mirroring the MonetDB client exception taxonomy.
// Server errors carrying a known 6-character code prefix map onto one
// of these; everything else is operational.
var (
	// ErrOperational indicates a server-side failure outside the
	// client's control (unknown error codes, closed connections).
	ErrOperational = errors.New("operational error")

	// ErrIntegrity indicates a constraint violation.
	ErrIntegrity = errors.New("integrity constraint violated")

	// ErrDatabase indicates the server rejected a login or statement.
	ErrDatabase = errors.New("database error")

	// ErrProgramming indicates the client and server disagree about
	// protocol state.
	ErrProgramming = errors.New("programming error")

	// ErrNotSupported indicates the server requires capabilities this
	// client does not implement.
	ErrNotSupported = errors.New("not supported")
)

// errorCodes maps MonetDB error code prefixes to error classes.
var errorCodes = map[string]error{
	"42S02!": ErrOperational, // no such table
	"M0M29!": ErrIntegrity,   // INSERT INTO: UNIQUE constraint violated
	"2D000!": ErrIntegrity,   // COMMIT: failed
	"40000!": ErrIntegrity,   // DROP TABLE: FOREIGN KEY constraint violated
}

// classifyError turns a server error string, potentially carrying a
// MAPI error code prefix, into a wrapped typed error.
func classifyError(msg string) error {
	if len(msg) > 6 {
		if class, ok := errorCodes[msg[:6]]; ok {
			return fmt.Errorf("%w: %s", class, msg[6:])
		}
	}
	return fmt.Errorf("%w: %s", ErrOperational, msg)
}
