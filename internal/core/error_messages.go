// Package core provides the table state engine for the data grid.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Codes are grouped by category:
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Required field: A required field is empty
//	         Action: Fill in every required column
//	         Patterns: "is required"
//
//	VAL002 - Invalid number: A number column holds something else
//	         Action: Use plain digits, an optional sign, decimal point or exponent
//	         Patterns: "must be a valid number"
//
//	VAL003 - Invalid email: An email column holds a malformed address
//	         Action: Use the form name@example.com
//	         Patterns: "must be a valid email address"
//
//	VAL004 - Invalid columns: A column set has empty, duplicate or mistyped ids
//	         Action: Give every column a unique id and a type of text, number or email
//	         Patterns: "invalid column set"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: The import exceeds the configured size limit
//	          Action: Split the file into smaller files
//	          Patterns: "file too large"
//
//	FILE002 - Invalid CSV: The file could not be parsed
//	          Action: Check quoting and delimiters
//	          Patterns: "csv parsing failed"
//
//	FILE003 - No file: No file was provided
//	          Action: Select a CSV file to import
//	          Patterns: "no file provided"
//
//	FILE004 - Empty file: The file has no header row
//	          Action: Import a CSV file with a header row
//	          Patterns: "empty file"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import in progress: Another import is still running
//	         Action: Wait for it to finish, then try again
//	         Patterns: "import already in progress"
//
//	IMP002 - Request cancelled: The request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	IMP003 - Request timeout: The request timed out
//	         Action: Try a smaller file or try again later
//	         Patterns: "context deadline exceeded"
//
// # Store Errors (GRID001-GRID099)
//
//	GRID001 - Unknown action: The requested operation does not exist
//	          Action: Check the operation name
//	          Patterns: "unknown action"
//
//	GRID002 - Invalid payload: The operation's data could not be read
//	          Action: Check the request body against the operation
//	          Patterns: "invalid action payload"
//
//	GRID003 - Snapshot: The saved table state could not be read or written
//	          Action: Check the snapshot path and its permissions
//	          Patterns: "snapshot"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownAction is returned by DecodeAction for unregistered names.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidPayload wraps JSON decoding failures of an action payload.
	ErrInvalidPayload = errors.New("invalid action payload")

	// ErrInvalidColumns is returned by ValidateColumns.
	ErrInvalidColumns = errors.New("invalid column set")

	// ErrEmptyFile marks an import source with no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge marks an import source over the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile marks an import request without a source.
	ErrNoFile = errors.New("no file provided")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: the first pattern contained in the error text wins.
var errorPatterns = []errorPattern{
	// Validation (VAL001-VAL004)
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "A required field is empty",
			Action:  "Fill in every required column",
			Code:    "VAL001",
		},
	},
	{
		pattern: "must be a valid number",
		msg: UserMessage{
			Message: "A number column holds something else",
			Action:  "Use plain digits, an optional sign, decimal point or exponent",
			Code:    "VAL002",
		},
	},
	{
		pattern: "must be a valid email address",
		msg: UserMessage{
			Message: "An email column holds a malformed address",
			Action:  "Use the form name@example.com",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid column set",
		msg: UserMessage{
			Message: "The column set is not valid",
			Action:  "Give every column a unique id and a type of text, number or email",
			Code:    "VAL004",
		},
	},

	// Files (FILE001-FILE004)
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum import size",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "csv parsing failed",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check quoting and delimiters",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Select a CSV file to import",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no header row",
			Action:  "Import a CSV file with a header row",
			Code:    "FILE004",
		},
	},

	// Import (IMP001-IMP003)
	{
		pattern: "import already in progress",
		msg: UserMessage{
			Message: "Another import is still running",
			Action:  "Wait for it to finish, then try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "IMP003",
		},
	},

	// Store (GRID001-GRID003)
	{
		pattern: "unknown action",
		msg: UserMessage{
			Message: "The requested operation does not exist",
			Action:  "Check the operation name",
			Code:    "GRID001",
		},
	},
	{
		pattern: "invalid action payload",
		msg: UserMessage{
			Message: "The operation's data could not be read",
			Action:  "Check the request body against the operation",
			Code:    "GRID002",
		},
	},
	{
		pattern: "snapshot",
		msg: UserMessage{
			Message: "The saved table state could not be read or written",
			Action:  "Check the snapshot path and its permissions",
			Code:    "GRID003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
