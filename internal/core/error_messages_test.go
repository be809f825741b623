package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "required field maps correctly",
			err:         ValidationError{Field: "name", Message: "Name is required"},
			wantCode:    "VAL001",
			wantMessage: "A required field is empty",
		},
		{
			name:        "invalid number maps correctly",
			err:         errors.New("Age must be a valid number"),
			wantCode:    "VAL002",
			wantMessage: "A number column holds something else",
		},
		{
			name:        "invalid email maps correctly",
			err:         errors.New("Email must be a valid email address"),
			wantCode:    "VAL003",
			wantMessage: "An email column holds a malformed address",
		},
		{
			name:        "invalid columns maps correctly",
			err:         fmt.Errorf("%w: duplicate column id %q", ErrInvalidColumns, "age"),
			wantCode:    "VAL004",
			wantMessage: "The column set is not valid",
		},
		{
			name:        "file too large maps correctly",
			err:         ErrFileTooLarge,
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum import size",
		},
		{
			name:        "parse failure maps before empty file",
			err:         errors.New("CSV parsing failed: empty file"),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "no file maps correctly",
			err:         ErrNoFile,
			wantCode:    "FILE003",
			wantMessage: "No file was provided",
		},
		{
			name:        "empty file maps correctly",
			err:         ErrEmptyFile,
			wantCode:    "FILE004",
			wantMessage: "The file has no header row",
		},
		{
			name:        "import in progress maps correctly",
			err:         ErrImportInProgress,
			wantCode:    "IMP001",
			wantMessage: "Another import is still running",
		},
		{
			name:        "cancelled maps correctly",
			err:         context.Canceled,
			wantCode:    "IMP002",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline maps correctly",
			err:         context.DeadlineExceeded,
			wantCode:    "IMP003",
			wantMessage: "Request timed out",
		},
		{
			name:        "unknown action maps correctly",
			err:         fmt.Errorf("%w: drop-table", ErrUnknownAction),
			wantCode:    "GRID001",
			wantMessage: "The requested operation does not exist",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("WRITE SNAPSHOT: disk full"),
			wantCode:    "GRID003",
			wantMessage: "The saved table state could not be read or written",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("something unexpected happened"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrImportInProgress)
	want := "Another import is still running (Code: IMP001). Wait for it to finish, then try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"known pattern", ErrNoFile, true},
		{"unknown", errors.New("random failure"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("%s: IsUserFacing() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestErrorPatterns_AllHaveCodes(t *testing.T) {
	seen := make(map[string]bool)
	for _, ep := range errorPatterns {
		if ep.msg.Code == "" || ep.msg.Message == "" || ep.msg.Action == "" {
			t.Errorf("pattern %q has an incomplete message: %+v", ep.pattern, ep.msg)
		}
		if seen[ep.msg.Code] {
			t.Errorf("code %s used twice", ep.msg.Code)
		}
		seen[ep.msg.Code] = true
	}
}
