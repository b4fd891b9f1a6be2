package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("post", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("text", "text is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("group", "cats"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("not the author"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("login required"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "ValidationErrors wraps ErrValidation",
			err:       ValidationErrors{ValidationFailed("group", "unknown group")},
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading profile: %w", NotFound("user", "nemo")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("post", "42"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthenticated",
			err:       Forbidden("not the author"),
			target:    ErrUnauthenticated,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("post", "42"),
			wantMessage: "post not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("text", "text is required"),
			wantMessage: "text is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("group", "cats"),
			wantMessage: "group conflict with id cats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("post", "42")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationErrors_ByField(t *testing.T) {
	errs := ValidationErrors{
		ValidationFailed("text", "text is required"),
		ValidationFailed("group", "unknown group"),
		ValidationFailed("text", "second text message"),
	}

	got := errs.ByField()
	if len(got) != 2 {
		t.Fatalf("ByField() has %d entries, want 2", len(got))
	}
	if got["text"] != "text is required" {
		t.Errorf("ByField()[text] = %q, want the first message", got["text"])
	}
	if got["group"] != "unknown group" {
		t.Errorf("ByField()[group] = %q, want %q", got["group"], "unknown group")
	}

	var asSet ValidationErrors
	if !errors.As(fmt.Errorf("creating post: %w", errs), &asSet) {
		t.Fatal("errors.As should extract ValidationErrors through wrapping")
	}
	if len(asSet) != 3 {
		t.Errorf("extracted %d errors, want 3", len(asSet))
	}
}
