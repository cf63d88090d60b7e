// Package errors tests for error code handling.
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrNotFound, "contact not found")
	want := "[NOT_FOUND] contact not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(ErrStorage, "put contact", stderrors.New("disk full"))
	want = "[STORAGE_ERROR] put contact: disk full"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrNetwork, "remote write", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIs_FindsCodeThroughChain(t *testing.T) {
	err := Wrap(ErrDuplicate, "insert contact", stderrors.New("duplicate key"))
	outer := fmt.Errorf("upload phase: %w", err)

	if !Is(outer, ErrDuplicate) {
		t.Error("Is should find ErrDuplicate through fmt wrapping")
	}
	if Is(outer, ErrNetwork) {
		t.Error("Is matched the wrong code")
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []ErrorCode{ErrAuth, ErrPermission, ErrValidation, ErrConstraint, ErrDuplicate, ErrForeignKey}
	for _, code := range terminal {
		if !IsTerminal(New(code, "x")) {
			t.Errorf("IsTerminal(%s) = false, want true", code)
		}
	}

	transient := []ErrorCode{ErrNetwork, ErrTimeout, ErrInternal, ErrSyncFailed}
	for _, code := range transient {
		if IsTerminal(New(code, "x")) {
			t.Errorf("IsTerminal(%s) = true, want false", code)
		}
	}

	if IsTerminal(stderrors.New("plain error")) {
		t.Error("plain errors are not terminal")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrTimeout, "x")); got != ErrTimeout {
		t.Errorf("CodeOf = %s, want ErrTimeout", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != ErrInternal {
		t.Errorf("CodeOf(plain) = %s, want ErrInternal", got)
	}
}
