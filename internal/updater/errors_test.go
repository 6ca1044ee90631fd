package updater

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := newError(ErrCodeNoUpdate, "no update available", nil)
	if got := plain.Error(); got != "NO_UPDATE: no update available" {
		t.Errorf("Error() = %q", got)
	}

	cause := fmt.Errorf("connection refused")
	wrapped := newError(ErrCodeCheckFailed, "release lookup failed", cause)
	if got := wrapped.Error(); got != "CHECK_FAILED: release lookup failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestDisabledServiceRefusesOperations(t *testing.T) {
	svc := &service{disabledReason: "binary directory is read-only", state: StateIdle}

	if svc.IsEnabled() {
		t.Fatal("Service with a disabled reason should report disabled")
	}

	var updErr *Error
	if _, err := svc.CheckForUpdate(t.Context()); !errors.As(err, &updErr) || updErr.Code != ErrCodeDisabled {
		t.Errorf("CheckForUpdate on disabled service = %v, want DISABLED", err)
	}
	if err := svc.ApplyUpdate(t.Context()); !errors.As(err, &updErr) || updErr.Code != ErrCodeDisabled {
		t.Errorf("ApplyUpdate on disabled service = %v, want DISABLED", err)
	}
	if err := svc.Rollback(t.Context()); !errors.As(err, &updErr) || updErr.Code != ErrCodeDisabled {
		t.Errorf("Rollback on disabled service = %v, want DISABLED", err)
	}
}
