package api

import (
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"

	"github.com/poselink/poselink/internal/updater"
)

func TestMapUpdateErrorStatusCodes(t *testing.T) {
	cases := map[string]int{
		updater.ErrCodeInvalidState:   409,
		updater.ErrCodeNoUpdate:       400,
		updater.ErrCodeNotFound:       404,
		updater.ErrCodeNoBackup:       404,
		updater.ErrCodeDisabled:       503,
		updater.ErrCodeApplyFailed:    500,
		updater.ErrCodeDownloadFailed: 500,
	}

	for code, want := range cases {
		err := mapUpdateError(&updater.Error{Code: code, Message: "release lookup failed"})
		var statusErr huma.StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("%s: mapUpdateError returned non-status error %T", code, err)
		}
		if got := statusErr.GetStatus(); got != want {
			t.Errorf("%s mapped to %d, want %d", code, got, want)
		}
	}

	// Non-updater errors fall through to 500.
	err := mapUpdateError(errors.New("disk full"))
	var statusErr huma.StatusError
	if !errors.As(err, &statusErr) || statusErr.GetStatus() != 500 {
		t.Errorf("Plain error should map to 500, got %v", err)
	}
}
