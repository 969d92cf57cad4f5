package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("missing"), http.StatusNotFound},
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("state"), http.StatusConflict},
		{Unavailable("down"), http.StatusServiceUnavailable},
		{Internal("boom"), http.StatusInternalServerError},
		{New(KindUnknown, "?"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.Kind.Status(); got != tc.want {
			t.Fatalf("%q: expected status %d, got %d", tc.err.Message, tc.want, got)
		}
	}
}

func TestGetKindFollowsWrappedChain(t *testing.T) {
	base := Conflict("no location yet").WithOp("session.Refresh")
	wrapped := fmt.Errorf("handler: %w", base)

	if !Is(wrapped, KindConflict) {
		t.Fatalf("expected wrapped error to report KindConflict")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected plain error to report KindUnknown")
	}
	if base.Error() != "session.Refresh: no location yet" {
		t.Fatalf("unexpected message %q", base.Error())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("sensor offline")
	err := Wrap(KindUnavailable, "GPS unavailable", cause).WithOp("session.RetryTracking")

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to stay reachable")
	}
	if err.Error() != "session.RetryTracking: GPS unavailable: sensor offline" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
