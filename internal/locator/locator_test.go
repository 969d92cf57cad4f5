package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"parksmart_backend/internal/geo"
	"parksmart_backend/platform/logger"
)

func receive(t *testing.T, ch <-chan Reading) Reading {
	t.Helper()
	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatalf("readings channel closed unexpectedly")
		}
		return r
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for reading")
	}
	return Reading{}
}

func expectClosed(t *testing.T, ch <-chan Reading) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("expected readings channel to close")
		}
	}
}

func TestTrackerWithoutSourceIsUnsupported(t *testing.T) {
	tr := NewTracker(nil, DefaultOptions(), logger.Discard())

	if _, err := tr.Start(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if tr.Supported() {
		t.Fatalf("expected tracker without source to be unsupported")
	}
}

func TestPushDeliversFixes(t *testing.T) {
	src := NewPushSource(logger.Discard())
	tr := NewTracker(src, DefaultOptions(), logger.Discard())
	defer tr.Stop()

	readings, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	want := geo.Coordinate{Latitude: 37.7749, Longitude: -122.4194}
	if err := src.Push(context.Background(), Fix(want, 5, time.Time{})); err != nil {
		t.Fatalf("Push returned error: %v", err)
	}

	got := receive(t, readings)
	if got.Err != nil || got.Coordinate != want {
		t.Fatalf("unexpected reading %+v", got)
	}
	if got.At.IsZero() {
		t.Fatalf("expected missing timestamp to be stamped on push")
	}
}

func TestRestartClosesPreviousSubscription(t *testing.T) {
	src := NewPushSource(logger.Discard())
	tr := NewTracker(src, DefaultOptions(), logger.Discard())
	defer tr.Stop()

	first, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	second, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}

	expectClosed(t, first)

	if err := src.Push(context.Background(), Fix(geo.Coordinate{Latitude: 1, Longitude: 1}, 0, time.Time{})); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if r := receive(t, second); r.Coordinate.Latitude != 1 {
		t.Fatalf("expected reading on the new subscription, got %+v", r)
	}
}

func TestStopReleasesSubscription(t *testing.T) {
	src := NewPushSource(logger.Discard())
	tr := NewTracker(src, DefaultOptions(), logger.Discard())

	readings, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Stop()
	expectClosed(t, readings)

	if src.Watching() {
		t.Fatalf("expected source to report no live subscription")
	}
	if err := src.Push(context.Background(), Fix(geo.Coordinate{}, 0, time.Time{})); !errors.Is(err, ErrNotWatching) {
		t.Fatalf("expected ErrNotWatching after stop, got %v", err)
	}
}

func TestPushWithoutWatchFails(t *testing.T) {
	src := NewPushSource(logger.Discard())
	if err := src.Push(context.Background(), Fix(geo.Coordinate{}, 0, time.Time{})); !errors.Is(err, ErrNotWatching) {
		t.Fatalf("expected ErrNotWatching, got %v", err)
	}
}

func TestTimeoutEmitsSensorError(t *testing.T) {
	src := NewPushSource(logger.Discard())
	opts := DefaultOptions()
	opts.Timeout = 20 * time.Millisecond
	tr := NewTracker(src, opts, logger.Discard())
	defer tr.Stop()

	readings, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	r := receive(t, readings)
	if r.Err == nil || r.Err.Code != CodeTimeout {
		t.Fatalf("expected timeout reading, got %+v", r)
	}
}

func TestZeroMaximumAgeIgnoresDeviceClockSkew(t *testing.T) {
	src := NewPushSource(logger.Discard())
	tr := NewTracker(src, DefaultOptions(), logger.Discard())
	defer tr.Stop()

	readings, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The device clock runs two seconds behind ours.
	want := geo.Coordinate{Latitude: 37.7749, Longitude: -122.4194}
	if err := src.Push(context.Background(), Fix(want, 5, time.Now().Add(-2*time.Second))); err != nil {
		t.Fatalf("Push: %v", err)
	}

	r := receive(t, readings)
	if r.Err != nil || r.Coordinate != want {
		t.Fatalf("expected lagging fix to be delivered, got %+v", r)
	}
}

func TestMaximumAgeToleratesRecentFixes(t *testing.T) {
	src := NewPushSource(logger.Discard())
	opts := DefaultOptions()
	opts.MaximumAge = time.Minute
	tr := NewTracker(src, opts, logger.Discard())
	defer tr.Stop()

	readings, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx := context.Background()
	_ = src.Push(ctx, Fix(geo.Coordinate{Latitude: 1}, 0, time.Now().Add(-time.Hour)))
	_ = src.Push(ctx, Fix(geo.Coordinate{Latitude: 2}, 0, time.Now().Add(-30*time.Second)))

	if r := receive(t, readings); r.Coordinate.Latitude != 2 {
		t.Fatalf("expected only the recent fix, got %+v", r)
	}
}

func TestSensorErrorsAreNeverDroppedAsStale(t *testing.T) {
	src := NewPushSource(logger.Discard())
	tr := NewTracker(src, DefaultOptions(), logger.Discard())
	defer tr.Stop()

	readings, _ := tr.Start(context.Background())
	_ = src.Push(context.Background(), Failure(CodePermissionDenied, "denied", time.Now().Add(-time.Hour)))

	r := receive(t, readings)
	if r.Err == nil || r.Err.Code != CodePermissionDenied {
		t.Fatalf("expected permission error, got %+v", r)
	}
}

func TestContextCancelEndsSubscription(t *testing.T) {
	src := NewPushSource(logger.Discard())
	tr := NewTracker(src, DefaultOptions(), logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	readings, err := tr.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	expectClosed(t, readings)
}

func TestParseErrorCode(t *testing.T) {
	if _, err := ParseErrorCode("timeout"); err != nil {
		t.Fatalf("expected timeout to parse: %v", err)
	}
	if _, err := ParseErrorCode("exploded"); err == nil {
		t.Fatalf("expected unknown code to fail")
	}
}
