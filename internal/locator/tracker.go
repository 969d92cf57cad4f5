package locator

import (
	"context"
	"sync"

	"parksmart_backend/platform/logger"
)

// Tracker owns the one live monitoring session.
type Tracker struct {
	source Source
	opts   Options
	log    *logger.Logger

	mu  sync.Mutex
	sub Subscription
}

// NewTracker creates a tracker over source. A nil source means the host
// has no location capability; Start then fails with ErrUnsupported.
func NewTracker(source Source, opts Options, log *logger.Logger) *Tracker {
	return &Tracker{source: source, opts: opts, log: log}
}

// Start begins monitoring, cancelling any existing session first so that
// two emission streams never overlap.
func (t *Tracker) Start(ctx context.Context) (<-chan Reading, error) {
	if t.source == nil {
		return nil, ErrUnsupported
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub != nil {
		t.sub.Close()
		t.sub = nil
	}

	sub, err := t.source.Watch(ctx, t.opts)
	if err != nil {
		return nil, err
	}
	t.sub = sub
	t.log.Debug("location tracking started", "highAccuracy", t.opts.HighAccuracy, "timeout", t.opts.Timeout, "maximumAge", t.opts.MaximumAge)
	return sub.Readings(), nil
}

// Stop releases the active session, if any.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub != nil {
		t.sub.Close()
		t.sub = nil
		t.log.Debug("location tracking stopped")
	}
}

// Options returns the watch configuration handed to the source.
func (t *Tracker) Options() Options {
	return t.opts
}

// Supported reports whether a location source is configured.
func (t *Tracker) Supported() bool {
	return t.source != nil
}
