// Package session drives one parking-finder session: it consumes location
// readings, decides when to query the lookup service, runs the periodic
// refresh, and keeps the observable tracking state.
//
// All state transitions happen on the goroutine running Run. Other
// goroutines interact through commands and read copies via Snapshot.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"parksmart_backend/internal/events"
	"parksmart_backend/internal/geo"
	"parksmart_backend/internal/locator"
	"parksmart_backend/internal/lookup"
	"parksmart_backend/internal/tracking"
	"parksmart_backend/platform/apperr"
	"parksmart_backend/platform/logger"
	"parksmart_backend/platform/metrics"
)

const (
	// MessageSearchFailed is shown when the latest search fails.
	MessageSearchFailed = "Unable to update nearby parking spots."

	DefaultRefreshInterval = 60 * time.Second
)

var (
	// ErrNoLocation is returned by operations that need a position fix.
	ErrNoLocation = errors.New("no location fix yet")
	// ErrStopped is returned by commands sent after Run has returned.
	ErrStopped = errors.New("session stopped")
)

// Looker performs the combined address and parking lookup.
type Looker interface {
	Lookup(ctx context.Context, c geo.Coordinate) (lookup.Result, error)
}

// Tracker owns the location monitoring session.
type Tracker interface {
	Start(ctx context.Context) (<-chan locator.Reading, error)
	Stop()
	Options() locator.Options
	Supported() bool
}

// Config tunes the session.
type Config struct {
	RefreshInterval time.Duration
	Gate            geo.Gate
	// StartHidden starts the session with the display in the background.
	StartHidden bool
}

type commandKind int

const (
	cmdRefresh commandKind = iota
	cmdRetry
	cmdVisibility
)

type command struct {
	kind    commandKind
	visible bool
	reply   chan error
}

type queryResult struct {
	seq        uint64
	coordinate geo.Coordinate
	forced     bool
	result     lookup.Result
	err        error
}

// Session is the parking-finder orchestrator.
type Session struct {
	looker   Looker
	tracker  Tracker
	bus      events.Bus
	log      *logger.Logger
	metrics  *metrics.Recorder
	gate     geo.Gate
	interval time.Duration
	now      func() time.Time

	cmds    chan command
	results chan queryResult
	done    chan struct{}
	running chan struct{}
	runOnce sync.Once

	mu       sync.RWMutex
	snapshot tracking.State

	// Owned by the Run goroutine.
	st          tracking.State
	readings    <-chan locator.Reading
	timer       *time.Timer
	seq         uint64
	pending     *geo.Coordinate
	cancelQuery context.CancelFunc
	lastQuery   *geo.Coordinate
}

// New creates a session. Call Run to start it.
func New(looker Looker, tracker Tracker, bus events.Bus, log *logger.Logger, rec *metrics.Recorder, cfg Config) *Session {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Gate.Threshold <= 0 {
		cfg.Gate = geo.NewGate(geo.DefaultMovementThreshold)
	}

	opts := tracker.Options()
	st := tracking.State{
		Visible:   !cfg.StartHidden,
		Supported: tracker.Supported(),
		Sensor: tracking.SensorOptions{
			HighAccuracy: opts.HighAccuracy,
			TimeoutMs:    opts.Timeout.Milliseconds(),
			MaximumAgeMs: opts.MaximumAge.Milliseconds(),
		},
	}

	return &Session{
		looker:   looker,
		tracker:  tracker,
		bus:      bus,
		log:      log,
		metrics:  rec,
		gate:     cfg.Gate,
		interval: cfg.RefreshInterval,
		now:      time.Now,
		cmds:     make(chan command),
		results:  make(chan queryResult, 1),
		done:     make(chan struct{}),
		running:  make(chan struct{}),
		st:       st,
		snapshot: st.Clone(),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() tracking.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Run starts tracking and processes events until ctx is cancelled. It
// releases the location subscription, the refresh timer and any in-flight
// query on every exit path.
func (s *Session) Run(ctx context.Context) error {
	started := false
	s.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("session already running")
	}
	close(s.running)
	defer close(s.done)
	defer s.shutdown()

	_ = s.startTracking(ctx)
	s.publishState(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-s.readings:
			if !ok {
				s.readings = nil
				s.st.Tracking = false
				s.publishState(ctx)
				continue
			}
			s.handleReading(ctx, r)
		case <-s.timerC():
			s.handleTick(ctx)
		case cmd := <-s.cmds:
			cmd.reply <- s.handleCommand(ctx, cmd)
		case res := <-s.results:
			s.handleResult(ctx, res)
		}
	}
}

// Refresh issues a forced query for the last known coordinate.
func (s *Session) Refresh(ctx context.Context) error {
	return s.send(ctx, command{kind: cmdRefresh})
}

// RetryTracking restarts location monitoring.
func (s *Session) RetryTracking(ctx context.Context) error {
	return s.send(ctx, command{kind: cmdRetry})
}

// SetVisible records whether the display is in the foreground. Only the
// periodic refresh is gated on visibility.
func (s *Session) SetVisible(ctx context.Context, visible bool) error {
	return s.send(ctx, command{kind: cmdVisibility, visible: visible})
}

// Directions returns the navigation URL for a candidate of the current
// outcome, starting from the last known coordinate.
func (s *Session) Directions(id string) (string, error) {
	snap := s.Snapshot()
	if snap.LastCoordinate == nil {
		return "", noLocation("session.Directions")
	}
	candidate, ok := snap.Outcome.Candidate(id)
	if !ok {
		return "", apperr.NotFound("parking spot not found").WithOp("session.Directions")
	}
	return geo.DirectionsURL(*snap.LastCoordinate, candidate.Name, candidate.ExternalMapURI), nil
}

func (s *Session) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case <-s.running:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handleCommand(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdRefresh:
		if s.st.LastCoordinate == nil {
			return noLocation("session.Refresh")
		}
		s.maybeQuery(ctx, *s.st.LastCoordinate, true)
		s.publishState(ctx)
		return nil
	case cmdRetry:
		err := s.startTracking(ctx)
		s.publishState(ctx)
		return err
	case cmdVisibility:
		if s.st.Visible == cmd.visible {
			return nil
		}
		s.st.Visible = cmd.visible
		s.publishState(ctx)
		return nil
	default:
		return apperr.Internal("unknown session command")
	}
}

// startTracking (re)starts monitoring. The previous subscription is
// released by the tracker before the new one begins.
func (s *Session) startTracking(ctx context.Context) error {
	if !s.tracker.Supported() {
		s.st.Error = locator.MessageUnsupported
		s.st.Tracking = false
		return apperr.Wrap(apperr.KindUnavailable, locator.MessageUnsupported, locator.ErrUnsupported).WithOp("session.RetryTracking")
	}

	readings, err := s.tracker.Start(ctx)
	if err != nil {
		s.log.Error("location tracking failed to start", "error", err)
		s.readings = nil
		s.st.Tracking = false
		s.st.PermissionDenied = true
		s.st.Error = locator.MessageSensorFailure
		return apperr.Wrap(apperr.KindUnavailable, locator.MessageSensorFailure, err).WithOp("session.RetryTracking")
	}

	s.readings = readings
	s.st.Tracking = true
	s.st.Loading = true
	return nil
}

func (s *Session) handleReading(ctx context.Context, r locator.Reading) {
	if r.Err != nil {
		s.log.SensorFailure(string(r.Err.Code), r.Err.Message)
		s.metrics.SensorError(string(r.Err.Code))
		s.st.PermissionDenied = true
		s.settleLoading()
		s.st.Error = locator.MessageSensorFailure
		s.bus.Publish(ctx, events.SensorFailed{
			BaseEvent: events.NewBaseEventAt(s.now()),
			Code:      string(r.Err.Code),
			Message:   r.Err.Message,
		})
		s.publishState(ctx)
		return
	}

	c := r.Coordinate
	now := s.now()
	s.st.LastCoordinate = &c
	s.st.Accuracy = r.Accuracy
	s.st.LastSync = &now
	s.st.PermissionDenied = false
	s.settleLoading()
	s.armTimer()

	s.bus.Publish(ctx, events.LocationFixed{
		BaseEvent:  events.NewBaseEventAt(s.now()),
		Coordinate: c,
		Accuracy:   r.Accuracy,
	})

	s.maybeQuery(ctx, c, false)
	s.publishState(ctx)
}

// settleLoading ends the wait for a first reading. Loading stays set
// while a lookup is in flight.
func (s *Session) settleLoading() {
	if s.pending == nil {
		s.st.Loading = false
	}
}

func (s *Session) handleTick(ctx context.Context) {
	s.armTimer()
	if !s.st.Visible || s.st.LastCoordinate == nil {
		return
	}
	s.maybeQuery(ctx, *s.st.LastCoordinate, true)
	s.publishState(ctx)
}

// maybeQuery issues a lookup when the movement gate allows it. A pending
// query's coordinate stands in for the last queried one so that jitter
// does not keep superseding an in-flight lookup.
func (s *Session) maybeQuery(ctx context.Context, c geo.Coordinate, forced bool) {
	reference := s.lastQuery
	if s.pending != nil {
		reference = s.pending
	}
	if !s.gate.ShouldQuery(reference, c, forced) {
		return
	}

	if s.cancelQuery != nil {
		s.cancelQuery()
	}
	s.seq++
	seq := s.seq
	qctx, cancel := context.WithCancel(ctx)
	s.cancelQuery = cancel
	pending := c
	s.pending = &pending

	if forced {
		s.st.Refreshing = true
	} else {
		s.st.Loading = true
	}

	s.log.QueryIssued(seq, c.Latitude, c.Longitude, forced)
	s.metrics.QueryIssued(forced)
	s.bus.Publish(ctx, events.SearchStarted{
		BaseEvent:  events.NewBaseEventAt(s.now()),
		Seq:        seq,
		Coordinate: c,
		Forced:     forced,
	})

	go func() {
		res, err := s.looker.Lookup(qctx, c)
		select {
		case s.results <- queryResult{seq: seq, coordinate: c, forced: forced, result: res, err: err}:
		case <-s.done:
		}
	}()
}

func (s *Session) handleResult(ctx context.Context, res queryResult) {
	if res.seq != s.seq {
		s.log.QueryDiscarded(res.seq, s.seq)
		s.metrics.QueryDiscarded()
		return
	}

	if s.cancelQuery != nil {
		s.cancelQuery()
		s.cancelQuery = nil
	}
	s.pending = nil
	s.st.Loading = false
	s.st.Refreshing = false

	if res.err != nil {
		s.log.Warn("parking search failed", "seq", res.seq, "error", res.err)
		s.metrics.QueryFailed()
		s.st.Error = MessageSearchFailed
		s.bus.Publish(ctx, events.SearchFailed{
			BaseEvent:  events.NewBaseEventAt(s.now()),
			Seq:        res.seq,
			Coordinate: res.coordinate,
			Reason:     res.err.Error(),
		})
		s.publishState(ctx)
		return
	}

	c := res.coordinate
	now := s.now()
	outcome := res.result.Outcome
	s.lastQuery = &c
	s.st.LastQueryCoordinate = &c
	s.st.LastSync = &now
	s.st.Address = res.result.Address
	s.st.Outcome = &outcome
	s.st.Error = ""
	s.metrics.SetCandidates(len(outcome.Candidates))

	s.bus.Publish(ctx, events.SearchCompleted{
		BaseEvent:  events.NewBaseEventAt(s.now()),
		Seq:        res.seq,
		Coordinate: c,
		Address:    res.result.Address,
		Outcome:    outcome,
	})
	s.publishState(ctx)
}

// publishState bumps the version, exposes a copy to readers and notifies
// StateChanged subscribers synchronously so they observe versions in order.
func (s *Session) publishState(ctx context.Context) {
	s.st.Version++
	snap := s.st.Clone()

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if err := s.bus.PublishSync(ctx, events.StateChanged{
		BaseEvent: events.NewBaseEventAt(s.now()),
		State:     snap,
	}); err != nil {
		s.log.Warn("state change handler failed", "error", err)
	}
}

func (s *Session) armTimer() {
	if s.timer == nil {
		s.timer = time.NewTimer(s.interval)
		return
	}
	s.timer.Stop()
	s.timer.Reset(s.interval)
}

func (s *Session) timerC() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

func (s *Session) shutdown() {
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancelQuery != nil {
		s.cancelQuery()
		s.cancelQuery = nil
	}
	s.tracker.Stop()
	s.st.Tracking = false
	s.st.Loading = false
	s.st.Refreshing = false

	snap := s.st.Clone()
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

func noLocation(op string) error {
	return apperr.Wrap(apperr.KindConflict, "no location fix yet", ErrNoLocation).WithOp(op)
}
