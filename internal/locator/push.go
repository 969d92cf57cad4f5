package locator

import (
	"context"
	"sync"
	"time"

	"parksmart_backend/platform/logger"
)

const subscriptionBuffer = 16

// PushSource is fed by the device itself (HTTP or WebSocket frames
// carrying browser geolocation results). Only the most recent Watch
// receives pushed readings.
type PushSource struct {
	mu     sync.Mutex
	active *pushSubscription
	now    func() time.Time
	log    *logger.Logger
}

// NewPushSource creates a device-fed source.
func NewPushSource(log *logger.Logger) *PushSource {
	return &PushSource{now: time.Now, log: log}
}

// Watch starts a new subscription, closing the previous one.
func (s *PushSource) Watch(ctx context.Context, opts Options) (Subscription, error) {
	sub := &pushSubscription{
		opts: opts,
		now:  s.now,
		in:   make(chan Reading, subscriptionBuffer),
		out:  make(chan Reading, subscriptionBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	prev := s.active
	s.active = sub
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	go sub.run(ctx)
	return sub, nil
}

// Push forwards a reading to the active subscription.
func (s *PushSource) Push(ctx context.Context, r Reading) error {
	s.mu.Lock()
	sub := s.active
	s.mu.Unlock()

	if sub == nil {
		return ErrNotWatching
	}
	if r.At.IsZero() {
		r.At = s.now()
	}
	return sub.push(ctx, r)
}

// Watching reports whether a subscription is live.
func (s *PushSource) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && !s.active.closed()
}

type pushSubscription struct {
	opts Options
	now  func() time.Time

	in   chan Reading
	out  chan Reading
	done chan struct{}
	once sync.Once
}

func (p *pushSubscription) Readings() <-chan Reading { return p.out }

func (p *pushSubscription) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *pushSubscription) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *pushSubscription) push(ctx context.Context, r Reading) error {
	select {
	case <-p.done:
		return ErrNotWatching
	default:
	}
	select {
	case p.in <- r:
		return nil
	case <-p.done:
		return ErrNotWatching
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stale reports whether a fix is older than MaximumAge allows. With a zero
// MaximumAge any fix pushed into this subscription counts as fresh: it was
// received after the watch began, and the device clock may lag ours.
func (p *pushSubscription) stale(r Reading) bool {
	if p.opts.MaximumAge <= 0 {
		return false
	}
	return p.now().Sub(r.At) > p.opts.MaximumAge
}

func (p *pushSubscription) run(ctx context.Context) {
	defer close(p.out)

	var timer *time.Timer
	var timeout <-chan time.Time
	if p.opts.Timeout > 0 {
		timer = time.NewTimer(p.opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	rearm := func() {
		if timer != nil {
			timer.Reset(p.opts.Timeout)
		}
	}

	for {
		select {
		case <-ctx.Done():
			p.Close()
			return
		case <-p.done:
			return
		case r := <-p.in:
			if r.Err == nil && p.stale(r) {
				continue
			}
			if !p.deliver(ctx, r) {
				return
			}
			rearm()
		case <-timeout:
			if !p.deliver(ctx, Failure(CodeTimeout, "no position fix within timeout", p.now())) {
				return
			}
			rearm()
		}
	}
}

func (p *pushSubscription) deliver(ctx context.Context, r Reading) bool {
	select {
	case p.out <- r:
		return true
	case <-p.done:
		return false
	case <-ctx.Done():
		p.Close()
		return false
	}
}
