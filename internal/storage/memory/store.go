package memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/rawhttpd/pkg/cmap"
	"github.com/yndnr/rawhttpd/pkg/token"
)

// Store defaults.
const (
	DefaultTTL            = 60 * time.Minute
	DefaultSweepThreshold = 1000

	// maxTokenAttempts bounds retries on a token collision.
	maxTokenAttempts = 3
)

// Removal reasons reported to Metrics.
const (
	ReasonExpired     = "expired"
	ReasonInvalidated = "invalidated"
)

// ErrTokenCollision is returned when no unused token could be generated.
var ErrTokenCollision = errors.New("memory: session token collision")

// Session is an issued session. It is never mutated; renewal issues a new
// token.
type Session[S comparable] struct {
	Token     string
	Subject   S
	ExpiresAt time.Time
}

// Active reports whether the session is still valid at now.
func (s Session[S]) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Metrics receives session lifecycle events.
type Metrics interface {
	SessionCreated()
	SessionsRemoved(reason string, n int)
}

type noopMetrics struct{}

func (noopMetrics) SessionCreated()             {}
func (noopMetrics) SessionsRemoved(string, int) {}

// SessionStore is a concurrent, expiring token to subject map.
//
// Lookup is lock-free with respect to the store; Create, InvalidateAll and
// Sweep serialize on mu because they touch both indexes.
type SessionStore[S comparable] struct {
	// Primary index: token -> session
	sessions *cmap.Map[string, Session[S]]

	// Secondary index: subject -> tokens
	subjects *SubjectIndex[S]

	ttl            time.Duration
	sweepThreshold int
	now            func() time.Time
	newToken       func() (string, error)
	metrics        Metrics

	// mu guards multi-index mutations and inserted.
	mu       sync.Mutex
	inserted int
}

// Option configures a SessionStore.
type Option func(*options)

type options struct {
	ttl            time.Duration
	sweepThreshold int
	now            func() time.Time
	newToken       func() (string, error)
	metrics        Metrics
}

// WithTTL sets the session lifetime. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithSweepThreshold sets how many insertions trigger a sweep.
// Zero or a negative value disables insertion-triggered sweeps.
func WithSweepThreshold(n int) Option {
	return func(o *options) {
		o.sweepThreshold = n
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTokenSource replaces the token generator.
func WithTokenSource(gen func() (string, error)) Option {
	return func(o *options) {
		if gen != nil {
			o.newToken = gen
		}
	}
}

// WithMetrics registers a lifecycle event sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// NewSessionStore creates an empty store.
func NewSessionStore[S comparable](opts ...Option) *SessionStore[S] {
	o := options{
		ttl:            DefaultTTL,
		sweepThreshold: DefaultSweepThreshold,
		now:            time.Now,
		newToken:       token.Generate,
		metrics:        noopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &SessionStore[S]{
		sessions:       cmap.New[string, Session[S]](),
		subjects:       NewSubjectIndex[S](),
		ttl:            o.ttl,
		sweepThreshold: o.sweepThreshold,
		now:            o.now,
		newToken:       o.newToken,
		metrics:        o.metrics,
	}
}

// TTL returns the configured session lifetime.
func (s *SessionStore[S]) TTL() time.Duration {
	return s.ttl
}

// Create issues a new session for subject and returns its token.
func (s *SessionStore[S]) Create(subject S) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		tok     string
		err     error
		created bool
	)
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		tok, err = s.newToken()
		if err != nil {
			return "", fmt.Errorf("generate session token: %w", err)
		}
		sess := Session[S]{Token: tok, Subject: subject, ExpiresAt: s.now().Add(s.ttl)}
		if s.sessions.SetIfAbsent(tok, sess) {
			created = true
			break
		}
	}
	if !created {
		return "", ErrTokenCollision
	}

	s.subjects.Add(subject, tok)
	s.metrics.SessionCreated()
	s.maybeSweepLocked()

	return tok, nil
}

// Lookup returns the active session for token. Unknown and expired tokens
// report false; an expired session is left for the sweep.
func (s *SessionStore[S]) Lookup(tok string) (Session[S], bool) {
	sess, ok := s.sessions.Get(tok)
	if !ok || !sess.Active(s.now()) {
		return Session[S]{}, false
	}
	return sess, true
}

// InvalidateAll removes every session of subject and returns how many were
// removed. Sessions of other subjects are untouched.
func (s *SessionStore[S]) InvalidateAll(subject S) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, tok := range s.subjects.Take(subject) {
		if _, ok := s.sessions.Pop(tok); ok {
			removed++
		}
	}
	if removed > 0 {
		s.metrics.SessionsRemoved(ReasonInvalidated, removed)
	}
	return removed
}

// Sweep removes every expired session and returns how many were removed.
func (s *SessionStore[S]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// Len returns the number of stored sessions, expired ones included until
// swept.
func (s *SessionStore[S]) Len() int {
	return s.sessions.Count()
}

// maybeSweepLocked counts an insertion and sweeps once the threshold is
// reached. Caller holds mu.
func (s *SessionStore[S]) maybeSweepLocked() {
	if s.sweepThreshold <= 0 {
		return
	}
	s.inserted++
	if s.inserted >= s.sweepThreshold {
		s.sweepLocked()
		s.inserted = 0
	}
}

// sweepLocked removes expired sessions. Caller holds mu.
func (s *SessionStore[S]) sweepLocked() int {
	now := s.now()
	removed := s.sessions.DeleteIf(
		func(_ string, sess Session[S]) bool {
			return !sess.Active(now)
		},
		func(tok string, sess Session[S]) {
			s.subjects.Remove(sess.Subject, tok)
		},
	)
	if removed > 0 {
		s.metrics.SessionsRemoved(ReasonExpired, removed)
	}
	return removed
}
