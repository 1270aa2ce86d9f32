// Package retention wipes the chat history once per week.
//
// There is no background timer: request handlers call MaybeSweep and the first
// call after a boundary performs the purge.
package retention

import (
	"context"
	"sync"
	"time"

	"portalchat/internal/logging"
	"portalchat/internal/metrics"
)

// Purger empties the message history and reports how many messages were removed.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

type Sweeper struct {
	purger  Purger
	weekday time.Weekday
	hour    int
	loc     *time.Location
	now     func() time.Time

	mu     sync.Mutex
	marker time.Time
}

type Option func(*Sweeper)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Sweeper) { s.loc = loc }
}

// NewSweeper purges at the start of hour on weekday. The marker starts at the most
// recent boundary, so a restart never wipes history that an earlier process kept.
func NewSweeper(p Purger, weekday time.Weekday, hour int, opts ...Option) *Sweeper {
	s := &Sweeper{
		purger:  p,
		weekday: weekday,
		hour:    hour,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.marker = s.Boundary(s.now())
	return s
}

// Boundary returns the latest weekly boundary at or before t.
func (s *Sweeper) Boundary(t time.Time) time.Time {
	t = t.In(s.loc)
	b := time.Date(t.Year(), t.Month(), t.Day(), s.hour, 0, 0, 0, s.loc)
	back := (int(t.Weekday()) - int(s.weekday) + 7) % 7
	b = b.AddDate(0, 0, -back)
	if b.After(t) {
		b = b.AddDate(0, 0, -7)
	}
	return b
}

// MaybeSweep purges when a boundary has passed since the last purge. Concurrent
// callers serialize on the marker, so one crossing yields exactly one purge.
// A failed purge leaves the marker alone and the next call retries.
func (s *Sweeper) MaybeSweep(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.Boundary(s.now())
	if !b.After(s.marker) {
		return false, nil
	}

	n, err := s.purger.Purge(ctx)
	if err != nil {
		logging.Error().Err(err).Time("boundary", b).Msg("weekly chat purge failed")
		return false, err
	}
	s.marker = b
	metrics.MessagesPurged.Add(float64(n))
	logging.Info().Int("purged", n).Time("boundary", b).Msg("weekly chat purge done")
	return true, nil
}

// LastPurge returns the boundary of the most recent purge (or the start-up boundary).
func (s *Sweeper) LastPurge() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker
}
