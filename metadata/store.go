package metadata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"aguibridge/translator"
)

// DefaultTTL is how long an idle thread's metadata is retained.
const DefaultTTL = 60 * time.Minute

// DefaultSweepInterval is the cadence of the background janitor. Nothing
// upstream prescribes one; this is a memory bound, not a correctness knob.
const DefaultSweepInterval = 5 * time.Minute

// ThinkingEntry is a stored thinking record with its arrival time.
type ThinkingEntry struct {
	translator.ThinkingRecord
	Timestamp time.Time `json:"timestamp"`
}

// Metadata is the snapshot returned for one thread.
type Metadata struct {
	Thinking     []ThinkingEntry          `json:"thinking"`
	SessionStats *translator.SessionStats `json:"session_stats"`
	LastUpdated  *time.Time               `json:"lastUpdated"`
}

type threadData struct {
	thinking    []ThinkingEntry
	stats       *translator.SessionStats
	lastUpdated time.Time
}

// Store is a thread-safe, TTL-bounded metadata store.
type Store struct {
	mu      sync.Mutex
	threads map[string]*threadData
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the idle retention period.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates an empty store with DefaultTTL.
func New(opts ...Option) *Store {
	s := &Store{
		threads: make(map[string]*threadData),
		ttl:     DefaultTTL,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddThinking appends a thinking record to the thread. Implements
// translator.MetadataSink.
func (s *Store) AddThinking(threadID string, rec translator.ThinkingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.thread(threadID)
	td.thinking = append(td.thinking, ThinkingEntry{ThinkingRecord: rec, Timestamp: s.now()})
	td.lastUpdated = s.now()
}

// SetSessionStats records the latest session statistics for the thread.
// Implements translator.MetadataSink.
func (s *Store) SetSessionStats(threadID string, stats translator.SessionStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.thread(threadID)
	td.stats = &stats
	td.lastUpdated = s.now()
}

// Metadata returns a snapshot for the thread. Unknown threads return an
// empty snapshot, not an error.
func (s *Store) Metadata(threadID string) Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.threads[threadID]
	if !ok {
		return Metadata{Thinking: []ThinkingEntry{}}
	}

	thinking := make([]ThinkingEntry, len(td.thinking))
	copy(thinking, td.thinking)

	var stats *translator.SessionStats
	if td.stats != nil {
		cp := *td.stats
		stats = &cp
	}

	updated := td.lastUpdated
	return Metadata{
		Thinking:     thinking,
		SessionStats: stats,
		LastUpdated:  &updated,
	}
}

// Len returns the number of threads currently retained.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// Sweep removes threads idle for longer than the TTL and returns how many
// were evicted.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, td := range s.threads {
		if td.lastUpdated.Before(cutoff) {
			delete(s.threads, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
// Pass zero to use DefaultSweepInterval.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.log.Debug("swept idle threads", "evicted", n)
				}
			}
		}
	}()
}

// thread returns the thread's data, creating it on first write.
// Caller must hold the lock.
func (s *Store) thread(threadID string) *threadData {
	td, ok := s.threads[threadID]
	if !ok {
		td = &threadData{}
		s.threads[threadID] = td
	}
	return td
}
