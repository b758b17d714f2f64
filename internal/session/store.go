package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/raedapplebanon-spec/route-map/internal/cluster"
	"github.com/raedapplebanon-spec/route-map/internal/metrics"
	"github.com/raedapplebanon-spec/route-map/internal/planner"
)

// DefaultIdleTTL is how long an untouched session is kept.
const DefaultIdleTTL = time.Hour

// Factory supplies the collaborators of new sessions. It is called per
// session so configuration changes apply to sessions created afterwards.
type Factory func() (*cluster.Clusterer, *planner.Planner)

// Store keeps live sessions keyed by ID and expires idle ones.
type Store struct {
	sessions *cache.Cache
	factory  Factory
	logger   *slog.Logger
}

func NewStore(idleTTL time.Duration, factory Factory, logger *slog.Logger) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		sessions: cache.New(idleTTL, idleTTL/2),
		factory:  factory,
		logger:   logger,
	}
	s.sessions.OnEvicted(func(id string, v interface{}) {
		v.(*Session).Close()
		metrics.ActiveSessions.Dec()
		s.logger.Info("session removed", "session_id", id)
	})
	return s
}

// Create starts a new session with a random ID.
func (s *Store) Create() *Session {
	clusterer, p := s.factory()
	sess := New(uuid.NewString(), clusterer, p, s.logger)
	s.sessions.SetDefault(sess.ID, sess)
	metrics.ActiveSessions.Inc()
	s.logger.Info("session created", "session_id", sess.ID)
	return sess
}

// Get returns the session and extends its idle deadline. Replace only
// succeeds while the entry is still live, so a session the janitor has
// already evicted is never written back.
func (s *Store) Get(id string) (*Session, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	if err := s.sessions.Replace(id, sess, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	if sess.isClosed() {
		return nil, false
	}
	return sess, true
}

// Delete closes and removes the session. It reports whether it existed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.sessions.Get(id); !ok {
		return false
	}
	s.sessions.Delete(id)
	return true
}

// Count returns the number of sessions, including expired ones not yet swept.
func (s *Store) Count() int {
	return s.sessions.ItemCount()
}
