// Package session owns the per-session state of the dashboard: the
// uploaded record sets and the current pivot configuration. The engine
// itself stays a pure function of (records, config); everything
// stateful lives here, scoped to one session ID.
package session

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/benedict-erwin/detection-reporter/internal/entities/report"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/pkg/redis"
)

// Session holds one user's working state for the life of the session.
type Session struct {
	ID        string                       `json:"id"`
	CreatedAt time.Time                    `json:"created_at"`
	Primary   *report.RecordSet            `json:"primary,omitempty"`
	Tables    map[string]*report.RecordSet `json:"tables,omitempty"`
	Config    *report.PivotConfig          `json:"config,omitempty"`
}

// Store keeps sessions in an expirable LRU, optionally mirrored to
// Redis so the worker process can load a session for async export.
type Store struct {
	cache  *lru.LRU[string, *Session]
	ttl    time.Duration
	mirror bool
}

var (
	store     *Store
	storeOnce sync.Once
)

// Init builds the singleton store. maxSessions caps memory, ttl expires
// idle sessions, mirror enables the Redis copy for workers.
func Init(maxSessions int, ttl time.Duration, mirror bool) {
	storeOnce.Do(func() {
		store = NewStore(maxSessions, ttl, mirror)
		logger.WithScope("session").Info().
			Int("max_sessions", maxSessions).
			Dur("ttl", ttl).
			Bool("mirror", mirror).
			Msg("Session store initialized")
	})
}

// GetStore returns the singleton store, nil before Init.
func GetStore() *Store {
	return store
}

// NewStore builds an independent store (tests use this directly).
func NewStore(maxSessions int, ttl time.Duration, mirror bool) *Store {
	if maxSessions <= 0 {
		maxSessions = 64
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		cache:  lru.NewLRU[string, *Session](maxSessions, nil, ttl),
		ttl:    ttl,
		mirror: mirror,
	}
}

// Create registers a fresh session and returns it.
func (s *Store) Create() *Session {
	sess := &Session{
		ID:        newSessionID(),
		CreatedAt: time.Now(),
		Tables:    make(map[string]*report.RecordSet),
	}
	s.cache.Add(sess.ID, sess)
	return sess
}

// Get resolves a session by ID, falling back to the Redis mirror when
// the local cache evicted it.
func (s *Store) Get(ctx context.Context, id string) (*Session, bool) {
	if sess, ok := s.cache.Get(id); ok {
		return sess, true
	}
	if !s.mirror {
		return nil, false
	}
	var sess Session
	if err := redis.GetJSON(ctx, mirrorKey(id), &sess); err != nil {
		return nil, false
	}
	if sess.Tables == nil {
		sess.Tables = make(map[string]*report.RecordSet)
	}
	s.cache.Add(id, &sess)
	return &sess, true
}

// Save writes the session back to the cache and the mirror. Mirror
// failures are logged, never surfaced: the local copy stays usable.
func (s *Store) Save(ctx context.Context, sess *Session) {
	s.cache.Add(sess.ID, sess)
	if !s.mirror {
		return
	}
	if err := redis.SetJSON(ctx, mirrorKey(sess.ID), sess, s.ttl); err != nil {
		logger.WithScope("session").Warn().
			Err(err).
			Str("session_id", sess.ID).
			Msg("Session mirror write failed")
	}
}

// Delete drops a session locally and from the mirror.
func (s *Store) Delete(ctx context.Context, id string) {
	s.cache.Remove(id)
	if s.mirror {
		if err := redis.Delete(ctx, mirrorKey(id)); err != nil {
			logger.WithScope("session").Warn().Err(err).Msg("Session mirror delete failed")
		}
	}
}

// Len reports the number of live sessions in the local cache.
func (s *Store) Len() int {
	return s.cache.Len()
}

func mirrorKey(id string) string {
	return "session:" + id
}

func newSessionID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	sum := md5.Sum([]byte(fmt.Sprintf("%d|%x", time.Now().UnixNano(), buf)))
	return fmt.Sprintf("sess-%x", sum[:12])
}
