package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/andys/ifsc_enricher/session"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// CookieName holds the session id.
	CookieName = "ifsc_session"
	// DefaultSessionTTL is how long an unused session is kept.
	DefaultSessionTTL = 2 * time.Hour
	// DefaultMaxSessions caps the number of sessions held at once.
	DefaultMaxSessions = 1000
)

type sessionEntry struct {
	sess     *session.Session
	lastSeen time.Time
}

// SessionStore keeps sessions in memory. Sessions idle for longer than the
// TTL are dropped, and the least recently used one makes room when the store
// is full.
type SessionStore struct {
	mu       sync.Mutex
	column   string
	ttl      time.Duration
	max      int
	now      func() time.Time
	sessions map[string]*sessionEntry
}

func NewSessionStore(column string, ttl time.Duration, max int) *SessionStore {
	return &SessionStore{
		column:   column,
		ttl:      ttl,
		max:      max,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Get returns the session of the request, starting a new one and setting
// the cookie when the request has none or its session expired.
func (st *SessionStore) Get(c echo.Context) *session.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.expire(now)

	if cookie, err := c.Cookie(CookieName); err == nil {
		if entry, ok := st.sessions[cookie.Value]; ok {
			entry.lastSeen = now
			return entry.sess
		}
	}

	if st.max > 0 {
		for len(st.sessions) >= st.max {
			st.evictOldest()
		}
	}

	id := uuid.NewString()
	sess := session.New(st.column)
	st.sessions[id] = &sessionEntry{sess: sess, lastSeen: now}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (st *SessionStore) expire(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for id, entry := range st.sessions {
		if now.Sub(entry.lastSeen) > st.ttl {
			entry.sess.Close()
			delete(st.sessions, id)
		}
	}
}

func (st *SessionStore) evictOldest() {
	var oldestID string
	var oldest *sessionEntry
	for id, entry := range st.sessions {
		if oldest == nil || entry.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, entry
		}
	}
	if oldest != nil {
		oldest.sess.Close()
		delete(st.sessions, oldestID)
	}
}

// Len returns the number of sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
