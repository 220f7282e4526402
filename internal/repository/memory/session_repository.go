package memory

import (
	"time"

	"assembly-dashboard-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps dashboard sessions in memory. Idle sessions expire after ttl.
type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates the repository; onEvicted (optional) observes expiry and deletion.
func NewSessionRepository(ttl time.Duration, onEvicted func(id string)) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, ttl/6)
	if onEvicted != nil {
		c.OnEvicted(func(id string, _ interface{}) { onEvicted(id) })
	}
	return &SessionRepository{cache: c}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and extends its lifetime.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	s := x.(*store.Session)
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s, true
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Count returns the number of live sessions.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
