package chess

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/session"
)

var ErrConcurrentUpdate = errors.New("tutor session changed concurrently")

// SessionRecord is what the store persists for an active game.
type SessionRecord struct {
	SessionUUID string           `json:"session_uuid"`
	StudentHash string           `json:"student_hash"`
	CourseHash  string           `json:"course_hash"`
	StudentName string           `json:"student_name,omitempty"`
	Game        session.Snapshot `json:"game"`
	// Revision counts committed saves; Create stores revision 0.
	Revision int64 `json:"revision"`
}

// SessionStore keeps one active record per key. Save is a compare-and-set on
// rec.Revision: it commits only if the stored revision still equals the one rec
// was loaded at, then advances rec.Revision. Every write goes through it, so a
// difficulty change cannot be overwritten by a move computed from older state.
type SessionStore interface {
	Load(ctx context.Context, key string) (*SessionRecord, error)
	Create(ctx context.Context, key string, rec *SessionRecord, ttl time.Duration) (bool, error)
	Save(ctx context.Context, key string, rec *SessionRecord, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	rec       SessionRecord
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) getLocked(key string) (SessionRecord, bool) {
	e, ok := m.entries[key]
	if !ok {
		return SessionRecord{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return SessionRecord{}, false
	}
	return e.rec, true
}

func (m *MemoryStore) putLocked(key string, rec *SessionRecord, ttl time.Duration) {
	cp := *rec
	cp.Game.Moves = append([]string(nil), rec.Game.Moves...)
	e := memoryEntry{rec: cp}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
}

func (m *MemoryStore) Load(_ context.Context, key string) (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.getLocked(key)
	if !ok {
		return nil, nil
	}
	rec.Game.Moves = append([]string(nil), rec.Game.Moves...)
	return &rec, nil
}

func (m *MemoryStore) Create(_ context.Context, key string, rec *SessionRecord, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.getLocked(key); ok {
		return false, nil
	}
	m.putLocked(key, rec, ttl)
	return true, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, rec *SessionRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.getLocked(key)
	if !ok || cur.Revision != rec.Revision || cur.SessionUUID != rec.SessionUUID {
		return ErrConcurrentUpdate
	}
	rec.Revision++
	m.putLocked(key, rec, ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
