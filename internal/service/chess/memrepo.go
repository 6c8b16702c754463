package chess

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
)

// memrepo backs the service when DATABASE_URL is empty. Games and profiles
// live only as long as the process.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID      map[int64]*domain.TutorGame
	gamesByStudent map[string][]*domain.TutorGame
	gamesBySession map[string]*domain.TutorGame

	profiles map[string]*domain.StudentProfile
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:      make(map[int64]*domain.TutorGame),
		gamesByStudent: make(map[string][]*domain.TutorGame),
		gamesBySession: make(map[string]*domain.TutorGame),
		profiles:       make(map[string]*domain.StudentProfile),
	}
}

func (m *memrepo) InsertGame(_ context.Context, game *domain.TutorGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(game.SessionUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := cloneGame(game)
	stored.ID = m.nextID

	m.gamesByID[stored.ID] = stored
	m.gamesBySession[key] = stored
	m.gamesByStudent[game.StudentHash] = append(m.gamesByStudent[game.StudentHash], stored)
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(_ context.Context, studentHash string, limit int) ([]*domain.TutorGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.gamesByStudent[studentHash]
	items := make([]*domain.TutorGame, 0, len(list))
	for _, g := range list {
		items = append(items, cloneGame(g))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(_ context.Context, id int64, studentHash string) (*domain.TutorGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[id]
	if !ok || g.StudentHash != studentHash {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetGameBySession(_ context.Context, sessionUUID string, studentHash string) (*domain.TutorGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesBySession[strings.TrimSpace(sessionUUID)]
	if !ok || g.StudentHash != studentHash {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetProfile(_ context.Context, studentHash string, courseHash string) (*domain.StudentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[profileKey(studentHash, courseHash)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertProfile(_ context.Context, profile *domain.StudentProfile) error {
	if profile == nil {
		return nil
	}
	cp := *profile
	m.mu.Lock()
	m.profiles[profileKey(profile.StudentHash, profile.CourseHash)] = &cp
	m.mu.Unlock()
	return nil
}

func profileKey(studentHash, courseHash string) string {
	return strings.TrimSpace(studentHash) + "|" + strings.TrimSpace(courseHash)
}

func cloneGame(g *domain.TutorGame) *domain.TutorGame {
	cp := *g
	cp.Moves = append([]string(nil), g.Moves...)
	cp.Notation = append([]string(nil), g.Notation...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	return &cp
}
