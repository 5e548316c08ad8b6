package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/queue"
	"github.com/iliyamo/language-tutor/internal/repository"
)

type memUsers struct {
	mu     sync.Mutex
	byMail map[string]model.User
	seq    int
}

func newMemUsers() *memUsers { return &memUsers{byMail: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	if _, ok := m.byMail[u.Email]; ok {
		return repository.ErrEmailExists
	}
	m.seq++
	u.ID = fmt.Sprintf("u%d", m.seq)
	u.CreatedAt = time.Now().UTC()
	m.byMail[u.Email] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byMail[strings.ToLower(email)]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byMail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type memLessons struct {
	rows []model.Lesson
	err  error
}

func (m *memLessons) ListPublished(_ context.Context, sortBy string) ([]model.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Lesson
	for _, l := range m.rows {
		if !l.IsSample {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch sortBy {
		case repository.LessonSortCreatedAt:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case repository.LessonSortUpdatedAt:
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (m *memLessons) GetByID(_ context.Context, id string) (model.Lesson, error) {
	for _, l := range m.rows {
		if l.ID == id {
			return l, nil
		}
	}
	return model.Lesson{}, repository.ErrNotFound
}

// memChats keeps insertion order, which doubles as creation order.
type memChats struct {
	mu       sync.Mutex
	rows     []model.ChatMessage
	lessons  map[string]bool
	seq      int
	failNext error
}

func newMemChats(lessons ...string) *memChats {
	m := &memChats{lessons: map[string]bool{}}
	for _, l := range lessons {
		m.lessons[l] = true
	}
	return m
}

func (m *memChats) Create(_ context.Context, msg *model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	if msg.LessonID != nil && !m.lessons[*msg.LessonID] {
		return repository.ErrInvalidReference
	}
	m.seq++
	msg.ID = fmt.Sprintf("m%d", m.seq)
	msg.CreatedAt = time.Unix(int64(m.seq), 0).UTC()
	m.rows = append(m.rows, *msg)
	return nil
}

func (m *memChats) match(scope model.ChatScope) []model.ChatMessage {
	var out []model.ChatMessage
	for _, r := range m.rows {
		if r.UserEmail != scope.UserEmail {
			continue
		}
		if scope.LessonID != "" && (r.LessonID == nil || *r.LessonID != scope.LessonID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *memChats) List(_ context.Context, scope model.ChatScope, limit int) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.match(scope)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memChats) Recent(_ context.Context, scope model.ChatScope, n int) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.match(scope)
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

// memProgress enforces the (user_email, lesson_id) uniqueness the schema
// provides.
type memProgress struct {
	mu      sync.Mutex
	rows    map[string]model.UserProgress
	lessons map[string]bool
	seq     int
}

func newMemProgress(lessons ...string) *memProgress {
	m := &memProgress{rows: map[string]model.UserProgress{}, lessons: map[string]bool{}}
	for _, l := range lessons {
		m.lessons[l] = true
	}
	return m
}

func (m *memProgress) Upsert(_ context.Context, p *model.UserProgress) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.lessons[p.LessonID] {
		return false, repository.ErrInvalidReference
	}
	for id, r := range m.rows {
		if r.UserEmail == p.UserEmail && r.LessonID == p.LessonID {
			r.Completed = p.Completed
			r.ProgressPercentage = p.ProgressPercentage
			r.UpdatedAt = time.Now().UTC()
			m.rows[id] = r
			*p = r
			return false, nil
		}
	}
	m.seq++
	p.ID = fmt.Sprintf("p%d", m.seq)
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = *p
	return true, nil
}

func (m *memProgress) List(_ context.Context, email, lessonID string) ([]model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.UserProgress
	for _, r := range m.rows {
		if r.UserEmail == email && (lessonID == "" || r.LessonID == lessonID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProgress) GetOwned(_ context.Context, id, email string) (model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.UserEmail != email {
		return model.UserProgress{}, repository.ErrNotFound
	}
	return r, nil
}

func (m *memProgress) Update(_ context.Context, p *model.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rows[p.ID] = *p
	return nil
}

type fakeGenerator struct {
	reply   string
	err     error
	calls   int
	history []model.ChatMessage
	message string
}

func (g *fakeGenerator) Reply(_ context.Context, history []model.ChatMessage, message string) (string, error) {
	g.calls++
	g.history = history
	g.message = message
	return g.reply, g.err
}

type fakePublisher struct {
	events []queue.ChatTurnEvent
	err    error
}

func (p *fakePublisher) PublishTurn(_ context.Context, ev queue.ChatTurnEvent) error {
	p.events = append(p.events, ev)
	return p.err
}
