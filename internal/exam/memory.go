package exam

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore keeps everything in maps behind one mutex. It backs unit
// tests and the "memory" driver for demos; the SQL store is the real one.
type memoryStore struct {
	mu       sync.RWMutex
	tests    map[string]Test
	attempts map[string]Attempt
	sections map[string]AttemptSection
	answers  []Answer
}

func NewInMemoryStore() Store {
	return &memoryStore{
		tests:    map[string]Test{},
		attempts: map[string]Attempt{},
		sections: map[string]AttemptSection{},
	}
}

func (m *memoryStore) PutTest(_ context.Context, t Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, fmt.Errorf("test %s: %w", id, ErrNotFound)
	}
	return stripKeys(t), nil
}

func (m *memoryStore) GetTestAdmin(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, fmt.Errorf("test %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (m *memoryStore) ListTests(_ context.Context, opts ListOpts) ([]TestSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TestSummary, 0, len(m.tests))
	q := strings.ToLower(opts.Q)
	for _, t := range m.tests {
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) NewAttempt(_ context.Context, testID, userID string, sectionIDs []string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[testID]
	if !ok {
		return Attempt{}, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if len(sectionIDs) == 0 {
		for _, s := range t.Sections {
			sectionIDs = append(sectionIDs, s.ID)
		}
	}
	a := Attempt{
		ID:        uuid.NewString(),
		TestID:    testID,
		UserID:    userID,
		Status:    StatusPending,
		StartedAt: time.Now().Unix(),
	}
	// one AttemptSection per section, same as the UNIQUE(attempt_id,
	// section_id) constraint in the SQL schema; a repeated ID would make
	// a partial attempt look complete and double-grade its questions
	seen := map[string]bool{}
	for _, sid := range sectionIDs {
		if !hasSection(t, sid) {
			return Attempt{}, fmt.Errorf("section %s: %w", sid, ErrNotFound)
		}
		if seen[sid] {
			continue
		}
		seen[sid] = true
		as := AttemptSection{ID: uuid.NewString(), AttemptID: a.ID, SectionID: sid}
		m.sections[as.ID] = as
		a.Sections = append(a.Sections, as)
	}
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *memoryStore) GetAttemptSection(_ context.Context, id string) (AttemptSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	as, ok := m.sections[id]
	if !ok {
		return AttemptSection{}, fmt.Errorf("attempt section %s: %w", id, ErrNotFound)
	}
	return as, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0)
	for _, a := range m.attempts {
		if opts.TestID != "" && a.TestID != opts.TestID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt > out[j].StartedAt
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) InsertAnswer(_ context.Context, a Answer) (Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	as, ok := m.sections[a.AttemptSectionID]
	if !ok {
		return Answer{}, fmt.Errorf("attempt section %s: %w", a.AttemptSectionID, ErrNotFound)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
	m.answers = append(m.answers, a)
	if att, ok := m.attempts[as.AttemptID]; ok && att.Status == StatusPending {
		att.Status = StatusOngoing
		m.attempts[as.AttemptID] = att
	}
	return a, nil
}

func (m *memoryStore) ListAnswers(_ context.Context, attemptID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Answer
	for _, a := range m.answers {
		if as, ok := m.sections[a.AttemptSectionID]; ok && as.AttemptID == attemptID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) FinalizeAttempt(_ context.Context, attemptID string, score int, bandVal *float64, submittedAt int64) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
	}
	if a.Status == StatusEnded {
		return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadySubmitted)
	}
	a.Status = StatusEnded
	a.Score = score
	a.OverallBand = bandVal
	a.SubmittedAt = &submittedAt
	m.attempts[attemptID] = a
	return a, nil
}

func stripKeys(t Test) Test {
	sections := make([]Section, len(t.Sections))
	copy(sections, t.Sections)
	for i := range sections {
		qs := make([]Question, len(sections[i].Questions))
		copy(qs, sections[i].Questions)
		for j := range qs {
			qs[j].AnswerKey = ""
		}
		sections[i].Questions = qs
	}
	t.Sections = sections
	return t
}

func hasSection(t Test, id string) bool {
	for _, s := range t.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

func paginate[T any](in []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []T{}
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}
