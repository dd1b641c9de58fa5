package history

import (
	"context"
	"sync"
)

type memRepo struct {
	mu      sync.Mutex
	maxLen  int
	order   []string // newest first
	records map[string]*HandRecord
}

func NewMemoryRepo(maxLen int) Repo {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	return &memRepo{
		maxLen:  maxLen,
		records: make(map[string]*HandRecord),
	}
}

func (m *memRepo) Append(ctx context.Context, rec *HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; !ok {
		m.order = append([]string{rec.ID}, m.order...)
	}
	m.records[rec.ID] = rec

	// 与 Redis 行为对齐：超出容量的旧记录一并删除
	for len(m.order) > m.maxLen {
		oldest := m.order[len(m.order)-1]
		m.order = m.order[:len(m.order)-1]
		delete(m.records, oldest)
	}

	return nil
}

func (m *memRepo) Get(ctx context.Context, id string) (*HandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *memRepo) Recent(ctx context.Context, n int) ([]*HandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n > len(m.order) {
		n = len(m.order)
	}
	if n < 0 {
		n = 0
	}

	out := make([]*HandRecord, 0, n)
	for _, id := range m.order[:n] {
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *memRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.order)), nil
}
