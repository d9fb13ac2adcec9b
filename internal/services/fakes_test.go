package services

import (
	"context"
	"sort"
	"sync"

	"ledger/internal/core"
)

// memStore is an in-memory TransactionStore + CategoryStore for tests.
type memStore struct {
	mu           sync.Mutex
	transactions map[string]core.Transaction
	categories   map[string]core.Category
	nameLookups  int
}

func newMemStore() *memStore {
	return &memStore{
		transactions: make(map[string]core.Transaction),
		categories:   make(map[string]core.Category),
	}
}

func (m *memStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = t
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id, ownerID string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.transactions[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return core.ErrNotFound
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *memStore) DeleteTransaction(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *memStore) ListTransactions(_ context.Context, ownerID string, f core.Filter) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, t := range m.transactions {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return f.Apply(out), nil
}

func (m *memStore) CreateCategory(_ context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) GetCategory(_ context.Context, id, ownerID string) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.OwnerID != ownerID {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListCategories(_ context.Context, ownerID string, typ core.TransactionType) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Category
	for _, c := range m.categories {
		if c.OwnerID == ownerID && (typ == "" || c.Type == typ) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateCategory(_ context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.categories[c.ID]
	if !ok || existing.OwnerID != c.OwnerID {
		return core.ErrNotFound
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) CategoryExists(_ context.Context, ownerID, name string, typ core.TransactionType) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == ownerID && c.Name == name && c.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CategoryName(_ context.Context, categoryID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nameLookups++
	c, ok := m.categories[categoryID]
	if !ok {
		return "", false
	}
	return c.Name, true
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, transactionID, ownerID, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errFailedPublish
	}
	p.events = append(p.events, action+":"+transactionID+":"+ownerID)
	return nil
}

type publishError string

func (e publishError) Error() string { return string(e) }

const errFailedPublish = publishError("publish failed")
