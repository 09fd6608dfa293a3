package dataapi

import (
	"context"
	"sort"
	"sync"
)

type memCollection struct {
	settings CollectionSettings
	rows     map[string]Row // keyed by DocID.String()
	order    []string       // ids in primary-key order, as compared by docIDLess over (tag, text)
}

// MemRowStore is a transient in-memory RowStore, used for tests and as the
// injectable fake executor the design notes (§9) call for.
type MemRowStore struct {
	mu          sync.Mutex
	collections map[string]map[string]*memCollection // namespace -> collection -> state
}

func NewMemRowStore() *MemRowStore {
	return &MemRowStore{collections: make(map[string]map[string]*memCollection)}
}

func (s *MemRowStore) nsMap(namespace string) map[string]*memCollection {
	m, ok := s.collections[namespace]
	if !ok {
		m = make(map[string]*memCollection)
		s.collections[namespace] = m
	}
	return m
}

func (s *MemRowStore) CreateCollection(_ context.Context, namespace, collection string, settings CollectionSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.nsMap(namespace)
	if existing, ok := ns[collection]; ok {
		if existing.settings.Equal(settings) {
			return ErrCollectionExists
		}
		return newAPIError(ErrInvalidCollectionName,
			"collection '%s' already exists with different settings", collection)
	}
	ns[collection] = &memCollection{settings: settings, rows: make(map[string]Row)}
	return nil
}

func (s *MemRowStore) DropCollection(_ context.Context, namespace, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nsMap(namespace), collection)
	return nil
}

func (s *MemRowStore) ListCollections(_ context.Context, namespace string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.nsMap(namespace)
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemRowStore) GetCollectionSettings(_ context.Context, namespace, collection string) (CollectionSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.nsMap(namespace)[collection]
	if !ok {
		return CollectionSettings{}, false, nil
	}
	return c.settings, true, nil
}

func (s *MemRowStore) collection(namespace, collection string) (*memCollection, *APIError) {
	c, ok := s.nsMap(namespace)[collection]
	if !ok {
		return nil, newAPIError(ErrCollectionNotExist, "collection '%s' does not exist", collection)
	}
	return c, nil
}

func (s *MemRowStore) InsertIfNotExists(_ context.Context, namespace, collection string, doc *WritableShreddedDocument, tx uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, apiErr := s.collection(namespace, collection)
	if apiErr != nil {
		return apiErr
	}
	key := doc.ID.String()
	if _, ok := c.rows[key]; ok {
		return ErrDocConflict
	}
	c.rows[key] = Row{ID: doc.ID, Tx: tx, Doc: doc}
	c.order = insertSorted(c.order, key, c.rows)
	return nil
}

func (s *MemRowStore) Get(_ context.Context, namespace, collection string, id DocID) (Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, apiErr := s.collection(namespace, collection)
	if apiErr != nil {
		return Row{}, false, apiErr
	}
	r, ok := c.rows[id.String()]
	return r, ok, nil
}

func (s *MemRowStore) CompareAndSwap(_ context.Context, namespace, collection string, id DocID, expectedTx uint64, doc *WritableShreddedDocument, newTx uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, apiErr := s.collection(namespace, collection)
	if apiErr != nil {
		return apiErr
	}
	key := id.String()
	cur, ok := c.rows[key]
	if !ok || cur.Tx != expectedTx {
		return ErrCASMismatch
	}
	c.rows[key] = Row{ID: id, Tx: newTx, Doc: doc}
	return nil
}

func (s *MemRowStore) CompareAndDelete(_ context.Context, namespace, collection string, id DocID, expectedTx uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, apiErr := s.collection(namespace, collection)
	if apiErr != nil {
		return apiErr
	}
	key := id.String()
	cur, ok := c.rows[key]
	if !ok || cur.Tx != expectedTx {
		return ErrCASMismatch
	}
	delete(c.rows, key)
	c.order = removeSorted(c.order, key)
	return nil
}

func (s *MemRowStore) Scan(_ context.Context, namespace, collection string, after *DocID, visit func(Row) bool) error {
	s.mu.Lock()
	c, apiErr := s.collection(namespace, collection)
	if apiErr != nil {
		s.mu.Unlock()
		return apiErr
	}
	order := append([]string(nil), c.order...)
	rows := make(map[string]Row, len(c.rows))
	for k, v := range c.rows {
		rows[k] = v
	}
	s.mu.Unlock()

	start := 0
	if after != nil {
		// Skip every id at or before the cursor, whether or not the
		// cursor's own row is still stored.
		for start < len(order) && !docIDLess(*after, rows[order[start]].ID) {
			start++
		}
	}
	for _, k := range order[start:] {
		r, ok := rows[k]
		if !ok {
			continue
		}
		if !visit(r) {
			break
		}
	}
	return nil
}

func (s *MemRowStore) Close() error { return nil }

// insertSorted keeps order sorted by primary key via linear insert; this
// store targets tests and small fixtures, not scan throughput.
func insertSorted(order []string, key string, rows map[string]Row) []string {
	target := rows[key].ID
	idx := 0
	for idx < len(order) && docIDLess(rows[order[idx]].ID, target) {
		idx++
	}
	out := append(order[:idx:idx], key)
	out = append(out, order[idx:]...)
	return out
}

func removeSorted(order []string, key string) []string {
	for i, k := range order {
		if k == key {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// docIDLess orders ids by (tag, text) as the primary key tuple does.
func docIDLess(a, b DocID) bool {
	if a.Tag() != b.Tag() {
		return a.Tag() < b.Tag()
	}
	return a.Text() < b.Text()
}
