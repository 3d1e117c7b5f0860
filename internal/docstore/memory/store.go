// Package memory implements an in-process document store. It honours the
// full Store contract including atomic batch writes, so it can stand in
// for the postgres driver in tests and development without weakening the
// consistency model.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tessera-hq/tessera/internal/docstore"
)

// Store keeps documents in a mutex-guarded map.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]any
}

// stagedWrite is one pending result of a batch. A nil fields map marks a delete.
type stagedWrite struct {
	collection string
	id         string
	fields     map[string]any
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		data: make(map[string]map[string]map[string]any),
	}
}

// GetByID returns a copy of the stored document.
func (s *Store) GetByID(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.lookup(collection, id)
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{
		Collection: collection,
		ID:         id,
		Fields:     cloneFields(fields),
	}, nil
}

// List returns copies of every document in the collection.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []docstore.Document
	for id, fields := range s.data[collection] {
		out = append(out, docstore.Document{
			Collection: collection,
			ID:         id,
			Fields:     cloneFields(fields),
		})
	}
	return out, nil
}

// Query returns all documents in the collection matching the condition.
func (s *Store) Query(ctx context.Context, collection, field, op string, value any) ([]docstore.Document, error) {
	if op != docstore.OpEqual && op != docstore.OpArrayContains {
		return nil, fmt.Errorf("query op %q: %w", op, docstore.ErrUnsupportedOp)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []docstore.Document
	for id, fields := range s.data[collection] {
		matched, err := matches(fields[field], op, value)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, docstore.Document{
				Collection: collection,
				ID:         id,
				Fields:     cloneFields(fields),
			})
		}
	}
	return out, nil
}

// BatchWrite applies all operations atomically. The batch is staged
// against copies of the affected documents and committed only when every
// operation succeeds, so a failing op leaves the store untouched.
func (s *Store) BatchWrite(ctx context.Context, ops []docstore.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]stagedWrite, 0, len(ops))

	for _, op := range ops {
		switch op.Kind {
		case docstore.OpSet:
			pending = append(pending, stagedWrite{op.Collection, op.ID, cloneFields(op.Fields)})
		case docstore.OpUpdate:
			current, ok := stagedLookup(pending, op.Collection, op.ID)
			if !ok {
				existing, found := s.lookup(op.Collection, op.ID)
				if !found {
					return fmt.Errorf("update %s/%s: %w", op.Collection, op.ID, docstore.ErrNotFound)
				}
				current = existing
			}
			pending = append(pending, stagedWrite{op.Collection, op.ID, docstore.ApplyUpdate(current, op.Fields)})
		case docstore.OpDelete:
			pending = append(pending, stagedWrite{op.Collection, op.ID, nil})
		default:
			return fmt.Errorf("batch op %q: %w", op.Kind, docstore.ErrUnsupportedOp)
		}
	}

	for _, st := range pending {
		if st.fields == nil {
			delete(s.data[st.collection], st.id)
			continue
		}
		if s.data[st.collection] == nil {
			s.data[st.collection] = make(map[string]map[string]any)
		}
		s.data[st.collection][st.id] = st.fields
	}
	return nil
}

func stagedLookup(pending []stagedWrite, collection, id string) (map[string]any, bool) {
	for i := len(pending) - 1; i >= 0; i-- {
		if pending[i].collection == collection && pending[i].id == id {
			return pending[i].fields, pending[i].fields != nil
		}
	}
	return nil, false
}

func (s *Store) lookup(collection, id string) (map[string]any, bool) {
	coll, ok := s.data[collection]
	if !ok {
		return nil, false
	}
	fields, ok := coll[id]
	return fields, ok
}

func matches(stored any, op string, value any) (bool, error) {
	switch op {
	case docstore.OpEqual:
		switch stored.(type) {
		case nil, string, bool, float64, int, int64:
			return stored == value, nil
		default:
			return false, nil
		}
	case docstore.OpArrayContains:
		needle, ok := value.(string)
		if !ok {
			return false, nil
		}
		for _, s := range docstore.StringSlice(stored) {
			if s == needle {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("query op %q: %w", op, docstore.ErrUnsupportedOp)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if vals := docstore.StringSlice(v); vals != nil {
			copied := make([]string, len(vals))
			copy(copied, vals)
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}
