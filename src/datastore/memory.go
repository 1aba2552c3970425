package datastore

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store for tests and local development. It
// reproduces the hosted service's observable behavior: opaque generated
// identifiers, unordered query results, filter-then-limit reads, and
// union/remove array updates keyed on deep equality.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[DocID]map[string]interface{}
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[DocID]map[string]interface{})}
}

func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for id, data := range m.collections[collection] {
		if !matchesFilters(data, q.Filters) {
			continue
		}
		docs = append(docs, Document{ID: id, Data: cloneMap(data)})
		if q.Limit > 0 && len(docs) == q.Limit {
			break
		}
	}
	return docs, nil
}

func (m *Memory) Get(ctx context.Context, collection string, id DocID) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: cloneMap(data)}, nil
}

func (m *Memory) Insert(ctx context.Context, collection string, data map[string]interface{}) (DocID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collections[collection] == nil {
		m.collections[collection] = make(map[DocID]map[string]interface{})
	}
	id := DocID(uuid.NewString())
	m.collections[collection][id] = cloneMap(data)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection string, id DocID, ops []FieldOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for _, op := range ops {
		switch op.Kind {
		case OpArrayUnion:
			arr := anySlice(data[op.Field])
			value := cloneValue(op.Value)
			if !containsEqual(arr, value) {
				data[op.Field] = append(arr, value)
			}
		case OpArrayRemove:
			arr := anySlice(data[op.Field])
			kept := make([]interface{}, 0, len(arr))
			for _, elem := range arr {
				if !reflect.DeepEqual(elem, cloneValue(op.Value)) {
					kept = append(kept, elem)
				}
			}
			data[op.Field] = kept
		default:
			data[op.Field] = cloneValue(op.Value)
		}
	}
	return nil
}

func matchesFilters(data map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(data[f.Field], cloneValue(f.Value)) {
				return false
			}
		case OpIn:
			if !containsEqual(anySlice(cloneValue(f.Value)), data[f.Field]) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func containsEqual(arr []interface{}, value interface{}) bool {
	for _, elem := range arr {
		if reflect.DeepEqual(elem, value) {
			return true
		}
	}
	return false
}

// cloneMap deep-copies a document so callers never alias stored state.
func cloneMap(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies v and normalizes it to the shapes the hosted service
// hands back on reads: slices become []interface{} and integers widen to
// int64, so decode helpers see identical data in production and in tests.
func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case []string:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = elem
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = cloneMap(elem)
		}
		return out
	case int:
		return int64(val)
	case int32:
		return int64(val)
	default:
		return v
	}
}
