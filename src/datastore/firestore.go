package datastore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore caps the number of values a single `in` filter accepts, so
// larger membership queries are split into windows and merged client-side.
const inFilterWindow = 10

// FirestoreStore implements Store on a Cloud Firestore client.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	chunks := splitInFilter(q.Filters)
	if len(chunks) == 1 {
		return s.runQuery(ctx, collection, chunks[0], q.Limit)
	}

	var merged []Document
	for _, filters := range chunks {
		docs, err := s.runQuery(ctx, collection, filters, q.Limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, docs...)
	}
	return trimToLimit(merged, q.Limit), nil
}

// trimToLimit re-applies the query limit to a merged window union. Each
// window runs with the limit, so the union can hold up to a full limit per
// window before the trim.
func trimToLimit(docs []Document, limit int) []Document {
	if limit > 0 && len(docs) > limit {
		return docs[:limit]
	}
	return docs
}

func (s *FirestoreStore) runQuery(ctx context.Context, collection string, filters []Filter, limit int) ([]Document, error) {
	query := s.client.Collection(collection).Query
	for _, f := range filters {
		query = query.Where(f.Field, f.Op, f.Value)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query %v: %w", collection, err)
	}

	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: DocID(snap.Ref.ID), Data: snap.Data()})
	}
	return docs, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection string, id DocID) (Document, error) {
	snap, err := s.client.Collection(collection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("get %v/%v: %w", collection, id, err)
	}
	return Document{ID: DocID(snap.Ref.ID), Data: snap.Data()}, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, collection string, data map[string]interface{}) (DocID, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("insert %v: %w", collection, err)
	}
	return DocID(ref.ID), nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection string, id DocID, ops []FieldOp) error {
	updates := make([]firestore.Update, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpArrayUnion:
			updates = append(updates, firestore.Update{Path: op.Field, Value: firestore.ArrayUnion(op.Value)})
		case OpArrayRemove:
			updates = append(updates, firestore.Update{Path: op.Field, Value: firestore.ArrayRemove(op.Value)})
		default:
			updates = append(updates, firestore.Update{Path: op.Field, Value: op.Value})
		}
	}

	_, err := s.client.Collection(collection).Doc(string(id)).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update %v/%v: %w", collection, id, err)
	}
	return nil
}

// splitInFilter breaks an oversized `in` filter into service-sized windows.
// Each returned filter set differs only in the membership values it carries;
// the union of the window results equals the unsplit query.
func splitInFilter(filters []Filter) [][]Filter {
	idx := -1
	var values []interface{}
	for i, f := range filters {
		if f.Op != OpIn {
			continue
		}
		if vs := anySlice(f.Value); len(vs) > inFilterWindow {
			idx = i
			values = vs
		}
		break
	}
	if idx < 0 {
		return [][]Filter{filters}
	}

	var chunks [][]Filter
	for start := 0; start < len(values); start += inFilterWindow {
		end := start + inFilterWindow
		if end > len(values) {
			end = len(values)
		}
		window := make([]Filter, len(filters))
		copy(window, filters)
		window[idx] = Filter{Field: filters[idx].Field, Op: OpIn, Value: values[start:end]}
		chunks = append(chunks, window)
	}
	return chunks
}

func anySlice(v interface{}) []interface{} {
	switch vs := v.(type) {
	case []interface{}:
		return vs
	case []string:
		out := make([]interface{}, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	}
	return nil
}
