// Package datastore defines the narrow boundary between the application and
// the hosted document database. The rest of the service talks to the Store
// interface only, so production code runs against Firestore while tests run
// against the in-memory double.
package datastore

import (
	"context"
	"errors"
)

// Collections managed by the service.
const (
	Users         = "users"
	Photos        = "photos"
	Notifications = "notifications"
)

// DocID is the opaque identifier the document service assigns when a
// document is stored. It is distinct from any domain identifier carried
// inside the document (userId, photoId) and is the only handle updates
// accept.
type DocID string

func (id DocID) String() string { return string(id) }

// ErrNotFound reports that no document exists at the addressed DocID.
var ErrNotFound = errors.New("datastore: document not found")

// Filter comparison operators.
const (
	OpEqual = "=="
	OpIn    = "in"
)

// Filter restricts a query to documents whose Field compares to Value under
// Op. OpIn expects Value to be a slice; a document matches when its field
// equals any element.
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// Query describes a collection-scoped read: zero or more filters plus an
// optional cap on the result count. Result order is service-determined and
// callers must not rely on it.
type Query struct {
	Filters []Filter
	Limit   int
}

// Document is a raw read result: the service-assigned identifier plus the
// stored fields.
type Document struct {
	ID   DocID
	Data map[string]interface{}
}

// Field update kinds.
const (
	OpSet = "set"
	// OpArrayUnion appends Value to an array field unless an equal element
	// is already present.
	OpArrayUnion = "array-union"
	// OpArrayRemove removes every element equal to Value from an array field.
	OpArrayRemove = "array-remove"
)

// FieldOp is a single-field update. Union and remove compare elements by
// deep equality, so two comment records differing only in their commentId
// never collapse into one.
type FieldOp struct {
	Field string
	Kind  string
	Value interface{}
}

// Store is the data plane every query function runs on. Implementations do
// not retry; every failure propagates to the caller unchanged.
type Store interface {
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Get(ctx context.Context, collection string, id DocID) (Document, error)
	Insert(ctx context.Context, collection string, data map[string]interface{}) (DocID, error)
	Update(ctx context.Context, collection string, id DocID, ops []FieldOp) error
}
