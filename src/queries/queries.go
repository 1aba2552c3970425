// Package queries implements the data-access operations the view layer calls.
// Every function is stateless and takes the datastore.Store explicitly, so
// handlers run against Firestore and tests run against the in-memory double
// with no other changes.
//
// Reads run on the caller's context. Mutation functions are context-agnostic
// too; the handlers deliberately pass a server-scoped context for writes so
// an abandoned request cannot cancel a half-applied update pair.
package queries

import (
	"time"

	"photogram_services/src/datastore"
)

func docString(doc datastore.Document, field string) string {
	if v, ok := doc.Data[field].(string); ok {
		return v
	}
	return ""
}

func docBool(doc datastore.Document, field string) bool {
	if v, ok := doc.Data[field].(bool); ok {
		return v
	}
	return false
}

func docTime(doc datastore.Document, field string) time.Time {
	if v, ok := doc.Data[field].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// docStringSlice tolerates both the service read shape ([]interface{}) and
// the pre-write shape ([]string). Missing fields decode to an empty slice,
// never nil, so response payloads render [] instead of null.
func docStringSlice(doc datastore.Document, field string) []string {
	switch arr := doc.Data[field].(type) {
	case []string:
		out := make([]string, 0, len(arr))
		out = append(out, arr...)
		return out
	case []interface{}:
		out := make([]string, 0, len(arr))
		for _, elem := range arr {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
