// Package docstore defines the document store port used by the domain
// services. Storage is modelled as named collections of schemaless
// documents with query-by-field and an atomic multi-document batch write.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("docstore: not found")

// ErrUnsupportedOp indicates an unknown query or write operator.
var ErrUnsupportedOp = errors.New("docstore: unsupported operator")

// Collection names used across the application.
const (
	CollectionPrincipals   = "principals"
	CollectionEvents       = "events"
	CollectionStakeholders = "stakeholders"
	CollectionLinks        = "event_stakeholders"
)

// Query operators.
const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
)

// Document is a single stored record.
type Document struct {
	Collection string
	ID         string
	Fields     map[string]any
	UpdatedAt  time.Time
}

// OpKind enumerates batch write actions.
type OpKind string

const (
	// OpSet replaces the document fields entirely, creating the document if absent.
	OpSet OpKind = "set"
	// OpUpdate merges fields into an existing document. ArrayUnion and
	// ArrayRemove values receive set semantics on string-slice fields.
	OpUpdate OpKind = "update"
	// OpDelete removes the document. Deleting an absent document is a no-op.
	OpDelete OpKind = "delete"
)

// Op is one action within a batch write.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Fields     map[string]any
}

// ArrayUnion adds values to a string-slice field without duplicates.
type ArrayUnion struct {
	Values []string
}

// ArrayRemove removes values from a string-slice field.
type ArrayRemove struct {
	Values []string
}

// Store is the document store contract. BatchWrite must apply all
// operations atomically: either every op takes effect or none do.
type Store interface {
	GetByID(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, collection, field, op string, value any) ([]Document, error)
	BatchWrite(ctx context.Context, ops []Op) error
}

// ApplyUpdate merges update fields into base, honouring ArrayUnion and
// ArrayRemove semantics. The base map is not mutated.
func ApplyUpdate(base, update map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(update))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range update {
		switch change := v.(type) {
		case ArrayUnion:
			merged[k] = unionStrings(StringSlice(merged[k]), change.Values)
		case ArrayRemove:
			merged[k] = removeStrings(StringSlice(merged[k]), change.Values)
		default:
			merged[k] = v
		}
	}
	return merged
}

// StringSlice coerces a stored field value into a string slice. JSON
// round-trips turn []string into []any, so both shapes are accepted.
func StringSlice(v any) []string {
	switch vals := v.(type) {
	case nil:
		return nil
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// String coerces a stored field value into a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Bool coerces a stored field value into a bool.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Time coerces a stored field value into a time.Time. Times are stored
// as RFC3339 strings so documents survive JSON round-trips.
func Time(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}

// EncodeTime renders a time for storage.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func unionStrings(existing, add []string) []string {
	out := make([]string, 0, len(existing)+len(add))
	seen := make(map[string]struct{}, len(existing)+len(add))
	for _, s := range existing {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range add {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func removeStrings(existing, drop []string) []string {
	remove := make(map[string]struct{}, len(drop))
	for _, s := range drop {
		remove[s] = struct{}{}
	}
	out := make([]string, 0, len(existing))
	for _, s := range existing {
		if _, ok := remove[s]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}
