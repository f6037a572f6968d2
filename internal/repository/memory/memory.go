// Package memory holds in-process implementations of the repository interfaces,
// used for local development and tests. Values are copied through bson on the
// way in and out, so callers never share state with the store and see the same
// encoding the mongo adapters produce.
package memory

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func clone[T any](v *T) (*T, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

type sortKey struct {
	t time.Time
	s string
}

func (a sortKey) less(b sortKey) bool {
	if !a.t.Equal(b.t) {
		return a.t.Before(b.t)
	}
	return strings.ToLower(a.s) < strings.ToLower(b.s)
}

// sortBy orders items by key, stable so equal keys keep insertion order.
func sortBy[T any](items []T, key func(T) sortKey, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return key(items[j]).less(key(items[i]))
		}
		return key(items[i]).less(key(items[j]))
	})
}
