package compiler

import (
	"sort"
	"strings"

	"github.com/KromDaniel/followset/internal/charset"
)

// Label is an immutable set of values, identified by the sorted keys of its members.
type Label[V any] struct {
	keys   []string
	values map[string]V
	key    string
}

// NewLabel returns the label holding only value.
func NewLabel[V any](key string, value V) *Label[V] {
	return &Label[V]{
		keys:   []string{key},
		values: map[string]V{key: value},
		key:    key,
	}
}

// Has reports whether a value with the given key is a member.
func (l *Label[V]) Has(key string) bool {
	_, ok := l.values[key]
	return ok
}

// With returns a new label holding the members of l plus value.
func (l *Label[V]) With(key string, value V) *Label[V] {
	if l.Has(key) {
		return l
	}
	keys := make([]string, len(l.keys), len(l.keys)+1)
	copy(keys, l.keys)
	i := sort.SearchStrings(keys, key)
	keys = append(keys, "")
	copy(keys[i+1:], keys[i:])
	keys[i] = key

	values := make(map[string]V, len(l.values)+1)
	for k, v := range l.values {
		values[k] = v
	}
	values[key] = value
	return &Label[V]{keys: keys, values: values, key: joinKeys(keys)}
}

// Values returns the members ordered by key.
func (l *Label[V]) Values() []V {
	out := make([]V, len(l.keys))
	for i, k := range l.keys {
		out[i] = l.values[k]
	}
	return out
}

// Len returns the number of members.
func (l *Label[V]) Len() int { return len(l.keys) }

// Key returns the canonical key of the whole label.
func (l *Label[V]) Key() string { return l.key }

func joinKeys(keys []string) string {
	return strings.Join(keys, "|")
}

// Entry maps a rune set to the label of every value inserted over it.
type Entry[V any] struct {
	Set   charset.Set
	Label *Label[V]
}

// Table accumulates the outgoing transitions of one state. Entry sets are
// kept pairwise disjoint, and each entry's label holds exactly the values
// whose inserted set covers that entry.
type Table[V any] struct {
	keyOf   func(V) string
	entries []Entry[V]
}

// NewTable returns an empty table identifying values by keyOf.
func NewTable[V any](keyOf func(V) string) *Table[V] {
	return &Table[V]{keyOf: keyOf}
}

// Insert records that value is reachable on every rune of set.
func (t *Table[V]) Insert(set charset.Set, value V) {
	if set.IsEmpty() {
		return
	}
	key := t.keyOf(value)

	previous := t.entries
	t.entries = make([]Entry[V], 0, len(previous)+2)
	var forked []Entry[V]
	remaining := set
	for i, e := range previous {
		if remaining.IsEmpty() {
			// entries are disjoint, so nothing further can overlap
			t.entries = append(t.entries, previous[i:]...)
			break
		}

		rest, onlyExisting, shared := remaining.Intersect(e.Set)
		remaining = rest
		if shared.IsEmpty() || e.Label.Has(key) {
			t.entries = append(t.entries, e)
			continue
		}

		if !onlyExisting.IsEmpty() {
			t.entries = append(t.entries, Entry[V]{Set: onlyExisting, Label: e.Label})
		}
		forked = append(forked, Entry[V]{Set: shared, Label: e.Label.With(key, value)})
	}
	if !remaining.IsEmpty() {
		forked = append(forked, Entry[V]{Set: remaining, Label: NewLabel(key, value)})
	}

	// merged only once every split is done, so equal labels anywhere coalesce
	for _, e := range forked {
		t.InsertLabel(e.Set, e.Label)
	}
}

// InsertLabel adds set under label, widening an existing entry with an equal
// label instead of adding a second one. set must not overlap any entry.
func (t *Table[V]) InsertLabel(set charset.Set, label *Label[V]) {
	if set.IsEmpty() {
		return
	}
	for i := range t.entries {
		if t.entries[i].Label.Key() == label.Key() {
			t.entries[i].Set = t.entries[i].Set.Union(set)
			return
		}
	}
	t.entries = append(t.entries, Entry[V]{Set: set, Label: label})
}

// Entries returns the entries in insertion order.
func (t *Table[V]) Entries() []Entry[V] {
	return append([]Entry[V](nil), t.entries...)
}

// Len returns the number of entries.
func (t *Table[V]) Len() int { return len(t.entries) }
