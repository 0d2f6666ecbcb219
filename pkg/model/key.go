package model

import (
	"sort"
	"strings"
	"sync"
)

// Key identifies one stored model: its registered type name plus the encoded
// primary key value. Keys are plain values and compare with ==.
type Key struct {
	Type string
	ID   Value
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool { return k.Type == "" && k.ID == "" }

// String renders the key as Type(id parts).
func (k Key) String() string { return k.Type + "(" + k.ID.String() + ")" }

// Index is one secondary index entry contributed by a model.
type Index struct {
	Name  string
	Value Value
}

// Metadata is derived from a model instance: the primary key value and the
// ordered set of secondary index entries.
type Metadata struct {
	ID      Value
	Indexes []Index
}

// NewMetadata builds Metadata with indexes sorted by name then value and
// duplicates removed, so equal inputs always produce equal metadata.
func NewMetadata(id Value, indexes ...Index) Metadata {
	idx := append([]Index(nil), indexes...)
	sort.Slice(idx, func(i, j int) bool {
		if idx[i].Name != idx[j].Name {
			return idx[i].Name < idx[j].Name
		}
		return idx[i].Value < idx[j].Value
	})
	out := idx[:0]
	for i, e := range idx {
		if i > 0 && e == idx[i-1] {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		out = nil
	}
	return Metadata{ID: id, Indexes: out}
}

// Equal reports whether two metadata values carry the same id and indexes.
func (m Metadata) Equal(o Metadata) bool {
	if m.ID != o.ID || len(m.Indexes) != len(o.Indexes) {
		return false
	}
	for i := range m.Indexes {
		if m.Indexes[i] != o.Indexes[i] {
			return false
		}
	}
	return true
}

// IndexStrings groups index values by name using their rendered form.
func (m Metadata) IndexStrings() map[string][]string {
	out := make(map[string][]string, len(m.Indexes))
	for _, idx := range m.Indexes {
		out[idx.Name] = append(out[idx.Name], idx.Value.String())
	}
	return out
}

// HeapKeys hands out the Key for a primary key value before the model is
// ever written. The first Key resolved for a (type, id) pair is kept for the
// lifetime of the table and returned on every later lookup; entries are never
// removed, so keys of deleted models stay resolvable.
type HeapKeys struct {
	mu   sync.Mutex
	keys map[Key]Key
}

// NewHeapKeys returns an empty table.
func NewHeapKeys() *HeapKeys {
	return &HeapKeys{keys: make(map[Key]Key)}
}

// Resolve returns the Key for typeName and id, assigning it on first use.
func (h *HeapKeys) Resolve(typeName string, id Value) Key {
	k := Key{Type: typeName, ID: id}
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.keys[k]; ok {
		return existing
	}
	// Detach from caller-owned memory the id may alias.
	k = Key{Type: strings.Clone(typeName), ID: Value(strings.Clone(string(id)))}
	h.keys[k] = k
	return k
}

// Len returns the number of keys assigned so far.
func (h *HeapKeys) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keys)
}
