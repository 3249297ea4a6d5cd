// Hook table - per-namespace storage of ordered handler sequences.
//
// DESIGN: Sequences are copy-on-write. Insert and remove always build a new
// slice, so a sequence handed out by lookup never changes underneath a
// running dispatch. Entries are never mutated after creation.
package hooks

import (
	"reflect"
	"sort"
)

// entry is one registered handler.
type entry[C comparable] struct {
	callback C
	priority int
	receiver any
}

// table maps hook names to sorted handler sequences.
// A name without handlers is absent from the map.
type table[C comparable] struct {
	hooks map[string][]entry[C]
}

func newTable[C comparable]() table[C] {
	return table[C]{hooks: make(map[string][]entry[C])}
}

// lookup returns the current sequence for name. Callers must not modify it.
func (t *table[C]) lookup(name string) []entry[C] {
	return t.hooks[name]
}

// insert places e after every entry with priority <= e.priority.
func (t *table[C]) insert(name string, e entry[C]) {
	t.hooks[name] = insertSorted(t.hooks[name], e)
}

// clear drops every entry registered under name.
func (t *table[C]) clear(name string) {
	delete(t.hooks, name)
}

// remove drops entries whose callback matches. When matchReceiver is set,
// the receiver must match too. Survivors keep their relative order.
func (t *table[C]) remove(name string, callback C, receiver any, matchReceiver bool) {
	seq, ok := t.hooks[name]
	if !ok {
		return
	}

	kept := make([]entry[C], 0, len(seq))
	for _, e := range seq {
		if e.callback == callback && (!matchReceiver || sameReceiver(e.receiver, receiver)) {
			continue
		}
		kept = append(kept, e)
	}

	switch {
	case len(kept) == len(seq):
		// nothing matched, keep the existing sequence
	case len(kept) == 0:
		delete(t.hooks, name)
	default:
		t.hooks[name] = kept
	}
}

// names returns hook names with at least one handler, sorted.
func (t *table[C]) names() []string {
	names := make([]string, 0, len(t.hooks))
	for name := range t.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// insertSorted returns a new sequence with e inserted. It scans from the
// tail, shifting right every entry whose priority is strictly greater, and
// stops at the first entry with priority <= e.priority. Ties therefore keep
// registration order.
func insertSorted[C comparable](seq []entry[C], e entry[C]) []entry[C] {
	out := make([]entry[C], len(seq)+1)
	copy(out, seq)

	j := len(seq)
	for j > 0 && out[j-1].priority > e.priority {
		out[j] = out[j-1]
		j--
	}
	out[j] = e
	return out
}

// sameReceiver compares receivers without panicking on uncomparable values.
func sameReceiver(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
