// Package functable stores user-defined functions for the lifetime of the
// process.
package functable

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zurustar/mathjit/pkg/compiler/ast"
)

// Key identifies a function by name and arity; f/1 and f/2 are distinct.
type Key struct {
	Name  string
	Arity int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Name, k.Arity)
}

type entry struct {
	def *ast.FunctionDefinition
	seq uint64
}

// Table maps (name, arity) to definitions. Definitions are immutable once
// stored and shared with every reader.
type Table struct {
	mu      sync.RWMutex
	entries map[Key]entry
	seq     uint64
}

// New creates an empty table.
func New() *Table {
	return &Table{entries: make(map[Key]entry)}
}

// Define inserts def, replacing any definition with the same name and arity.
func (t *Table) Define(def *ast.FunctionDefinition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.entries[Key{Name: def.Name, Arity: def.Arity()}] = entry{def: def, seq: t.seq}
}

// Lookup returns the definition for name with the given arity.
func (t *Table) Lookup(name string, arity int) (*ast.FunctionDefinition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[Key{Name: name, Arity: arity}]
	return e.def, ok
}

// LastUnary returns the most recently defined (or redefined) function of
// arity 1.
func (t *Table) LastUnary() (*ast.FunctionDefinition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best entry
	for k, e := range t.entries {
		if k.Arity == 1 && e.seq > best.seq {
			best = e
		}
	}
	return best.def, best.def != nil
}

// List returns every definition ordered by name, then arity.
func (t *Table) List() []*ast.FunctionDefinition {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Arity < keys[j].Arity
	})

	defs := make([]*ast.FunctionDefinition, len(keys))
	for i, k := range keys {
		defs[i] = t.entries[k].def
	}
	return defs
}

// Len returns the number of stored definitions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
