package functable

import (
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/mathjit/pkg/compiler/ast"
)

func def(name string, params ...string) *ast.FunctionDefinition {
	return &ast.FunctionDefinition{Name: name, Parameters: params, Body: &ast.NumberLiteral{Value: 1}}
}

func TestTable_DefineLookup(t *testing.T) {
	table := New()
	f1 := def("f", "x")
	f2 := def("f", "x", "y")
	table.Define(f1)
	table.Define(f2)

	if got, ok := table.Lookup("f", 1); !ok || got != f1 {
		t.Errorf("Lookup(f, 1) = %v, %v", got, ok)
	}
	if got, ok := table.Lookup("f", 2); !ok || got != f2 {
		t.Errorf("Lookup(f, 2) = %v, %v", got, ok)
	}
	if _, ok := table.Lookup("f", 3); ok {
		t.Error("Lookup(f, 3) should miss")
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
}

func TestTable_Redefine(t *testing.T) {
	table := New()
	table.Define(def("f", "x"))
	replacement := def("f", "y")
	table.Define(replacement)

	got, _ := table.Lookup("f", 1)
	if got != replacement {
		t.Error("redefinition should replace the old entry")
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

func TestTable_LastUnary(t *testing.T) {
	table := New()
	if _, ok := table.LastUnary(); ok {
		t.Fatal("empty table has no unary function")
	}

	f := def("f", "x")
	g := def("g", "x")
	table.Define(f)
	table.Define(def("h", "a", "b"))
	table.Define(g)

	if got, _ := table.LastUnary(); got != g {
		t.Errorf("LastUnary() = %s, want g", got.Name)
	}

	// Redefinition counts as most recent.
	f2 := def("f", "z")
	table.Define(f2)
	if got, _ := table.LastUnary(); got != f2 {
		t.Errorf("LastUnary() = %s, want redefined f", got.Name)
	}

	// A newer non-unary function does not change the answer.
	table.Define(def("k"))
	if got, _ := table.LastUnary(); got != f2 {
		t.Errorf("LastUnary() = %s, want f", got.Name)
	}
}

func TestTable_List(t *testing.T) {
	table := New()
	table.Define(def("g", "x"))
	table.Define(def("f", "x", "y"))
	table.Define(def("f", "x"))

	var got []string
	for _, d := range table.List() {
		got = append(got, Key{Name: d.Name, Arity: d.Arity()}.String())
	}
	want := []string{"f/1", "f/2", "g/1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestTable_ConcurrentAccess(t *testing.T) {
	table := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table.Define(def(fmt.Sprintf("f%d", i), "x"))
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table.Lookup(fmt.Sprintf("f%d", i), 1)
				table.LastUnary()
			}
		}(i)
	}
	wg.Wait()

	if table.Len() != 8 {
		t.Errorf("Len() = %d, want 8", table.Len())
	}
}

// The last definition for a key always wins.
func TestProperty_LastDefinitionWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("Lookup returns the latest Define", prop.ForAll(
		func(names []string) bool {
			table := New()
			latest := map[string]*ast.FunctionDefinition{}
			for _, n := range names {
				d := def(n, "x")
				table.Define(d)
				latest[n] = d
			}
			for n, d := range latest {
				got, ok := table.Lookup(n, 1)
				if !ok || got != d {
					return false
				}
			}
			if len(names) > 0 {
				last, _ := table.LastUnary()
				if last != latest[names[len(names)-1]] {
					return false
				}
			}
			return table.Len() == len(latest)
		},
		gen.SliceOf(gen.OneConstOf("a", "b", "c", "d")),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
