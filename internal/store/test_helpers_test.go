package store

import (
	"path/filepath"
	"testing"

	"github.com/fuzzyyeti/shank/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSet builds a set of unit variants with one-byte discriminants.
func createTestSet(name string, variants map[string]uint8, order ...string) *ir.InstructionSet {
	set := &ir.InstructionSet{Name: name}
	for _, v := range order {
		set.Variants = append(set.Variants, ir.InstructionVariant{
			Name:         v,
			Fields:       ir.UnnamedFields{},
			Accounts:     []ir.Account{},
			Strategies:   []ir.Strategy{},
			Discriminant: ir.IncrementDiscriminant{Value: variants[v]},
		})
	}
	return set
}
