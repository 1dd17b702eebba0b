// Package dispatch maintains the operation registry: the index from
// operation names to the types supporting them, derived entirely from
// registered structures and implementations. Generic dispatch is
// signature-driven; the registry holds no per-operation code.
package dispatch

import (
	"fmt"

	"github.com/eatikrh/kleis-sub002/internal/signature"
	"github.com/eatikrh/kleis-sub002/internal/structures"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// Entry records that one implementation supports an operation: the carrier
// type, the structure that declared the operation, the parsed signature
// template specialized to the implementation, and the implementing symbol
// the evaluator dispatches to.
type Entry struct {
	Op        string
	Type      typesystem.Type
	TypeName  string
	Structure string
	Template  *signature.Template
	Binding   string
}

// Registry is the derived operation index. It is immutable once built;
// a change to the structure registry means a wholesale rebuild from a
// fresh snapshot, never an in-place patch.
type Registry struct {
	byOp map[string][]Entry
	ops  []string
}

// Build derives the operation registry from a structure registry snapshot.
// Entries appear in implementation registration order, which makes every
// downstream ordering (candidate lists, TypesSupporting) deterministic.
// A signature that cannot be parsed into a template fails the whole build.
func Build(src *structures.Registry) (*Registry, error) {
	r := &Registry{byOp: map[string][]Entry{}}

	for _, impl := range src.Implementations() {
		ops, err := src.OperationsFor(impl)
		if err != nil {
			return nil, err
		}
		for _, op := range ops {
			tpl, err := signature.Parse(op.Signature, typesystem.FreeDimVars(op.Signature))
			if err != nil {
				return nil, fmt.Errorf("operation %s of %s for %s: %w",
					op.Name, impl.Structure, impl.TypeName(), err)
			}
			if _, seen := r.byOp[op.Name]; !seen {
				r.ops = append(r.ops, op.Name)
			}
			r.byOp[op.Name] = append(r.byOp[op.Name], Entry{
				Op:        op.Name,
				Type:      impl.Carrier(),
				TypeName:  impl.TypeName(),
				Structure: impl.Structure,
				Template:  tpl,
				Binding:   impl.Bindings[op.Name],
			})
		}
	}
	return r, nil
}

// Candidates returns every entry supporting an operation, in registration
// order. An unknown operation yields nil.
func (r *Registry) Candidates(op string) []Entry {
	return append([]Entry(nil), r.byOp[op]...)
}

// TypesSupporting returns the carrier types supporting an operation, in
// registration order with duplicates removed.
func (r *Registry) TypesSupporting(op string) []typesystem.Type {
	var out []typesystem.Type
	seen := map[string]bool{}
	for _, e := range r.byOp[op] {
		if seen[e.TypeName] {
			continue
		}
		seen[e.TypeName] = true
		out = append(out, e.Type)
	}
	return out
}

// Signature looks up the exact entry for an operation on a named type.
// The name is the carrier's rendering, e.g. "ℝ" or "Matrix(m, n, ℝ)".
func (r *Registry) Signature(op, typeName string) (Entry, bool) {
	for _, e := range r.byOp[op] {
		if e.TypeName == typeName {
			return e, true
		}
	}
	return Entry{}, false
}

// AllOperations returns the operation names known to the registry, in
// first-registration order.
func (r *Registry) AllOperations() []string {
	return append([]string(nil), r.ops...)
}
