package ast

// Walk calls fn for expr and every descendant, depth-first. Traversal of a
// subtree stops when fn returns false.
func Walk(expr Expression, fn func(Expression) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	switch e := expr.(type) {
	case *Operation:
		for _, arg := range e.Args {
			Walk(arg, fn)
		}
	case *Quantifier:
		if e.Where != nil {
			Walk(e.Where, fn)
		}
		Walk(e.Body, fn)
	case *Conditional:
		Walk(e.Cond, fn)
		Walk(e.Then, fn)
		Walk(e.Else, fn)
	case *Let:
		Walk(e.Value, fn)
		Walk(e.Body, fn)
	}
}

// PlaceholderRef identifies a placeholder found in an expression tree.
type PlaceholderRef struct {
	ID   int
	Hint string
}

// FindPlaceholders collects all placeholders in document order.
func FindPlaceholders(expr Expression) []PlaceholderRef {
	var refs []PlaceholderRef
	Walk(expr, func(e Expression) bool {
		if p, ok := e.(*Placeholder); ok {
			refs = append(refs, PlaceholderRef{ID: p.ID, Hint: p.Hint})
		}
		return true
	})
	return refs
}

// NextPlaceholder returns the smallest placeholder ID greater than current,
// or -1 when there is none. Used by the structural editor to cycle slots.
func NextPlaceholder(expr Expression, current int) int {
	next := -1
	for _, ref := range FindPlaceholders(expr) {
		if ref.ID > current && (next == -1 || ref.ID < next) {
			next = ref.ID
		}
	}
	return next
}

// PrevPlaceholder returns the largest placeholder ID smaller than current,
// or -1 when there is none.
func PrevPlaceholder(expr Expression, current int) int {
	prev := -1
	for _, ref := range FindPlaceholders(expr) {
		if ref.ID < current && ref.ID > prev {
			prev = ref.ID
		}
	}
	return prev
}

// FreeVariables returns the object names that occur free in expr, in first
// occurrence order. Quantifier-bound names and let-bound names are excluded
// within their scope.
func FreeVariables(expr Expression) []string {
	var order []string
	seen := map[string]bool{}
	collectFree(expr, map[string]int{}, seen, &order)
	return order
}

func collectFree(expr Expression, bound map[string]int, seen map[string]bool, order *[]string) {
	switch e := expr.(type) {
	case *Object:
		if bound[e.Name] == 0 && !seen[e.Name] {
			seen[e.Name] = true
			*order = append(*order, e.Name)
		}
	case *Operation:
		for _, arg := range e.Args {
			collectFree(arg, bound, seen, order)
		}
	case *Quantifier:
		for _, b := range e.Bound {
			bound[b.Name]++
		}
		if e.Where != nil {
			collectFree(e.Where, bound, seen, order)
		}
		collectFree(e.Body, bound, seen, order)
		for _, b := range e.Bound {
			bound[b.Name]--
		}
	case *Conditional:
		collectFree(e.Cond, bound, seen, order)
		collectFree(e.Then, bound, seen, order)
		collectFree(e.Else, bound, seen, order)
	case *Let:
		collectFree(e.Value, bound, seen, order)
		bound[e.Name]++
		collectFree(e.Body, bound, seen, order)
		bound[e.Name]--
	}
}
