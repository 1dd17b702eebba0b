package inference

import (
	"github.com/benbjohnson/immutable"

	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// Context is the typing environment: names bound to types or schemes.
// It is persistent; Bind returns a new context sharing structure with the
// old one, so concurrent inference requests can branch the same base
// environment without copying or locking.
type Context struct {
	vars *immutable.Map[string, typesystem.Type]
}

// NewContext returns an empty typing environment.
func NewContext() Context {
	return Context{vars: immutable.NewMap[string, typesystem.Type](nil)}
}

// Bind returns a context extended with one binding. The receiver is
// unchanged.
func (c Context) Bind(name string, t typesystem.Type) Context {
	return Context{vars: c.vars.Set(name, t)}
}

// Lookup returns the type bound to a name.
func (c Context) Lookup(name string) (typesystem.Type, bool) {
	if c.vars == nil {
		return nil, false
	}
	return c.vars.Get(name)
}

// Len returns the number of bindings.
func (c Context) Len() int {
	if c.vars == nil {
		return 0
	}
	return c.vars.Len()
}

// freeTypeVars collects the inference variables free in the environment.
// Generalization must not quantify over these.
func (c Context) freeTypeVars() map[int]bool {
	free := map[int]bool{}
	if c.vars == nil {
		return free
	}
	itr := c.vars.Iterator()
	for !itr.Done() {
		_, t, _ := itr.Next()
		for _, v := range t.FreeTypeVars() {
			free[v] = true
		}
	}
	return free
}
