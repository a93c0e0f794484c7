package eval

import "github.com/aeden/sdq/internal/value"

// Env is the evaluator's lexical scope. The language has no variable
// binding forms of its own, so today it only ever holds the empty root
// scope; it exists as a seam for the day a binding construct is
// added, rather than threading a bare map through every Eval call.
type Env struct {
	vars  map[string]value.Value
	outer *Env
}

// NewEnv returns an empty root scope.
func NewEnv() *Env {
	return &Env{vars: map[string]value.Value{}}
}

// Enclosed returns a child scope of e.
func (e *Env) Enclosed() *Env {
	return &Env{vars: map[string]value.Value{}, outer: e}
}

// Get looks up name in e or any enclosing scope.
func (e *Env) Get(name string) (value.Value, bool) {
	if v, ok := e.vars[name]; ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return value.Value{}, false
}

// Set binds name to v in e's own scope.
func (e *Env) Set(name string, v value.Value) {
	e.vars[name] = v
}
