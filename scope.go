// scope.go - per-invocation local variable registry carried in a context.
//
// Go gives no access to another frame's locals, so functions running under a
// Tracker record the bindings they want reported with Locals. Registrations
// are keyed by the runtime name of the calling function and matched against
// traceback locations when a report is built.
package errtrack

import (
	"context"
	"sync"
)

type scopeKey struct{}

// scope collects bindings for one invocation. It is safe for concurrent use
// because the target may fan out to goroutines that share its context.
type scope struct {
	mu     sync.Mutex
	locals map[string]fields
}

func newScope() *scope {
	return &scope{locals: make(map[string]fields)}
}

func withScope(ctx context.Context, s *scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

func (s *scope) record(function string, fs fields) {
	if len(fs) == 0 {
		return
	}
	s.mu.Lock()
	s.locals[function] = merge(s.locals[function], fs)
	s.mu.Unlock()
}

func (s *scope) lookup(function string) fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locals[function]
}

// Locals records key/value bindings for the calling function so they show up
// in its frame block if the surrounding tracked invocation fails. Keys follow
// the usual kv rules: a non-string key drops its pair, a trailing key binds
// nil. Calling Locals again from the same function updates existing keys and
// appends new ones.
//
// Outside a tracked invocation Locals is a no-op. A function that appears
// more than once on the stack (recursion) shares one set of bindings.
//
//	func div(ctx context.Context, a, b int) int {
//		errtrack.Locals(ctx, "a", a, "b", b)
//		return a / b
//	}
func Locals(ctx context.Context, kv ...any) {
	s := scopeFrom(ctx)
	if s == nil {
		return
	}
	s.record(callerFunction(1), fieldsFromKV(kv...))
}
