// errors.go - stack-carrying errors for code that runs under a Tracker.
//
// Returning one of these (instead of a bare errors.New / fmt.Errorf value)
// gives the tracker a real traceback for a returned error, and Wrap lets each
// function on the way out attach the bindings it wants in its frame block.
//
// Semantics:
//   - The stack is captured once, at the innermost site. Wrapping an error that
//     already carries a stack (ours, pkg/errors or oops) does not recapture.
//   - Wrappers are immutable; errors.Is/As see the full chain via Unwrap.
//   - Stacks and bindings are found under errors.Join and multi-%w errors too.
//   - Wrap and WithStack return nil for a nil error so they fit in one-line
//     returns.
package errtrack

import "fmt"

// tracedErr annotates a cause with a message, the bindings of the function
// that built it, and (innermost only) a stack.
type tracedErr struct {
	msg   string
	cause error
	fn    string     // runtime name of the function that built or wrapped the error
	ctx   fields     // bindings attached at that site
	stk   []Location // innermost first; nil when an inner error carries the stack
}

func (e *tracedErr) Error() string {
	switch {
	case e.cause == nil && e.msg == "":
		return "error"
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

func (e *tracedErr) Unwrap() error { return e.cause }

// Bindings returns a copy of the key/values attached at this level.
func (e *tracedErr) Bindings() []Field {
	out := make([]Field, len(e.ctx))
	copy(out, e.ctx)
	return out
}

// NewError returns an error with msg and a stack captured at the caller. kv are
// recorded as the caller's bindings.
func NewError(msg string, kv ...any) error {
	return &tracedErr{
		msg: msg,
		fn:  callerFunction(1),
		ctx: fieldsFromKV(kv...),
		stk: captureStack(1, defaultMaxDepth),
	}
}

// Errorf formats like fmt.Errorf (including %w) and captures a stack at the
// caller.
func Errorf(format string, args ...any) error {
	return &tracedErr{
		cause: fmt.Errorf(format, args...),
		fn:    callerFunction(1),
		ctx:   emptyFields,
		stk:   captureStack(1, defaultMaxDepth),
	}
}

// Wrap annotates err with msg and records kv as the caller's bindings. A stack
// is captured only when err does not carry one yet. Wrap(nil, ...) is nil.
func Wrap(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	e := &tracedErr{
		msg:   msg,
		cause: err,
		fn:    callerFunction(1),
		ctx:   fieldsFromKV(kv...),
	}
	if !carriesTrace(err) {
		e.stk = captureStack(1, defaultMaxDepth)
	}
	return e
}

// WithStack attaches a stack captured at the caller unless err already
// carries one. WithStack(nil) is nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if carriesTrace(err) {
		return err
	}
	return &tracedErr{
		cause: err,
		fn:    callerFunction(1),
		ctx:   emptyFields,
		stk:   captureStack(1, defaultMaxDepth),
	}
}

// tracedStack returns the stack of the innermost tracedErr carrying one, on
// the first branch of err's graph that has any.
func tracedStack(err error) []Location {
	te, _ := deepestMatch(err, hasTracedStack).(*tracedErr)
	if te == nil {
		return nil
	}
	return te.stk
}

func hasTracedStack(err error) bool {
	te, ok := err.(*tracedErr)
	return ok && te.stk != nil
}

// tracedBindings collects the bindings attached anywhere in err's graph,
// keyed by the function that attached them. Outer annotations override inner
// ones for the same function and key.
func tracedBindings(err error) map[string]fields {
	var found []*tracedErr
	walk(err, func(e error, _ int) bool {
		if te, ok := e.(*tracedErr); ok && len(te.ctx) > 0 {
			found = append(found, te)
		}
		return true
	})
	if len(found) == 0 {
		return nil
	}
	out := make(map[string]fields, len(found))
	for i := len(found) - 1; i >= 0; i-- {
		te := found[i]
		out[te.fn] = merge(out[te.fn], te.ctx)
	}
	return out
}

// Interface conformance guards.
var (
	_ error         = (*tracedErr)(nil)
	_ fmt.Formatter = (*tracedErr)(nil)
)
