// result.go - the three-way outcome of a tracked invocation and the
// shape-preserving wrappers built on it.
package errtrack

import "context"

// Status is how a tracked invocation ended.
type Status int

const (
	// Returned: the target succeeded; Value holds its result.
	Returned Status = iota
	// Recovered: the target failed, the fault was reported and suppressed.
	Recovered
	// Propagated: the target failed, the fault was reported and is handed
	// back to the caller.
	Propagated
)

func (s Status) String() string {
	switch s {
	case Returned:
		return "returned"
	case Recovered:
		return "recovered"
	case Propagated:
		return "propagated"
	default:
		return "unknown"
	}
}

// Result is the outcome of Invoke.
type Result[R any] struct {
	Value  R
	Err    error  // the original error when Status is Propagated and the target returned one
	Fault  *Fault // nil when Status is Returned
	Status Status
}

// Report returns the report text, or "" when nothing failed.
func (r Result[R]) Report() string {
	if r.Fault == nil {
		return ""
	}
	return r.Fault.Report
}

// Get maps the result back onto a plain (value, error) return:
//   - Returned: the target's value and nil.
//   - Recovered: the zero value and nil. A suppressed fault looks exactly like
//     a zero return to the caller; only the report shows it happened.
//   - Propagated: the zero value and the original error, or a re-panic with
//     the original panic value.
func (r Result[R]) Get() (R, error) {
	var zero R
	switch r.Status {
	case Returned:
		return r.Value, nil
	case Propagated:
		if r.Fault != nil && r.Fault.Panicked() {
			panic(r.Fault.Value)
		}
		return zero, r.Err
	default:
		return zero, nil
	}
}

// Invoke runs fn under t. name heads the report; "" uses fn's own name. On
// success the value is returned untouched and nothing is reported.
func Invoke[R any](ctx context.Context, t *Tracker, name string, fn func(context.Context) (R, error)) Result[R] {
	return run(ctx, t, name, fn, nil, fn)
}

// Wrap0 returns fn wrapped by t, with the same signature.
func Wrap0[R any](t *Tracker, fn func(context.Context) (R, error)) func(context.Context) (R, error) {
	name := funcLocation(fn).Name()
	return func(ctx context.Context) (R, error) {
		return run(ctx, t, name, fn, nil, fn).Get()
	}
}

// Wrap1 returns fn wrapped by t, with the same signature. The argument is
// reported as arg0 in fn's frame.
func Wrap1[A, R any](t *Tracker, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	name := funcLocation(fn).Name()
	return func(ctx context.Context, a A) (R, error) {
		return run(ctx, t, name, fn, []any{a}, func(ctx context.Context) (R, error) {
			return fn(ctx, a)
		}).Get()
	}
}

// Wrap2 returns fn wrapped by t, with the same signature. The arguments are
// reported as arg0 and arg1 in fn's frame.
func Wrap2[A, B, R any](t *Tracker, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	name := funcLocation(fn).Name()
	return func(ctx context.Context, a A, b B) (R, error) {
		return run(ctx, t, name, fn, []any{a, b}, func(ctx context.Context) (R, error) {
			return fn(ctx, a, b)
		}).Get()
	}
}

func run[R any](ctx context.Context, t *Tracker, name string, target any, args []any, call func(context.Context) (R, error)) Result[R] {
	var value R
	fault := t.invoke(ctx, name, target, args, func(ctx context.Context) error {
		v, err := call(ctx)
		value = v
		return err
	})
	if fault == nil {
		return Result[R]{Value: value, Status: Returned}
	}
	res := Result[R]{Fault: fault, Status: Recovered}
	if t.reraise {
		res.Status = Propagated
		res.Err = fault.Err
	}
	return res
}
