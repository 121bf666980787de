// traceback.go - building the outer -> inner traceback for a fault.
//
// Sources, in order of preference for a returned error:
//   - errors built by this package (NewError, Errorf, Wrap, WithStack);
//   - github.com/pkg/errors stacks;
//   - github.com/samsarahq/go/oops stacks;
//   - braces.dev/errtrace return traces;
//   - the target's declaration site when nothing else is known.
//
// A recovered panic always uses the goroutine stack seen from the deferred
// recover, which still includes the panicking frames.
package errtrack

import (
	"errors"

	"braces.dev/errtrace"
	pkgerrors "github.com/pkg/errors"
	"github.com/samsarahq/go/oops"
)

// stackTracer is implemented by github.com/pkg/errors values.
type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// panicTraceback captures the current goroutine stack. Called from a deferred
// recover it starts at the panic site.
func panicTraceback() Traceback {
	return anchor(captureStack(0, panicMaxDepth))
}

// errorTraceback derives a traceback for err returned by target.
func errorTraceback(err error, target any) Traceback {
	if stk := tracedStack(err); stk != nil {
		return anchor(stk)
	}
	if locs := pkgErrorsStack(err); len(locs) > 0 {
		return anchor(locs)
	}
	if locs := oopsStack(err); len(locs) > 0 {
		return anchor(locs)
	}
	if locs := returnTrace(err); len(locs) > 0 {
		return prependWrapper(locs)
	}
	return Traceback{wrapperLocation(), funcLocation(target)}
}

// carriesTrace reports whether err already holds a stack this package can
// read, so wrapping it need not capture another.
func carriesTrace(err error) bool {
	if tracedStack(err) != nil {
		return true
	}
	var st stackTracer
	if errors.As(err, &st) {
		return true
	}
	return len(oopsStack(err)) > 0
}

// pkgErrorsStack returns the innermost-first stack of the deepest pkg/errors
// value on the first branch of err's graph that has one.
func pkgErrorsStack(err error) []Location {
	st, _ := deepestMatch(err, func(e error) bool {
		_, ok := e.(stackTracer)
		return ok
	}).(stackTracer)
	if st == nil {
		return nil
	}
	trace := st.StackTrace()
	if len(trace) == 0 {
		return nil
	}
	pcs := make([]uintptr, len(trace))
	for i, f := range trace {
		// pkg/errors stores return addresses, which is what CallersFrames wants.
		pcs[i] = uintptr(f)
	}
	return resolvePCs(pcs)
}

// oopsStack returns the innermost-first stack closest to the causal error of
// an oops chain.
func oopsStack(err error) []Location {
	stacks := oops.Frames(err)
	if len(stacks) == 0 || len(stacks[0]) == 0 {
		return nil
	}
	out := make([]Location, 0, len(stacks[0]))
	for _, fr := range stacks[0] {
		out = append(out, Location{File: fr.File, Function: fr.Function, Line: fr.Line})
	}
	return out
}

// returnTrace collects errtrace return sites, outermost first, along the
// first branch of err's graph that carries any.
func returnTrace(err error) []Location {
	traced := matchPath(err, func(e error) bool {
		_, _, ok := errtrace.UnwrapFrame(e)
		return ok
	})
	if len(traced) == 0 {
		return nil
	}
	out := make([]Location, 0, len(traced))
	for _, e := range traced {
		frame, _, _ := errtrace.UnwrapFrame(e)
		out = append(out, Location{PC: frame.PC, File: frame.File, Function: frame.Function, Line: frame.Line})
	}
	return out
}
