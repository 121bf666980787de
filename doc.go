// Package errtrack wraps a callable so that, when it fails, the full call
// stack of the failure is reported as a plain-text diagnostic: file, function,
// line, source text and the bindings recorded for every frame.
//
// # Faults
//
// A tracked invocation fails when the target panics or returns a non-nil
// error. Either way the tracker:
//
//  1. builds a traceback, outer -> inner, starting at its own frame;
//  2. snapshots the bindings recorded for each frame;
//  3. renders one block per frame, skipping its own frame, with the root
//     cause on the innermost block only;
//  4. hands the report to every configured sink in order, or to the logger;
//  5. suppresses the fault, or propagates it when reraise is set.
//
// Suppression changes the wrapped function's contract: a failed call returns
// the zero value and a nil error, indistinguishable from a zero result
// without looking at the report.
//
// # Usage
//
//	t := errtrack.New(errtrack.WithReraise(true))
//	divide := errtrack.Wrap2(t, func(ctx context.Context, a, b int) (int, error) {
//		return a / b, nil
//	})
//	_, _ = divide(ctx, 1, 0) // reports, then re-panics with the runtime error
//
// Invoke exposes the three-way outcome (Returned, Recovered, Propagated)
// together with the captured Fault when the plain signature is not enough.
//
// # Bindings
//
// Go cannot read another frame's locals, so frames report what was recorded
// for them:
//
//   - the wrapped target's arguments, as arg0, arg1, ...;
//   - Locals(ctx, kv...) calls made during the invocation;
//   - key/values attached with Wrap(err, msg, kv...).
//
// For methods, bindings whose type is the receiver type are left out. Values
// are rendered with %v when the report is built and cut to the truncation
// limit (DefaultTruncateLimit characters, then "...").
//
// # Tracebacks for returned errors
//
// A returned error is only as informative as the stack it carries. Errors
// built with NewError, Errorf, Wrap or WithStack carry one, as do github.com/pkg/errors
// and github.com/samsarahq/go/oops values; braces.dev/errtrace return traces
// are used as-is. A bare error reports the target's declaration site.
//
// # Origin
//
// A frame whose file path contains a library marker ("site-packages",
// "/pkg/mod/", "/vendor/" by default) is labelled as coming from
// site-packages; everything else is labelled as your code.
//
// # Sinks
//
// Sinks are plain func(string) values and must not panic: a panicking sink
// escapes the invocation and hides the original fault. LoggerSink,
// WriterSink, ColorSink and FileSink cover the common destinations, and
// LoadConfig builds the same setup from a TOML or YAML file.
package errtrack
