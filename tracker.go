// tracker.go - transparent failure capture around a callable.
//
// Flow for one invocation:
//
//	Running -> Success                       (value returned, nothing reported)
//	Running -> Faulted -> BuildReport -> Dispatch -> Reraise | Suppress
//
// A fault is a panic escaping the target or a non-nil error it returns. The
// report is always dispatched before the reraise/suppress decision.
package errtrack

import (
	"context"
	"log/slog"
	"strconv"
)

// Sink receives a finished report. Sinks must not panic: a panicking sink is
// not recovered, escapes the invocation and masks the original fault.
type Sink func(report string)

// Logger is the default report destination. *slog.Logger satisfies it.
type Logger interface {
	Error(msg string, args ...any)
}

// Tracker holds the reporting configuration shared by every invocation it
// wraps. It is immutable after New and safe for concurrent use.
type Tracker struct {
	sinks    []Sink
	reraise  bool
	limit    int
	logger   Logger
	reporter FrameReporter
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSinks sends reports to sinks, in order, instead of the logger. Nil
// sinks are ignored.
func WithSinks(sinks ...Sink) Option {
	return func(t *Tracker) {
		for _, s := range sinks {
			if s != nil {
				t.sinks = append(t.sinks, s)
			}
		}
	}
}

// WithReraise makes a failed invocation propagate its fault after reporting:
// the original error is returned, or the original panic value is re-panicked.
// Without it faults are suppressed.
func WithReraise(reraise bool) Option {
	return func(t *Tracker) { t.reraise = reraise }
}

// WithTruncateLimit sets the maximum rendered length of a captured value.
// Values <= 0 keep DefaultTruncateLimit.
func WithTruncateLimit(limit int) Option {
	return func(t *Tracker) {
		if limit > 0 {
			t.limit = limit
		}
	}
}

// WithLogger sets the logger used when no sinks are configured. The default
// is slog.Default(), looked up when a report is dispatched.
func WithLogger(l Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithLibraryMarkers replaces DefaultLibraryMarkers for origin classification.
func WithLibraryMarkers(markers ...string) Option {
	return func(t *Tracker) {
		t.reporter.LibraryMarkers = append([]string{}, markers...)
	}
}

// WithSource sets the source line reader. The default is DefaultSource.
func WithSource(src SourceReader) Option {
	return func(t *Tracker) { t.reporter.Source = src }
}

// New returns a Tracker. With no options it suppresses faults, truncates
// values at DefaultTruncateLimit and logs reports with slog.Default().
func New(opts ...Option) *Tracker {
	t := &Tracker{limit: DefaultTruncateLimit}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reraise reports whether faults propagate after reporting.
func (t *Tracker) Reraise() bool { return t.reraise }

// TruncateLimit returns the configured truncation limit.
func (t *Tracker) TruncateLimit() int { return t.limit }

// Run tracks fn. With reraise set, a returned error comes back unchanged and
// a panic is re-panicked; otherwise Run returns nil after reporting.
func (t *Tracker) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	_, err := run(ctx, t, name, fn, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}).Get()
	return err
}

// invoke runs call under a fresh scope. It returns nil on success and the
// reported fault otherwise. This is the frame every traceback is anchored on.
func (t *Tracker) invoke(ctx context.Context, name string, target any, args []any, call func(context.Context) error) *Fault {
	if ctx == nil {
		ctx = context.Background()
	}
	sc := newScope()
	fault := guard(withScope(ctx, sc), target, call)
	if fault != nil {
		t.report(fault, name, target, args, sc)
	}
	return fault
}

// guard runs call and turns an escaping panic or a returned error into a
// Fault. Reporting happens outside guard so a panicking sink is not mistaken
// for a target panic.
func guard(ctx context.Context, target any, call func(context.Context) error) (fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = newPanicFault(r, panicTraceback())
		}
	}()
	if err := call(ctx); err != nil {
		return newErrorFault(err, errorTraceback(err, target))
	}
	return nil
}

// report snapshots every frame of f, renders the report and dispatches it.
func (t *Tracker) report(f *Fault, name string, target any, args []any, sc *scope) {
	if name == "" {
		name = funcLocation(target).Name()
	}
	// The target's arguments come first in its frame, then whatever it
	// registered with Locals.
	targetFunc := funcLocation(target).Function
	argFields := make(fields, len(args))
	for i, a := range args {
		argFields[i] = Field{Key: argName(i), Val: a}
	}

	var bindings map[string]fields
	if f.Err != nil {
		bindings = tracedBindings(f.Err)
	}
	f.Frames = make([]Snapshot, len(f.Traceback))
	for i, loc := range f.Traceback {
		fs := sc.lookup(loc.Function)
		if loc.Function == targetFunc && len(argFields) > 0 {
			fs = merge(argFields, fs)
		}
		fs = merge(fs, bindings[loc.Function])
		f.Frames[i] = Snapshot(withoutReceiver(loc.Function, fs))
	}

	f.Report = t.reporter.buildReport(name, f.Traceback, f.Frames, t.limit, f.RootCause())
	t.dispatch(f.Report)
}

// dispatch hands report to every sink in order, or to the logger when no
// sinks are configured.
func (t *Tracker) dispatch(report string) {
	if len(t.sinks) > 0 {
		for _, s := range t.sinks {
			s(report)
		}
		return
	}
	l := t.logger
	if l == nil {
		l = defaultLogger()
	}
	l.Error(report)
}

// defaultLogger is the process-wide logger used when none was configured.
func defaultLogger() Logger {
	return slog.Default()
}

func argName(i int) string {
	return "arg" + strconv.Itoa(i)
}
