// fault.go - the captured failure of a tracked invocation.
package errtrack

import "strings"

// Kind classifies how a target failed.
type Kind string

const (
	// KindPanic is a panic that escaped the target.
	KindPanic Kind = "panic"
	// KindError is a non-nil error returned by the target.
	KindError Kind = "error"
)

func (k Kind) String() string { return string(k) }

// Fault is what a Tracker captured for one failed invocation.
type Fault struct {
	// Value is the recovered panic value; nil when the target returned an error.
	Value any
	// Err is the error the target returned; nil when it panicked.
	Err error
	// Traceback lists the frames the fault travelled through, outer -> inner,
	// starting with the wrapper's own frame.
	Traceback Traceback
	// Frames holds the bindings captured for each Traceback entry.
	Frames []Snapshot
	// Report is the text handed to the sinks or the logger.
	Report string

	panicked bool
}

// Kind reports whether the fault is a panic or a returned error.
func (f *Fault) Kind() Kind {
	if f.panicked {
		return KindPanic
	}
	return KindError
}

// Panicked reports whether the target panicked.
func (f *Fault) Panicked() bool { return f.panicked }

// Error describes the fault on one line.
func (f *Fault) Error() string { return f.RootCause() }

// Unwrap returns the returned error, or the panic value when it is an error.
func (f *Fault) Unwrap() error {
	if f.Err != nil {
		return f.Err
	}
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// RootCause is the most specific message for the fault: "panic: <value>" or
// "error: <message>", cut to the first line. Error values that carry a stack
// in their message (oops) put the message on the first line.
func (f *Fault) RootCause() string {
	if f.panicked {
		return string(KindPanic) + ": " + firstLine(formatValue(f.Value))
	}
	if f.Err == nil {
		return string(KindError)
	}
	return string(KindError) + ": " + firstLine(f.Err.Error())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "\r")
}

func newPanicFault(v any, trace Traceback) *Fault {
	return &Fault{Value: v, Traceback: trace, panicked: true}
}

func newErrorFault(err error, trace Traceback) *Fault {
	return &Fault{Err: err, Traceback: trace}
}
