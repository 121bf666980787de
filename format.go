// format.go - fmt.Formatter for errtrack errors.
//
// %s, %v and %q print Error() (quoted for %q). %+v prints the error in the
// vocabulary of a report, one section per line, empty sections omitted:
//
//	save failed
//	Function name: app.save, params: {path=/tmp/x, attempt=2}
//	Caused by: disk full
//	Traceback (innermost first):
//		app.save /src/app/save.go:41 (your code)
//		app.main /src/app/main.go:12 (your code)
//
// Params go through Truncate at DefaultTruncateLimit. A traced cause nests
// its own %+v block after "Caused by:".
package errtrack

import (
	"fmt"
	"io"
)

// Format implements fmt.Formatter.
func (e *tracedErr) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		e.writeDetail(s)
	case verb == 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}

func (e *tracedErr) writeDetail(w io.Writer) {
	nl := ""
	line := func(format string, args ...any) {
		_, _ = io.WriteString(w, nl)
		_, _ = fmt.Fprintf(w, format, args...)
		nl = "\n"
	}

	if e.msg != "" {
		line("%s", e.msg)
	}
	if e.fn != "" {
		line("Function name: %s, params: %s",
			Location{Function: e.fn}.Name(), Snapshot(e.ctx).Render(DefaultTruncateLimit))
	}
	if e.cause != nil {
		line("Caused by: %+v", e.cause)
	}
	if len(e.stk) > 0 {
		var r FrameReporter
		line("Traceback (innermost first):")
		for _, loc := range e.stk {
			line("\t%s %s:%d (%s)", loc.Name(), loc.File, loc.Line, r.Origin(loc.File))
		}
	}
}
