// sink.go - ready-made report sinks.
package errtrack

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// LoggerSink logs each report at error level on l.
func LoggerSink(l Logger) Sink {
	return func(report string) { l.Error(report) }
}

// WriterSink writes each report to w. Write errors are ignored; reporting
// never fails the tracked call.
func WriterSink(w io.Writer) Sink {
	return func(report string) {
		_, _ = io.WriteString(w, report)
	}
}

// ColorSink writes each report to w with separators dimmed and the ROOT
// CAUSE line in bold red. enabled forces colors on or off regardless of
// whether w is a terminal.
func ColorSink(w io.Writer, enabled bool) Sink {
	sep := color.New(color.Faint)
	cause := color.New(color.FgRed, color.Bold)
	head := color.New(color.FgYellow)
	for _, c := range []*color.Color{sep, cause, head} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return func(report string) {
		var b strings.Builder
		for _, line := range strings.SplitAfter(report, "\n") {
			body := strings.TrimSuffix(line, "\n")
			nl := line[len(body):]
			switch {
			case body == separator, strings.TrimSpace(body) == "-----":
				b.WriteString(sep.Sprint(body))
			case strings.HasPrefix(body, "\t-->ROOT CAUSE:"):
				b.WriteString(cause.Sprint(body))
			case strings.HasPrefix(body, "Error in function "):
				b.WriteString(head.Sprint(body))
			default:
				b.WriteString(body)
			}
			b.WriteString(nl)
		}
		_, _ = io.WriteString(w, b.String())
	}
}

// FileSink appends each report to the file at path, creating it if needed.
// When the file cannot be written the report goes to stderr instead, with
// the reason, so it is never lost.
func FileSink(path string) Sink {
	return func(report string) {
		if err := appendFile(path, report); err != nil {
			fmt.Fprintf(os.Stderr, "errtrack: file sink %s: %v\n%s", path, err, report)
		}
	}
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, text); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
