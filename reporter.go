// reporter.go - rendering of one frame block and whole reports.
//
// Block layout:
//
//	===================================================
//	Filename: /src/app/calc.go,
//	Function name: app.divide, params: {a=1, b=0}
//		-----
//		Line: 12, 	return a / b
//		-->ROOT CAUSE: panic: runtime error: integer divide by zero
//		-----
//		Note: This error is from your code
//
// The ROOT CAUSE line only appears on the innermost block of a report.
package errtrack

import (
	"fmt"
	"strings"
)

const separator = "==================================================="

// Origin labels.
const (
	OriginLibrary = "site-packages"
	OriginApp     = "your code"
)

// DefaultLibraryMarkers are the path substrings that mark a frame as library
// code: site-packages install trees, the Go module cache and vendored
// dependencies.
var DefaultLibraryMarkers = []string{"site-packages", "/pkg/mod/", "/vendor/"}

// FrameReporter renders frame blocks.
type FrameReporter struct {
	// Source looks up the failing statement. Nil means DefaultSource.
	Source SourceReader

	// LibraryMarkers overrides DefaultLibraryMarkers when non-nil.
	LibraryMarkers []string
}

// Origin classifies file as library code (OriginLibrary) when it contains any
// library marker, and as application code (OriginApp) otherwise. This is a
// plain substring test on the whole path.
func (r *FrameReporter) Origin(file string) string {
	markers := r.LibraryMarkers
	if markers == nil {
		markers = DefaultLibraryMarkers
	}
	for _, m := range markers {
		if m != "" && strings.Contains(file, m) {
			return OriginLibrary
		}
	}
	return OriginApp
}

// Render formats one frame block. snap values are truncated to limit
// characters; rootCause is printed only when non-empty. Missing data renders
// as empty fields.
func (r *FrameReporter) Render(loc Location, snap Snapshot, limit int, rootCause string) string {
	var b strings.Builder
	r.render(&b, loc, snap, limit, rootCause)
	return b.String()
}

func (r *FrameReporter) render(b *strings.Builder, loc Location, snap Snapshot, limit int, rootCause string) {
	b.WriteString(separator)
	b.WriteByte('\n')
	fmt.Fprintf(b, "Filename: %s,\n", loc.File)
	fmt.Fprintf(b, "Function name: %s, params: %s\n", loc.Name(), snap.Render(limit))
	b.WriteString("\t-----\n")
	fmt.Fprintf(b, "\tLine: %d, %s\n", loc.Line, r.sourceLine(loc))
	if rootCause != "" {
		fmt.Fprintf(b, "\t-->ROOT CAUSE: %s\n", rootCause)
	}
	b.WriteString("\t-----\n")
	fmt.Fprintf(b, "\tNote: This error is from %s\n", r.Origin(loc.File))
}

func (r *FrameReporter) sourceLine(loc Location) (line string) {
	src := r.Source
	if src == nil {
		src = DefaultSource
	}
	// A custom reader must not be able to abort the report.
	defer func() {
		if recover() != nil {
			line = ""
		}
	}()
	return trimLineEnd(src.Line(loc.File, loc.Line))
}

// header starts every report.
func header(name string) string {
	return fmt.Sprintf("Error in function %s\n", name)
}

// buildReport renders the header followed by one block per (location,
// snapshot) pair. The two lists are zipped by position and truncated to the
// shorter one; the first pair is the wrapper's own frame and is skipped. The
// root cause goes on the last zipped pair only.
func (r *FrameReporter) buildReport(name string, trace Traceback, frames []Snapshot, limit int, rootCause string) string {
	n := min(len(trace), len(frames))

	var b strings.Builder
	b.WriteString(header(name))
	for i := 1; i < n; i++ {
		cause := ""
		if i == n-1 {
			cause = rootCause
		}
		r.render(&b, trace[i], frames[i], limit, cause)
	}
	return b.String()
}
