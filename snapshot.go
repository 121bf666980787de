// snapshot.go - per-frame local variable snapshots.
package errtrack

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultTruncateLimit is the number of characters a rendered value may span
// before it is cut and marked with Ellipsis.
const DefaultTruncateLimit = 32

// Ellipsis marks a truncated value.
const Ellipsis = "..."

// Snapshot is the set of bindings captured for one frame, in registration
// order.
type Snapshot []Field

// Get returns the value bound to key.
func (s Snapshot) Get(key string) (any, bool) {
	for _, f := range s {
		if f.Key == key {
			return f.Val, true
		}
	}
	return nil, false
}

// Render formats the snapshot as "{k=v, k2=v2}" with every value passed
// through Truncate. Rendering does not touch the underlying values.
func (s Snapshot) Render(limit int) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(Truncate(formatValue(f.Val), limit))
	}
	b.WriteByte('}')
	return b.String()
}

// Truncate returns text unchanged when it spans at most limit characters, and
// otherwise its first limit characters followed by Ellipsis. A limit <= 0
// means DefaultTruncateLimit.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultTruncateLimit
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + Ellipsis
		}
		n++
	}
	return text
}

// formatValue renders v with %v. fmt already turns a panicking String or
// Error method into a "%!v(PANIC=...)" marker, so this never fails.
func formatValue(v any) string {
	return fmt.Sprintf("%v", v)
}

// withoutReceiver drops bindings whose dynamic type is the receiver type of
// function, matched by import path and name, so methods don't dump their
// owning value.
func withoutReceiver(function string, fs fields) fields {
	recv, ok := receiverType(function)
	if !ok || len(fs) == 0 {
		return fs
	}
	out := make(fields, 0, len(fs))
	for _, f := range fs {
		if typeOf(f.Val) == recv {
			continue
		}
		out = append(out, f)
	}
	return out
}
