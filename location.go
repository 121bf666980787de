// location.go - stack capture and traceback anchoring for errtrack.
//
// Design goals:
//   - Use runtime.Callers + runtime.CallersFrames for frame resolution
//     (handles inlined frames correctly).
//   - Present every traceback outer -> inner, with the wrapper's own
//     invocation frame at index 0.
//   - Keep runtime internals and this package's plumbing out of reports.
package errtrack

import (
	"reflect"
	"runtime"
	"strings"
)

// Location describes one point on a traceback.
type Location struct {
	PC       uintptr // program counter of the call return (0 when unknown)
	File     string  // file path as reported by the runtime or the error library
	Function string  // fully-qualified function name (pkg.Func or pkg.(*T).Method)
	Line     int     // line number
}

// Name returns the function name without its import path, e.g.
// "errtrack.(*Tracker).invoke" for "github.com/x/errtrack.(*Tracker).invoke".
func (l Location) Name() string {
	name := l.Function
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Traceback is an ordered list of locations, outermost call first.
type Traceback []Location

const (
	// defaultMaxDepth bounds captures made when an error value is built.
	defaultMaxDepth = 64

	// panicMaxDepth bounds captures made from a deferred recover. It is larger
	// because the runtime's panic machinery sits on top of the user frames.
	panicMaxDepth = 256
)

var (
	// pkgPath is the import path of this package; frames from its non-test
	// files are plumbing and never reported.
	pkgPath = reflect.TypeOf(Tracker{}).PkgPath()

	// invokeFunc is the runtime name of the frame that anchors every
	// traceback at its outer end.
	invokeFunc = pkgPath + ".(*Tracker).invoke"
)

// captureStack captures up to maxDepth frames, innermost first, skipping
// 'skip' frames above the caller of captureStack.
//
// Skip accounting: +1 for runtime.Callers, +1 for captureStack.
func captureStack(skip, maxDepth int) []Location {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	pc := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return nil
	}
	return resolvePCs(pc[:n])
}

// resolvePCs expands return PCs into locations, innermost first.
func resolvePCs(pcs []uintptr) []Location {
	if len(pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs)
	out := make([]Location, 0, len(pcs))
	for {
		fr, more := frames.Next()
		if fr.Function != "" || fr.File != "" {
			out = append(out, Location{
				PC:       fr.PC,
				File:     fr.File,
				Line:     fr.Line,
				Function: fr.Function,
			})
		}
		if !more {
			break
		}
	}
	return out
}

// anchor turns an innermost-first capture into an outer -> inner Traceback
// that starts at the wrapper's invocation frame.
//
// Frames beyond the invocation frame belong to the caller of the wrapper and
// are dropped. If the capture never passes through the invocation frame (the
// error was built on another goroutine, or before the call) everything is
// kept and a synthetic wrapper location is put in front.
func anchor(inner []Location) Traceback {
	kept := make([]Location, 0, len(inner)+1)
	found := false
	for _, loc := range inner {
		if loc.Function == invokeFunc {
			kept = append(kept, loc)
			found = true
			break
		}
		if isPlumbing(loc) {
			continue
		}
		kept = append(kept, loc)
	}
	if !found {
		kept = append(kept, wrapperLocation())
	}
	reverse(kept)
	return kept
}

// prependWrapper returns trace with the wrapper location in front; trace is
// already ordered outer -> inner.
func prependWrapper(trace []Location) Traceback {
	out := make(Traceback, 0, len(trace)+1)
	out = append(out, wrapperLocation())
	for _, loc := range trace {
		if isPlumbing(loc) {
			continue
		}
		out = append(out, loc)
	}
	return out
}

func wrapperLocation() Location {
	return Location{Function: invokeFunc}
}

// isPlumbing reports frames that never belong in a report: the Go runtime
// (panic machinery, goexit) and this package's own non-test files.
func isPlumbing(loc Location) bool {
	if strings.HasPrefix(loc.Function, "runtime.") {
		return true
	}
	if strings.HasPrefix(loc.Function, pkgPath+".") && !strings.HasSuffix(loc.File, "_test.go") {
		return true
	}
	return false
}

// funcLocation resolves the declaration site of fn. The zero Location is
// returned when fn is not a func or cannot be resolved.
//
// A method value (t.M) points at the compiler's "-fm" wrapper; its name is
// reported as the method's own so it matches the method's stack frames.
func funcLocation(fn any) Location {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Location{}
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return Location{}
	}
	file, line := f.FileLine(f.Entry())
	return Location{PC: f.Entry(), File: file, Line: line, Function: strings.TrimSuffix(f.Name(), methodValueSuffix)}
}

// methodValueSuffix marks the wrapper the compiler generates for a method
// value.
const methodValueSuffix = "-fm"

// callerFunction returns the runtime name of the function 'skip' frames above
// the caller of callerFunction.
func callerFunction(skip int) string {
	pc := make([]uintptr, 1)
	if runtime.Callers(skip+2, pc) == 0 {
		return ""
	}
	fr, _ := runtime.CallersFrames(pc).Next()
	return fr.Function
}

func reverse(locs []Location) {
	for i, j := 0, len(locs)-1; i < j; i, j = i+1, j-1 {
		locs[i], locs[j] = locs[j], locs[i]
	}
}

// typeRef names a type by import path and unqualified name, with a leading
// "*" for pointers and type arguments dropped.
type typeRef struct {
	pkg  string
	name string
}

// receiverType returns the receiver type of a method's runtime name, e.g.
// {"github.com/x/errtrack", "*calc"} for "github.com/x/errtrack.(*calc).div"
// and {"github.com/x/errtrack", "calc"} for "github.com/x/errtrack.calc.add".
// ok is false for plain functions and closures.
func receiverType(function string) (typeRef, bool) {
	slash := strings.LastIndexByte(function, '/') + 1
	rest := function[slash:]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return typeRef{}, false
	}
	// The runtime escapes dots in the last path element.
	pkg := strings.ReplaceAll(function[:slash+dot], "%2e", ".")
	sym := stripTypeArgs(rest[dot+1:])

	parts := strings.Split(sym, ".")
	if len(parts) < 2 {
		return typeRef{}, false
	}
	recv := parts[0]
	if strings.HasPrefix(recv, "(*") && strings.HasSuffix(recv, ")") {
		return typeRef{pkg: pkg, name: "*" + recv[2:len(recv)-1]}, true
	}
	if isClosureName(parts[1]) {
		return typeRef{}, false
	}
	return typeRef{pkg: pkg, name: recv}, true
}

// typeOf describes the dynamic type of v the way receiverType does. Unnamed
// types give the zero typeRef.
func typeOf(v any) typeRef {
	t := reflect.TypeOf(v)
	if t == nil {
		return typeRef{}
	}
	prefix := ""
	if t.Kind() == reflect.Pointer {
		prefix = "*"
		t = t.Elem()
	}
	if t.Name() == "" {
		return typeRef{}
	}
	return typeRef{pkg: t.PkgPath(), name: prefix + stripTypeArgs(t.Name())}
}

func isClosureName(s string) bool {
	if !strings.HasPrefix(s, "func") || len(s) == len("func") {
		return false
	}
	for _, r := range s[len("func"):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripTypeArgs removes bracketed type arguments, e.g. "(*box[...]).get" ->
// "(*box).get" and "box[int]" -> "box".
func stripTypeArgs(s string) string {
	if !strings.ContainsRune(s, '[') {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
