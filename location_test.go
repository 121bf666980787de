// location_test.go - stack capture, anchoring and name parsing.
package errtrack

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers to build a known call chain -------------------------------------

func stackGrab(skipExtra int) []Location {
	return captureStack(skipExtra+1, defaultMaxDepth)
}

func stackTestLevel2(skipExtra int) []Location {
	// First recorded frame with skipExtra=0 should be this function.
	return stackGrab(skipExtra)
}

func stackTestLevel1(skipExtra int) []Location {
	// With skipExtra=1, first recorded frame should be THIS function.
	return stackTestLevel2(skipExtra)
}

// --- Tests -------------------------------------------------------------------

func TestCaptureStack_RespectsMaxDepthLimit(t *testing.T) {
	t.Parallel()

	const limit = 3
	s := captureStack(0, limit)
	require.NotEmpty(t, s)
	assert.LessOrEqual(t, len(s), limit)
}

func TestCaptureStack_UsesDefaultWhenMaxDepthZero(t *testing.T) {
	t.Parallel()

	s := captureStack(0, 0)
	require.NotEmpty(t, s)
	assert.LessOrEqual(t, len(s), defaultMaxDepth)
}

func TestCaptureStack_SkipExtraSkipsCorrectFrames(t *testing.T) {
	t.Parallel()

	s0 := stackTestLevel1(0)
	require.NotEmpty(t, s0)
	assert.True(t, strings.HasSuffix(s0[0].Function, "stackTestLevel2"), s0[0].Function)

	s1 := stackTestLevel1(1)
	require.NotEmpty(t, s1)
	assert.True(t, strings.HasSuffix(s1[0].Function, "stackTestLevel1"), s1[0].Function)
}

func TestCaptureStack_ReturnsNilWhenNoFramesCaptured(t *testing.T) {
	t.Parallel()

	const absurdSkip = 1 << 20
	assert.Nil(t, captureStack(absurdSkip, 16))
}

func TestCaptureStack_MetadataPresence(t *testing.T) {
	t.Parallel()

	s := stackTestLevel1(0)
	require.NotEmpty(t, s)
	for i := 0; i < min(len(s), 3); i++ {
		fr := s[i]
		assert.NotZero(t, fr.PC, "frame %d", i)
		assert.NotEmpty(t, fr.Function, "frame %d", i)
		assert.NotEmpty(t, fr.File, "frame %d", i)
		assert.Positive(t, fr.Line, "frame %d", i)
	}
}

func TestLocationName_StripsImportPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"github.com/x/errtrack.(*Tracker).invoke": "errtrack.(*Tracker).invoke",
		"main.main":                               "main.main",
		"":                                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Location{Function: in}.Name(), in)
	}
}

func TestAnchor_StopsAtInvocationFrame(t *testing.T) {
	t.Parallel()

	inner := []Location{
		{Function: pkgPath + ".guard.func1", File: "/m/tracker.go"},
		{Function: "runtime.gopanic", File: "/go/src/runtime/panic.go"},
		{Function: "app.inner", File: "/src/app/a.go", Line: 3},
		{Function: "app.outer", File: "/src/app/a.go", Line: 9},
		{Function: pkgPath + ".run[...].func1", File: "/m/result.go"},
		{Function: invokeFunc, File: "/m/tracker.go", Line: 120},
		{Function: "app.caller", File: "/src/app/main.go"},
		{Function: "runtime.goexit", File: "/go/src/runtime/asm.s"},
	}

	trace := anchor(inner)
	require.Len(t, trace, 3)
	assert.Equal(t, invokeFunc, trace[0].Function)
	assert.Equal(t, "app.outer", trace[1].Function)
	assert.Equal(t, "app.inner", trace[2].Function)
}

func TestAnchor_SynthesizesWrapperWhenMissing(t *testing.T) {
	t.Parallel()

	trace := anchor([]Location{
		{Function: "app.inner"},
		{Function: "app.worker"},
	})
	require.Len(t, trace, 3)
	assert.Equal(t, wrapperLocation(), trace[0])
	assert.Equal(t, "app.worker", trace[1].Function)
	assert.Equal(t, "app.inner", trace[2].Function)
}

func TestIsPlumbing_KeepsTestFiles(t *testing.T) {
	t.Parallel()

	assert.True(t, isPlumbing(Location{Function: "runtime.panicdivide"}))
	assert.True(t, isPlumbing(Location{Function: pkgPath + ".guard", File: "/m/tracker.go"}))
	assert.False(t, isPlumbing(Location{Function: pkgPath + ".TestX", File: "/m/tracker_test.go"}))
	assert.False(t, isPlumbing(Location{Function: "app.main", File: "/src/app/main.go"}))
}

func TestFuncLocation(t *testing.T) {
	t.Parallel()

	loc := funcLocation(stackTestLevel1)
	assert.Equal(t, pkgPath+".stackTestLevel1", loc.Function)
	assert.True(t, strings.HasSuffix(loc.File, "location_test.go"), loc.File)
	assert.Positive(t, loc.Line)

	assert.Equal(t, Location{}, funcLocation(nil))
	assert.Equal(t, Location{}, funcLocation(42))
	var nilFn func()
	assert.Equal(t, Location{}, funcLocation(nilFn))
}

func TestReceiverType(t *testing.T) {
	t.Parallel()

	const p = "github.com/x/errtrack"
	cases := []struct {
		in   string
		want typeRef
		ok   bool
	}{
		{p + ".(*calc).div", typeRef{p, "*calc"}, true},
		{p + ".calc.add", typeRef{p, "calc"}, true},
		{p + ".(*box[...]).get", typeRef{p, "*box"}, true},
		{p + ".(*calc).div.func1", typeRef{p, "*calc"}, true},
		{"github.com/x/err%2etrack.(*calc).div", typeRef{"github.com/x/err.track", "*calc"}, true},
		{"main.calc.add", typeRef{"main", "calc"}, true},
		{p + ".divide", typeRef{}, false},
		{p + ".divide.func1", typeRef{}, false},
		{"main.main", typeRef{}, false},
		{"nodot", typeRef{}, false},
	}
	for _, tc := range cases {
		got, ok := receiverType(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

type box[T any] struct{ v T }

func TestTypeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, typeRef{pkgPath, "*calc"}, typeOf(&calc{}))
	assert.Equal(t, typeRef{pkgPath, "calc"}, typeOf(calc{}))
	assert.Equal(t, typeRef{pkgPath, "*box"}, typeOf(&box[int]{}))
	assert.Equal(t, typeRef{"bytes", "*Buffer"}, typeOf(&bytes.Buffer{}))
	assert.Equal(t, typeRef{"", "int"}, typeOf(3))
	assert.Equal(t, typeRef{}, typeOf(nil))
	assert.Equal(t, typeRef{}, typeOf([]int{1}))
}

type wallet struct{ cents int }

func (w *wallet) spend(_ context.Context, n int) (int, error) {
	return w.cents / n, nil
}

func TestFuncLocation_MethodValue(t *testing.T) {
	t.Parallel()

	w := &wallet{cents: 10}
	loc := funcLocation(w.spend)
	assert.Equal(t, pkgPath+".(*wallet).spend", loc.Function)
	assert.Equal(t, "xgx-errtrack.(*wallet).spend", loc.Name())
}
