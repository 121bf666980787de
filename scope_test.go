package errtrack

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordTwice(ctx context.Context) {
	Locals(ctx, "a", 1, "b", 2)
	Locals(ctx, "b", 3, "c", 4)
}

func TestLocals_KeyedByCaller(t *testing.T) {
	t.Parallel()

	sc := newScope()
	ctx := withScope(context.Background(), sc)
	recordTwice(ctx)

	assert.Equal(t, fields{{Key: "a", Val: 1}, {Key: "b", Val: 3}, {Key: "c", Val: 4}},
		sc.lookup(pkgPath+".recordTwice"))
	assert.Nil(t, sc.lookup(pkgPath+".TestLocals_KeyedByCaller"))
}

func TestLocals_NoScopeIsNoop(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		Locals(context.Background(), "a", 1)
		Locals(nil, "a", 1)
	})
	assert.Nil(t, scopeFrom(context.Background()))
}

func TestLocals_ConcurrentGoroutines(t *testing.T) {
	t.Parallel()

	sc := newScope()
	ctx := withScope(context.Background(), sc)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Locals(ctx, "k", i)
		}(i)
	}
	wg.Wait()

	var got fields
	sc.mu.Lock()
	for _, fs := range sc.locals {
		got = append(got, fs...)
	}
	sc.mu.Unlock()
	require.Len(t, got, 1, "every goroutine closure shares one name and one key")
	assert.Equal(t, "k", got[0].Key)
}

func TestRecord_IgnoresEmpty(t *testing.T) {
	t.Parallel()

	sc := newScope()
	sc.record("f", nil)
	sc.record("f", emptyFields)
	assert.Empty(t, sc.locals)
}

func TestFieldsFromKV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kv   []any
		want fields
	}{
		{"empty", nil, emptyFields},
		{"pairs", []any{"a", 1, "b", "x"}, fields{{"a", 1}, {"b", "x"}}},
		{"trailing key", []any{"a", 1, "b"}, fields{{"a", 1}, {"b", nil}}},
		{"non-string key drops pair", []any{1, "lost", "a", 2}, fields{{"a", 2}}},
		{"trailing non-string key", []any{"a", 1, 99}, fields{{"a", 1}}},
		{"only bad keys", []any{1, 2}, emptyFields},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, fieldsFromKV(tc.kv...))
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := fields{{"a", 1}, {"b", 2}}
	got := merge(base, fields{{"b", 20}, {"c", 30}})
	assert.Equal(t, fields{{"a", 1}, {"b", 20}, {"c", 30}}, got)
	assert.Equal(t, fields{{"a", 1}, {"b", 2}}, base, "input must not be modified")

	assert.Equal(t, base, merge(base, nil))
	assert.Equal(t, fields{{"x", 1}}, merge(nil, fields{{"x", 1}}))
}

func TestCloneAppend_NoAliasing(t *testing.T) {
	t.Parallel()

	base := make(fields, 1, 4)
	base[0] = Field{"a", 1}
	x := cloneAppend(base, Field{"b", 2})
	y := cloneAppend(base, Field{"c", 3})
	assert.Equal(t, "b", x[1].Key)
	assert.Equal(t, "c", y[1].Key)
	assert.Empty(t, cloneAppend(nil))
}
