// fields.go - ordered key/value bindings for errtrack.
//
// Design:
//   - Internal representation: append-only []Field (deterministic order).
//   - Builders are non-mutating: return NEW slices (no aliasing).
//   - Rendering happens late, at report time, so values reflect the moment
//     of failure rather than the moment of registration where callers pass
//     reference types.
package errtrack

// Field is one named binding: a captured local variable, a wrapped target's
// argument, or a key/value attached to an error.
type Field struct {
	Key string
	Val any
}

// fields is the internal immutable representation of a set of bindings.
// Treat it as append-only; never modify elements in place once published.
type fields []Field

// emptyFields is a canonical empty set.
var emptyFields = make(fields, 0)

// cloneAppend returns a NEW slice with dst's contents followed by add.
// It always allocates a fresh backing array to avoid aliasing via append.
func cloneAppend(dst fields, add ...Field) fields {
	n, m := len(dst), len(add)
	if n+m == 0 {
		return emptyFields
	}
	out := make(fields, n+m)
	copy(out, dst)
	copy(out[n:], add)
	return out
}

// fieldsFromKV parses a variadic list of key-value arguments into fields.
//
// Rules:
//   - Pairs are read left-to-right as (key, value).
//   - Keys MUST be strings; a non-string key drops the ENTIRE PAIR (the key
//     and its following value, if any) so later pairs stay aligned.
//   - A trailing key with no value becomes (key, nil).
func fieldsFromKV(kv ...any) fields {
	if len(kv) == 0 {
		return emptyFields
	}
	out := make(fields, 0, len(kv)/2+1)
	for i := 0; i < len(kv); {
		k, ok := kv[i].(string)
		if !ok {
			if i+1 < len(kv) {
				i += 2
			} else {
				i++
			}
			continue
		}
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
			i += 2
		} else {
			i++
		}
		out = append(out, Field{Key: k, Val: v})
	}
	if len(out) == 0 {
		return emptyFields
	}
	return out
}

// merge overlays add onto dst: a key already present keeps its position and
// takes the newer value, new keys are appended in order. dst is not modified.
func merge(dst fields, add fields) fields {
	if len(add) == 0 {
		return dst
	}
	out := cloneAppend(dst)
	index := make(map[string]int, len(out)+len(add))
	for i, f := range out {
		index[f.Key] = i
	}
	for _, f := range add {
		if i, ok := index[f.Key]; ok {
			out[i].Val = f.Val
			continue
		}
		index[f.Key] = len(out)
		out = append(out, f)
	}
	return out
}
