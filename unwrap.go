// unwrap.go - traversal of error graphs for traceback and binding lookup.
//
// Returned errors are trees, not chains: errors.Join and fmt.Errorf with
// several %w produce nodes with Unwrap() []error. Stacks and bindings may sit
// under any branch, so lookups walk the whole graph.
//
// Semantics:
//   - walk:      pre-order DFS, left to right, with each node's depth below
//                the root. Stops when visit returns false.
//   - matchPath: the matching nodes on the first branch that has any,
//                outermost first.
//
// Cycle guard: only pointer nodes are tracked, by address; any cycle passes
// through one. Depth is capped at maxWalkDepth.
package errtrack

import "reflect"

type singleUnwrapper interface{ Unwrap() error }
type multiUnwrapper interface{ Unwrap() []error }

const maxWalkDepth = 1 << 12

type seenSet map[uintptr]struct{}

// mark reports whether err is seen for the first time.
func (s seenSet) mark(err error) bool {
	rv := reflect.ValueOf(err)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return true
	}
	id := rv.Pointer()
	if _, dup := s[id]; dup {
		return false
	}
	s[id] = struct{}{}
	return true
}

// walk visits the nodes of err's unwrap graph in pre-order. A pointer node
// reachable along several paths is visited once.
func walk(err error, visit func(e error, depth int) bool) {
	if err == nil {
		return
	}
	type frame struct {
		e     error
		depth int
	}
	seen := make(seenSet, 8)
	seen.mark(err)
	stack := []frame{{e: err}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(cur.e, cur.depth) {
			return
		}
		if cur.depth+1 >= maxWalkDepth {
			continue
		}

		switch u := cur.e.(type) {
		case multiUnwrapper:
			kids := u.Unwrap()
			// Push in reverse so the leftmost child is visited first.
			for i := len(kids) - 1; i >= 0; i-- {
				if kids[i] != nil && seen.mark(kids[i]) {
					stack = append(stack, frame{e: kids[i], depth: cur.depth + 1})
				}
			}
		case singleUnwrapper:
			if next := u.Unwrap(); next != nil && seen.mark(next) {
				stack = append(stack, frame{e: next, depth: cur.depth + 1})
			}
		}
	}
}

// matchPath returns the nodes satisfying match along the first branch of
// err's graph that contains one, outermost first. Once a match is found the
// walk stays inside the subtree below the most recent match.
func matchPath(err error, match func(error) bool) []error {
	var path []error
	last := -1
	walk(err, func(e error, depth int) bool {
		if len(path) > 0 && depth <= last {
			return false
		}
		if match(e) {
			path = append(path, e)
			last = depth
		}
		return true
	})
	return path
}

// deepestMatch is the innermost node of matchPath, or nil.
func deepestMatch(err error, match func(error) bool) error {
	path := matchPath(err, match)
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}
