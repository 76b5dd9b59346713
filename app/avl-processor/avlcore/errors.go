package avlcore

import "fmt"

// invariant panics if cond is false. Used for conditions the orchestrator
// relies on never happening in practice (e.g. re-matching a vehicle that is
// not predictable) rather than expected, recoverable failures.
func invariant(cond bool, msg string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("avlcore: invariant violated: "+msg, args...))
	}
}
