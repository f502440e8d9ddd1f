// Package trace provides functions to read environment variables for
// enabling trace targets in the library.
package trace

import (
	"os"
	"strconv"

	"github.com/go-corelib/gitcore/utils/trace"
)

// envToTarget maps what environment variables can be used
// to enable specific trace targets.
var envToTarget = map[string]trace.Target{
	"GITCORE_TRACE_CACHE":    trace.Cache,
	"GITCORE_TRACE_TREEWALK": trace.TreeWalk,
	"GITCORE_TRACE_REVWALK":  trace.RevWalk,
}

// ReadEnv reads the environment variables and sets the trace targets.
// This is used to enable tracing in this module.
func ReadEnv() {
	var target trace.Target
	for k, v := range envToTarget {
		env := os.Getenv(k)
		if val, _ := strconv.ParseBool(env); val {
			target |= v
		}
	}
	trace.SetTarget(target)
}
