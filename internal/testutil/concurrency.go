package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// ExecutionRecord holds the start and end times of one fake tool run.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Record returns the execution window of the invocation.
func (inv Invocation) Record() ExecutionRecord {
	return ExecutionRecord{Start: time.Unix(0, inv.Start), End: time.Unix(0, inv.End)}
}

// Overlaps reports whether two runs were alive at the same time.
func (r ExecutionRecord) Overlaps(o ExecutionRecord) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// InvocationWith returns the single invocation whose arguments contain
// every given substring, failing the test otherwise.
func InvocationWith(t *testing.T, invs []Invocation, substrings ...string) Invocation {
	t.Helper()
	var found []Invocation
	for _, inv := range invs {
		joined := strings.Join(inv.Args, " ")
		ok := true
		for _, s := range substrings {
			if !strings.Contains(joined, s) {
				ok = false
				break
			}
		}
		if ok {
			found = append(found, inv)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one invocation with %s, found %d", fmt.Sprint(substrings), len(found))
	}
	return found[0]
}

// MaxConcurrent returns the highest number of runs alive at any instant.
func MaxConcurrent(invs []Invocation) int {
	best := 0
	for _, a := range invs {
		n := 0
		for _, b := range invs {
			if b.Start <= a.Start && a.Start < b.End {
				n++
			}
		}
		best = max(best, n)
	}
	return best
}
