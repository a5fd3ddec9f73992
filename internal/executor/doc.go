// Package executor runs independent tasks concurrently and hands their
// results back in the order they finish.
//
// # How It Works
//
// Launch starts one goroutine per Task immediately (or as slots free up when
// Options.Jobs is set) and returns a Set. Set.Next yields the next task to
// complete, whichever it is, so a task launched first but finishing last is
// also reported last. Every Result carries the task's complete log text; the
// consumer never sees a partially written log.
//
// Drain is the usual consumer: it forwards successful results to a callback
// and returns the first failure straight away. Running siblings are left to
// finish on their own; only tasks that have not started yet are held back.
// The results channel is buffered for every task, so abandoned goroutines
// never block.
package executor
