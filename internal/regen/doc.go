// Package regen turns discovered work items into executor tasks. A task runs
// gir for one crate, or, in documentation mode, the strip, doc-generation and
// embed sub-steps for that crate one after the other.
//
// gir never prints to stdout. Any stdout from a gir run, even one that exits
// successfully, fails the task: it means the generator's logging went out of
// order and its results cannot be trusted.
package regen
