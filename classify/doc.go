// Package classify walks a freshly loaded profile graph and the program's
// IR together, upgrading the raw Unconditional edges the profile package
// produced into Conditional, Call, Return, and Imaginary edges, and seeding
// every Call edge with its Returns bookkeeping record.
//
// Run applies four passes in order: conditional upgrade, call upgrade
// (which also matches dynamic returns as it goes), imaginary anchoring of
// program entry/exit, and fake-recursion removal. Each pass only adds and
// removes edges — node identities never change here, only their incident
// edge set.
package classify
