// Package ledger records the identifiers of submitted builds.
//
// Histories are bounded: each project and flavor keeps its most recent
// builds, newest last, and silently forgets older ones. Appends run under
// snapshot isolation with automatic retry, so concurrent recorders never
// lose an identifier to a write race.
package ledger
