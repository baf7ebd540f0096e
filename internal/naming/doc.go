// Package naming derives the storage addresses of build artifacts.
//
// Every artifact address is a pure function of the project, sanitizer,
// engine, architecture, and a caller-supplied clock, so two compilations of
// the same inputs name the same objects. Signed URLs wrap those addresses
// with time-boxed write authority; the plans that embed them never hold
// credentials themselves.
package naming
