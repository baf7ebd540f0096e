// Package corpora turns a project's historical fuzzing corpora into build
// steps that download them.
//
// Dataflow and coverage builds replay accumulated corpus backups instead of
// fuzzing from scratch. The provider discovers which targets have backups,
// signs a read URL for each, and batches the downloads into runner-image
// steps that share one corpus volume with whichever step consumes them.
package corpora
