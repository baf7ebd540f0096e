// Describes the capabilities of the supported fuzzing engines.
//
// Each engine declares the sanitizers it can instrument for, the
// architectures it can target, and the GCS bucket its release archives are
// uploaded to. Plan assembly consults this table to decide which
// engine/sanitizer/architecture combinations produce a build and which are
// silently skipped.
package engine
