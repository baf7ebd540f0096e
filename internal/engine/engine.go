package engine

import "slices"

// Capability entry for one fuzzing engine.
type Info struct {
	UploadBucket  string   // Base name of the GCS bucket receiving release archives.
	Sanitizers    []string // Sanitizers the engine can instrument for.
	Architectures []string // Architectures the engine can produce binaries for.
}

// Capability table for every recognized fuzzing engine. The zoo is small and
// changes rarely, so the table is fixed at compile time.
var engines = map[string]Info{
	"libfuzzer": {
		UploadBucket:  "clusterfuzz-builds",
		Sanitizers:    []string{"address", "memory", "undefined"},
		Architectures: []string{"i386", "x86_64"},
	},
	"afl": {
		UploadBucket:  "clusterfuzz-builds-afl",
		Sanitizers:    []string{"address"},
		Architectures: []string{"x86_64"},
	},
	"honggfuzz": {
		UploadBucket:  "clusterfuzz-builds-honggfuzz",
		Sanitizers:    []string{"address", "memory", "undefined"},
		Architectures: []string{"x86_64"},
	},
	"dataflow": {
		UploadBucket:  "clusterfuzz-builds-dataflow",
		Sanitizers:    []string{"dataflow"},
		Architectures: []string{"x86_64"},
	},
	"none": {
		UploadBucket:  "clusterfuzz-builds-no-engine",
		Sanitizers:    []string{"address"},
		Architectures: []string{"x86_64"},
	},
}

// Returns the capability entry for the named engine.
func Lookup(name string) (Info, bool) {
	info, ok := engines[name]
	return info, ok
}

// Returns true if the named engine can produce a build for the given
// sanitizer and architecture. Unknown engines support nothing.
func Supported(name, sanitizer, architecture string) bool {
	// 32-bit builds pair only with the address sanitizer, regardless of the
	// engine's own declarations.
	if architecture == "i386" && sanitizer != "address" {
		return false
	}

	info, ok := engines[name]
	if !ok {
		return false
	}
	return slices.Contains(info.Sanitizers, sanitizer) &&
		slices.Contains(info.Architectures, architecture)
}

// Returns the names of all recognized engines in sorted order.
func Names() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
