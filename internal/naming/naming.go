package naming

import (
	"time"

	"github.com/xhanulik/oss-fuzz/internal/engine"
)

const (
	// BuildTimeout is the upper bound on a full build. Signed upload URLs
	// stay valid exactly this long.
	BuildTimeout = 12 * time.Hour

	// DefaultArchitecture is the architecture omitted from bucket names.
	DefaultArchitecture = "x86_64"

	// LatestVersionContentType is the content type of latest-version
	// pointer objects.
	LatestVersionContentType = "text/plain"

	// Timestamp layout for stamped artifact names: minute granularity is
	// fine enough to tell concurrent builds apart and stays sortable.
	stampLayout = "200601021504"

	// Base name of the pointer object tracking the most recent archive.
	latestVersionBasename = "latest.version"

	// Suffix appended to bucket names when uploads target the testing
	// environment.
	testingSuffix = "-testing"

	// Public HTTP front of Google Cloud Storage.
	gcsURLBase = "https://storage.googleapis.com"
)

// Returns the stamped base name shared by a build's artifacts:
// <project>-<sanitizer>-<timestamp>.
func StampedName(project, sanitizer string, t time.Time) string {
	return project + "-" + sanitizer + "-" + t.UTC().Format(stampLayout)
}

// Returns the archive object name for a stamped build.
func ArchiveName(project, sanitizer string, t time.Time) string {
	return StampedName(project, sanitizer, t) + ".zip"
}

// Returns the source-map object name for a stamped build.
func SrcmapName(project, sanitizer string, t time.Time) string {
	return StampedName(project, sanitizer, t) + ".srcmap.json"
}

// Returns the name of the pointer object that tracks the project's most
// recent archive for one sanitizer.
func LatestVersionFile(project, sanitizer string) string {
	return project + "-" + sanitizer + "-" + latestVersionBasename
}

// Returns the targets-list object name for one sanitizer.
func TargetsListFilename(sanitizer string) string {
	return "targets.list." + sanitizer
}

// Returns the storage bucket receiving artifacts for the engine.
//
// The testing suffix comes before the architecture suffix; the default
// architecture carries no suffix at all. Unknown engines yield "".
func UploadBucket(eng, architecture string, testing bool) string {
	info, ok := engine.Lookup(eng)
	if !ok {
		return ""
	}
	bucket := info.UploadBucket
	if testing {
		bucket += testingSuffix
	}
	if architecture != DefaultArchitecture {
		bucket += "-" + architecture
	}
	return bucket
}

// Returns the canonical object path for a project artifact:
// /<bucket>/<project>/<file>.
func ObjectPath(bucket, project, file string) string {
	return "/" + bucket + "/" + project + "/" + file
}

// Returns the public HTTP URL for an object path.
func PublicURL(objectPath string) string {
	return gcsURLBase + objectPath
}
