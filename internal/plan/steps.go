package plan

import (
	"strings"

	"google.golang.org/api/cloudbuild/v1"
)

// Fixed cloud-builders images used by generated steps.
const (
	gitImage    = "gcr.io/cloud-builders/git"
	dockerImage = "gcr.io/cloud-builders/docker"
	gsutilImage = "gcr.io/cloud-builders/gsutil"
	curlImage   = "gcr.io/cloud-builders/curl"
)

// Width of the banner delimiting failure diagnostics in build logs.
const bannerWidth = 80

// Formats the diagnostic block a failing step echoes before re-failing: a
// banner, the failure headline, and the commands reproducing the step
// locally.
func failureBlock(headline string, commands ...string) string {
	banner := strings.Repeat("*", bannerWidth)
	return banner + "\n" + headline + "\nTo reproduce, run:\n" +
		strings.Join(commands, "\n") + "\n" + banner
}

// Returns a step that PUTs data to a signed URL with the content type.
func httpPutStep(data, url, contentType string) *cloudbuild.BuildStep {
	return &cloudbuild.BuildStep{
		Name: curlImage,
		Args: []string{"-H", "Content-Type: " + contentType, "-X", "PUT", "-d", data, url},
	}
}

// Returns a step that purges existing objects under a gs:// URL. Object
// storage has no overwrite-a-prefix primitive, so stale children must go
// before a recursive copy. Nothing to delete is fine.
func gsutilClearStep(url string) *cloudbuild.BuildStep {
	return &cloudbuild.BuildStep{
		Name:       gsutilImage,
		Entrypoint: "sh",
		Args:       []string{"-c", "gsutil -m rm -rf " + url + " || exit 0"},
	}
}

// Returns a step that recursively copies a local directory to a gs:// URL.
func gsutilCopyDirStep(dir, url string) *cloudbuild.BuildStep {
	return &cloudbuild.BuildStep{
		Name: gsutilImage,
		Args: []string{"-m", "cp", "-r", dir, url},
	}
}
