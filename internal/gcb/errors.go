package gcb

import "errors"

var (
	// The create operation's metadata named no build.
	ErrMissingBuildID = errors.New("build operation metadata carries no build id")
)
