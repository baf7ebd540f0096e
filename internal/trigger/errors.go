package trigger

import "errors"

var (
	// A required collaborator was not provided in the configuration.
	ErrMissingDependency = errors.New("missing dependency")
)
