package config

import "errors"

var (
	// ErrNotFound indicates a project directory is missing its Dockerfile or
	// project.yaml descriptor.
	ErrNotFound = errors.New("project files not found")
)
