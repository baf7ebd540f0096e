package config

import (
	"regexp"
	"strings"
)

// Matches a WORKDIR instruction and captures its argument.
var workdirPattern = regexp.MustCompile(`^\s*WORKDIR\s*([^\s]+)`)

// Extracts the build working directory from Dockerfile content.
//
// The first WORKDIR instruction wins. Any "$" in the value is doubled so the
// path survives variable substitution in the templated step it lands in.
// Returns "" when no WORKDIR is declared.
func workdirFromDockerfile(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		m := workdirPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return strings.ReplaceAll(m[1], "$", "$$")
	}
	return ""
}
