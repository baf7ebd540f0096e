package plan

import (
	"slices"

	"google.golang.org/api/cloudbuild/v1"
)

// Build tags distinguishing the two plan flavors.
const (
	TagFuzzing  = "fuzzing"
	TagCoverage = "coverage"
)

// Wait-for edge starting a chain at the beginning of the build instead of
// after all previously emitted steps.
const waitForStart = "-"

// One compiled build plan for a single project and flavor.
type Plan struct {
	Project string                  // Project the steps build.
	Tag     string                  // Flavor, [TagFuzzing] or [TagCoverage].
	Steps   []*cloudbuild.BuildStep // Ordered steps. Empty means skip.
}

// Reports whether the plan carries no steps and the project should be
// skipped.
func (p *Plan) Empty() bool {
	return len(p.Steps) == 0
}

// One engine, sanitizer, and architecture combination of a project build.
type Variant struct {
	Engine       string
	Sanitizer    string
	Architecture string
}

// Returns the variant's private output directory inside the shared build
// workspace. Two variants never share an output directory.
func (v Variant) OutDir() string {
	return "/workspace/out/" + v.Engine + "-" + v.Sanitizer + "-" + v.Architecture
}

// Returns the sorted KEY=VALUE environment for the variant's build steps.
// Sorting keeps compiled plans diffable between runs.
func (v Variant) Environment(language string) []string {
	env := []string{
		"FUZZING_LANGUAGE=" + language,
		"FUZZING_ENGINE=" + v.Engine,
		"SANITIZER=" + v.Sanitizer,
		"ARCHITECTURE=" + v.Architecture,
		// HOME must not point into a persisted volume.
		"HOME=/root",
		"OUT=" + v.OutDir(),
	}
	slices.Sort(env)
	return env
}

// Returns the identifier of one step type within a variant's chain.
func stepID(stepType string, v Variant) string {
	return stepType + "-" + v.Engine + "-" + v.Sanitizer + "-" + v.Architecture
}

// Stamps identifiers and wait-for edges onto the steps of one variant
// chain.
//
// The first step waits on the chain's start edge; every later step waits on
// its direct predecessor. Chains of different variants share no edges.
type chain struct {
	variant Variant
	start   string // Edge the first step waits on.
	prev    string // Identifier of the previously added step.
	steps   []*cloudbuild.BuildStep
}

func newChain(v Variant, start string) *chain {
	if start == "" {
		start = waitForStart
	}
	return &chain{variant: v, start: start}
}

// Appends a step to the chain, assigning its identifier and wait-for edge.
func (c *chain) add(stepType string, step *cloudbuild.BuildStep) {
	step.Id = stepID(stepType, c.variant)
	if c.prev == "" {
		step.WaitFor = []string{c.start}
	} else {
		step.WaitFor = []string{c.prev}
	}
	c.prev = step.Id
	c.steps = append(c.steps, step)
}
