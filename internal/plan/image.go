package plan

import (
	"google.golang.org/api/cloudbuild/v1"

	"github.com/xhanulik/oss-fuzz/internal/config"
)

// Repository holding the project build definitions.
const repoURL = "https://github.com/google/oss-fuzz.git"

// Identifier of the srcmap step. Variant chains wait on it when image steps
// are enabled.
const srcmapStepID = "srcmap"

// Returns the optional preamble that clones the repository, builds the
// project image, and records the source map, plus the edge variant chains
// must wait on.
//
// Without image steps the preamble is empty and chains start at the
// beginning of the build.
func (c *Compiler) imageSteps(prj *config.Project) ([]*cloudbuild.BuildStep, string) {
	if !c.opts.ImageSteps {
		return nil, waitForStart
	}

	cloneArgs := []string{"clone", repoURL}
	if c.opts.Branch != "" {
		cloneArgs = append(cloneArgs, "--branch", c.opts.Branch)
	}

	steps := []*cloudbuild.BuildStep{{
		Name: gitImage,
		Args: cloneArgs,
	}}

	if c.opts.TestImages {
		builder := "gcr.io/" + c.opts.BaseImagesProject + "/base-builder"
		steps = append(steps,
			&cloudbuild.BuildStep{Name: dockerImage, Args: []string{"pull", builder + "-testing"}},
			&cloudbuild.BuildStep{Name: dockerImage, Args: []string{"tag", builder + "-testing", builder}},
		)
	}

	image := prj.Image(c.opts.RegistryProject)
	steps = append(steps,
		&cloudbuild.BuildStep{
			Name: dockerImage,
			Args: []string{"build", "-t", image, "."},
			Dir:  "oss-fuzz/projects/" + prj.Name,
		},
		&cloudbuild.BuildStep{
			Name: image,
			Args: []string{"bash", "-c", "srcmap > /workspace/srcmap.json && cat /workspace/srcmap.json"},
			Env: []string{
				// $REVISION_ID is an executor substitution, left unescaped.
				"OSSFUZZ_REVISION=$REVISION_ID",
				"FUZZING_LANGUAGE=" + prj.Language,
			},
			Id: srcmapStepID,
		},
	)
	return steps, srcmapStepID
}
