package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"google.golang.org/api/cloudbuild/v1"

	"github.com/xhanulik/oss-fuzz/internal/config"
	"github.com/xhanulik/oss-fuzz/internal/corpora"
	"github.com/xhanulik/oss-fuzz/internal/engine"
	"github.com/xhanulik/oss-fuzz/internal/naming"
)

// Compiles the fuzzing plan for one project.
//
// Missing project files and disabled projects compile to the empty plan so
// the batch moves on.
func (c *Compiler) fuzzingPlan(ctx context.Context, name string) (*Plan, error) {
	p := &Plan{Project: name, Tag: TagFuzzing}

	prj, err := config.Load(c.opts.ProjectsRoot, name, c.opts.Defaults)
	if errors.Is(err, config.ErrNotFound) {
		slog.Error("project files missing, skipping build", "project", name, "error", err)
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if prj.Disabled {
		slog.Info("project is disabled", "project", name)
		return p, nil
	}

	t := c.opts.Now()
	steps, start := c.imageSteps(prj)

	// Engines iterate in sorted order so repeated compilations diff cleanly.
	sortedEngines := slices.Clone(prj.Engines)
	slices.Sort(sortedEngines)
	for _, eng := range sortedEngines {
		for _, sanitizer := range prj.SanitizerNames() {
			for _, arch := range prj.Architectures {
				v := Variant{Engine: eng, Sanitizer: sanitizer, Architecture: arch}
				if !engine.Supported(v.Engine, v.Sanitizer, v.Architecture) {
					continue
				}

				variantSteps, err := c.variantSteps(ctx, prj, v, t, start)
				if err != nil {
					return nil, err
				}
				steps = append(steps, variantSteps...)
			}
		}
	}

	p.Steps = steps
	return p, nil
}

// Builds the step chain for one variant: compile, optional build checks and
// label writing, the dataflow post-build phase where it applies, the
// targets list, and the upload tail.
func (c *Compiler) variantSteps(ctx context.Context, prj *config.Project, v Variant, t time.Time, start string) ([]*cloudbuild.BuildStep, error) {
	ch := newChain(v, start)
	env := v.Environment(prj.Language)

	ch.add("compile", c.compileStep(prj, v, env))

	if prj.RunTests {
		ch.add("build-check", c.testStep(prj, v, env))
	}

	if len(prj.Labels) > 0 {
		step, err := c.labelsStep(prj, v)
		if err != nil {
			return nil, err
		}
		ch.add("write-labels", step)
	}

	if v.Engine == "dataflow" && v.Sanitizer == "dataflow" {
		if err := c.dataflowSteps(ctx, ch, prj, env); err != nil {
			return nil, err
		}
	}

	ch.add("targets-list", c.targetsListStep(v, env))

	if err := c.uploadSteps(ch, prj, v, t); err != nil {
		return nil, err
	}

	return ch.steps, nil
}

// Builds the compile step: a clean-build guard around the project image's
// compile entrypoint. /out goes first so no binaries survive from an
// earlier variant; the explicit cd restores the Dockerfile's WORKDIR, which
// the executor overrides.
func (c *Compiler) compileStep(prj *config.Project, v Variant, env []string) *cloudbuild.BuildStep {
	failure := failureBlock(
		"Failed to build.",
		"python infra/helper.py build_image "+prj.Name,
		"python infra/helper.py build_fuzzers --sanitizer "+v.Sanitizer+
			" --engine "+v.Engine+" --architecture "+v.Architecture+" "+prj.Name,
	)

	command := "rm -r /out && cd /src && cd " + prj.Workdir +
		" && mkdir -p " + v.OutDir() +
		" && compile || (echo \"" + failure + "\" && false)"

	return &cloudbuild.BuildStep{
		Name: prj.Image(c.opts.RegistryProject),
		Env:  env,
		Args: []string{"bash", "-c", command},
	}
}

// Builds the build-check step that runs every produced target once.
func (c *Compiler) testStep(prj *config.Project, v Variant, env []string) *cloudbuild.BuildStep {
	failure := failureBlock(
		"Build checks failed.",
		"python infra/helper.py build_image "+prj.Name,
		"python infra/helper.py build_fuzzers --sanitizer "+v.Sanitizer+
			" --engine "+v.Engine+" --architecture "+v.Architecture+" "+prj.Name,
		"python infra/helper.py check_build --sanitizer "+v.Sanitizer+
			" --engine "+v.Engine+" --architecture "+v.Architecture+" "+prj.Name,
	)

	return &cloudbuild.BuildStep{
		Name: c.runnerImage(),
		Env:  env,
		Args: []string{"bash", "-c", "test_all.py || (echo \"" + failure + "\" && false)"},
	}
}

// Builds the step that writes the project's labels next to the produced
// targets.
func (c *Compiler) labelsStep(prj *config.Project, v Variant) (*cloudbuild.BuildStep, error) {
	labels, err := json.Marshal(prj.Labels)
	if err != nil {
		return nil, fmt.Errorf("encoding labels for %s: %w", prj.Name, err)
	}

	return &cloudbuild.BuildStep{
		Name: prj.Image(c.opts.RegistryProject),
		Env:  v.Environment(prj.Language),
		Args: []string{"/usr/local/bin/write_labels.py", string(labels), v.OutDir()},
	}, nil
}

// Appends the dataflow post-build phase: historical corpus downloads plus a
// bounded trace-collection run. No downloadable corpus skips the phase, not
// the build.
func (c *Compiler) dataflowSteps(ctx context.Context, ch *chain, prj *config.Project, env []string) error {
	downloads, err := c.opts.Corpora.DownloadSteps(ctx, prj.Name)
	if err != nil {
		return fmt.Errorf("corpus downloads for %s: %w", prj.Name, err)
	}
	if len(downloads) == 0 {
		slog.Info("no corpus available, skipping dataflow post-build steps", "project", prj.Name)
		return nil
	}

	for i, step := range downloads {
		ch.add(fmt.Sprintf("download-corpus-%d", i+1), step)
	}

	dftEnv := append(slices.Clone(env),
		"COLLECT_DFT_TIMEOUT=2h",
		"DFT_FILE_SIZE_LIMIT=65535",
		"DFT_MIN_TIMEOUT=2.0",
		"DFT_TIMEOUT_RANGE=6.0",
	)

	command := `for f in /corpus/*.zip; do unzip -q $f -d ${f%%.*}; done && collect_dft || (echo "DFT collection failed." && false)`

	ch.add("collect-dft", &cloudbuild.BuildStep{
		Name:    c.runnerImage(),
		Env:     dftEnv,
		Args:    []string{"bash", "-c", command},
		Volumes: []*cloudbuild.Volume{corpora.Volume()},
	})
	return nil
}

// Builds the step recording the produced target names for downstream
// corpus lookups.
func (c *Compiler) targetsListStep(v Variant, env []string) *cloudbuild.BuildStep {
	return &cloudbuild.BuildStep{
		Name: c.runnerImage(),
		Env:  env,
		Args: []string{"bash", "-c", "targets_list > /workspace/" + naming.TargetsListFilename(v.Sanitizer)},
	}
}

// Appends the upload tail: archive the output directory, upload the source
// map, the archive, and the targets list, then flip the latest-version
// pointer and reclaim the output directory.
func (c *Compiler) uploadSteps(ch *chain, prj *config.Project, v Variant, t time.Time) error {
	bucket := naming.UploadBucket(v.Engine, v.Architecture, c.opts.Testing)
	archive := naming.ArchiveName(prj.Name, v.Sanitizer, t)
	srcmap := naming.SrcmapName(prj.Name, v.Sanitizer, t)
	targetsList := naming.TargetsListFilename(v.Sanitizer)

	archiveURL, err := c.opts.Signer.Sign(naming.ObjectPath(bucket, prj.Name, archive), http.MethodPut, "")
	if err != nil {
		return fmt.Errorf("signing archive url for %s: %w", prj.Name, err)
	}
	srcmapURL, err := c.opts.Signer.Sign(naming.ObjectPath(bucket, prj.Name, srcmap), http.MethodPut, "")
	if err != nil {
		return fmt.Errorf("signing srcmap url for %s: %w", prj.Name, err)
	}
	targetsURL, err := c.opts.Signer.Sign(naming.ObjectPath(bucket, prj.Name, targetsList), http.MethodPut, "")
	if err != nil {
		return fmt.Errorf("signing targets list url for %s: %w", prj.Name, err)
	}
	latestURL, err := c.opts.Signer.Sign(
		naming.ObjectPath(bucket, prj.Name, naming.LatestVersionFile(prj.Name, v.Sanitizer)),
		http.MethodPut, naming.LatestVersionContentType)
	if err != nil {
		return fmt.Errorf("signing latest version url for %s: %w", prj.Name, err)
	}

	ch.add("archive", &cloudbuild.BuildStep{
		Name: prj.Image(c.opts.RegistryProject),
		Args: []string{"bash", "-c", "cd " + v.OutDir() + " && zip -r " + archive + " *"},
	})
	ch.add("upload-srcmap", &cloudbuild.BuildStep{
		Name: c.uploaderImage(),
		Args: []string{"/workspace/srcmap.json", srcmapURL},
	})
	ch.add("upload-archive", &cloudbuild.BuildStep{
		Name: c.uploaderImage(),
		Args: []string{v.OutDir() + "/" + archive, archiveURL},
	})
	ch.add("upload-targets-list", &cloudbuild.BuildStep{
		Name: c.uploaderImage(),
		Args: []string{"/workspace/" + targetsList, targetsURL},
	})

	// The pointer body is the archive's own name: "latest" stays an
	// indirection to a concrete stamped artifact. The trailing rm frees
	// workspace space before the next variant compiles.
	ch.add("latest-version", &cloudbuild.BuildStep{
		Name:       curlImage,
		Entrypoint: "sh",
		Args: []string{"-c",
			"curl -H 'Content-Type: " + naming.LatestVersionContentType + "' -X PUT -d '" + archive +
				"' '" + latestURL + "' && rm -r " + v.OutDir()},
	})
	return nil
}
