package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"google.golang.org/api/cloudbuild/v1"

	"github.com/xhanulik/oss-fuzz/internal/config"
	"github.com/xhanulik/oss-fuzz/internal/corpora"
	"github.com/xhanulik/oss-fuzz/internal/naming"
)

// Coverage builds run one fixed variant regardless of the project's own
// engine and sanitizer lists.
var coverageVariant = Variant{
	Engine:       "libfuzzer",
	Sanitizer:    "coverage",
	Architecture: naming.DefaultArchitecture,
}

// Compiles the coverage plan for one project.
//
// Projects whose language has no coverage support, and projects with no
// downloadable corpus, compile to the empty plan.
func (c *Compiler) coveragePlan(ctx context.Context, name string) (*Plan, error) {
	p := &Plan{Project: name, Tag: TagCoverage}

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
	if !slices.Contains(coverageLanguages, prj.Language) {
		slog.Info("no coverage support for language", "project", name, "language", prj.Language)
		return p, nil
	}

	downloads, err := c.opts.Corpora.DownloadSteps(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("corpus downloads for %s: %w", name, err)
	}
	if len(downloads) == 0 {
		slog.Info("no corpus available, skipping coverage build", "project", name)
		return p, nil
	}

	v := coverageVariant
	t := c.opts.Now()
	cov := naming.NewCoverage(name, t, c.opts.Testing)

	steps, start := c.imageSteps(prj)
	ch := newChain(v, start)
	env := v.Environment(prj.Language)

	ch.add("compile", c.compileStep(prj, v, env))

	for i, step := range downloads {
		ch.add(fmt.Sprintf("download-corpus-%d", i+1), step)
	}

	ch.add("coverage", c.coverageStep(prj, v, env))

	reports := cov.UploadURL("reports")
	stats := cov.UploadURL("fuzzer_stats")
	logs := cov.UploadURL("logs")

	ch.add("clear-reports", gsutilClearStep(reports))
	ch.add("upload-reports", gsutilCopyDirStep(v.OutDir()+"/report", reports))
	ch.add("clear-fuzzer-stats", gsutilClearStep(stats))
	ch.add("upload-fuzzer-stats", gsutilCopyDirStep(v.OutDir()+"/fuzzer_stats", stats))
	ch.add("clear-logs", gsutilClearStep(logs))
	ch.add("upload-logs", gsutilCopyDirStep(v.OutDir()+"/logs", logs))

	ch.add("upload-srcmap", &cloudbuild.BuildStep{
		Name: gsutilImage,
		Args: []string{"cp", "/workspace/srcmap.json", cov.UploadURL("srcmap") + ".json"},
	})

	infoStep, err := c.latestReportInfoStep(cov, reports, stats)
	if err != nil {
		return nil, err
	}
	ch.add("latest-report-info", infoStep)

	p.Steps = append(steps, ch.steps...)
	return p, nil
}

// Builds the step that unpacks every downloaded corpus and runs the
// coverage-report entrypoint.
func (c *Compiler) coverageStep(prj *config.Project, v Variant, env []string) *cloudbuild.BuildStep {
	coverageEnv := append(slices.Clone(env),
		"HTTP_PORT=",
		"COVERAGE_EXTRA_ARGS="+strings.TrimSpace(prj.CoverageExtraArgs),
	)
	if slices.Contains(prj.Engines, "dataflow") {
		// A per-target summary lets the dataflow pipeline pick binaries with
		// interesting coverage.
		coverageEnv = append(coverageEnv, "FULL_SUMMARY_PER_TARGET=1")
	}

	failure := failureBlock(
		"Code coverage report generation failed.",
		"python infra/helper.py build_image "+prj.Name,
		"python infra/helper.py build_fuzzers --sanitizer coverage "+prj.Name,
		"python infra/helper.py coverage "+prj.Name,
	)

	// A missing corpus archive usually means the backup for a recently added
	// target has not propagated yet; the per-target diagnostic spells that
	// out before the loop fails.
	command := `for f in /corpus/*.zip; do unzip -q $f -d ${f%%.*} || (` +
		`echo "Failed to unpack the corpus for $(basename ${f%%.*}). ` +
		`This usually means that corpus backup for a particular fuzz target does not exist. ` +
		`If a fuzz target was added in the last 24 hours, please wait one more day. ` +
		`Otherwise, something is wrong with the fuzz target or the infrastructure, ` +
		`and corpus pruning task does not finish successfully." && exit 1` +
		`); done && coverage || (echo "` + failure + `" && false)`

	return &cloudbuild.BuildStep{
		Name:    c.runnerImage(),
		Env:     coverageEnv,
		Args:    []string{"bash", "-c", command},
		Volumes: []*cloudbuild.Volume{corpora.Volume()},
	}
}

// Builds the step that publishes where the freshest report lives.
func (c *Compiler) latestReportInfoStep(cov naming.Coverage, reportsURL, statsURL string) (*cloudbuild.BuildStep, error) {
	info := naming.LatestReportInfo{
		FuzzerStatsDir:    statsURL,
		HTMLReportURL:     cov.HTMLReportURL(),
		ReportDate:        cov.Date,
		ReportSummaryPath: reportsURL + "/" + naming.CoveragePlatform + "/summary.json",
	}

	body, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encoding latest report info for %s: %w", cov.Project, err)
	}

	url, err := c.opts.Signer.Sign(cov.LatestReportInfoPath(), http.MethodPut, naming.LatestReportInfoContentType)
	if err != nil {
		return nil, fmt.Errorf("signing latest report info url for %s: %w", cov.Project, err)
	}

	return httpPutStep(string(body), url, naming.LatestReportInfoContentType), nil
}
