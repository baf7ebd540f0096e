package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xhanulik/oss-fuzz/internal/corpora"
	"github.com/xhanulik/oss-fuzz/internal/gcb"
	"github.com/xhanulik/oss-fuzz/internal/naming"
	"github.com/xhanulik/oss-fuzz/internal/plan"
)

// Flags shared by the build-submitting commands.
type buildFlags struct {
	Testing    bool   `help:"Upload to testing buckets and use testing runner images."`
	TestImages bool   `help:"Substitute testing base images in image steps."`
	Branch     string `help:"Repository branch for image steps." placeholder:"NAME"`
	ImageSteps bool   `help:"Prepend repository clone and image build steps."`
	DryRun     bool   `help:"Print build requests instead of submitting them."`
}

// Represents the 'buildplan fuzzing' command.
type FuzzingCmd struct {
	buildFlags
	Projects []string `arg:"" help:"Projects to build."`
}

// Executes the fuzzing command.
func (c *FuzzingCmd) Run(ctx context.Context) error {
	compiler, err := newCompiler(ctx, c.buildFlags)
	if err != nil {
		return err
	}

	plans, err := compiler.Fuzzing(ctx, c.Projects...)
	if err != nil {
		return err
	}
	return submitPlans(ctx, plans, c.DryRun)
}

// Represents the 'buildplan coverage' command.
type CoverageCmd struct {
	buildFlags
	Projects []string `arg:"" help:"Projects to build."`
}

// Executes the coverage command.
func (c *CoverageCmd) Run(ctx context.Context) error {
	compiler, err := newCompiler(ctx, c.buildFlags)
	if err != nil {
		return err
	}

	plans, err := compiler.Coverage(ctx, c.Projects...)
	if err != nil {
		return err
	}
	return submitPlans(ctx, plans, c.DryRun)
}

// Creates the plan compiler the build commands share.
func newCompiler(ctx context.Context, flags buildFlags) (*plan.Compiler, error) {
	signer, err := naming.NewURLSignerFromEnv()
	if err != nil {
		return nil, err
	}

	provider, err := corpora.NewGCS(ctx, corpora.Options{
		Signer:            signer,
		BaseImagesProject: RootCmd.BaseImagesProject,
		Testing:           flags.Testing,
	})
	if err != nil {
		return nil, err
	}

	return plan.New(plan.Options{
		ProjectsRoot:      RootCmd.Projects,
		RegistryProject:   RootCmd.RegistryProject,
		BaseImagesProject: RootCmd.BaseImagesProject,
		Testing:           flags.Testing,
		ImageSteps:        flags.ImageSteps,
		Branch:            flags.Branch,
		TestImages:        flags.TestImages,
		Signer:            signer,
		Corpora:           provider,
	}), nil
}

// Submits the compiled plans, printing each created build id on stdout.
//
// Empty plans are skipped. With dry run, build requests print as JSON
// instead of being submitted.
func submitPlans(ctx context.Context, plans []*plan.Plan, dryRun bool) error {
	options, err := gcb.OptionsFromEnv()
	if err != nil {
		return err
	}

	var client *gcb.Client
	if !dryRun {
		client, err = gcb.NewClient(ctx, gcb.DefaultBuildsProject)
		if err != nil {
			return err
		}
	}

	for _, p := range plans {
		if p.Empty() {
			slog.Info("nothing to build", "project", p.Project, "flavor", p.Tag)
			continue
		}

		request := gcb.Request(p, options)

		if dryRun {
			encoded, err := json.MarshalIndent(request, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding build request for %s: %w", p.Project, err)
			}
			fmt.Println(string(encoded))
			continue
		}

		buildID, err := client.Submit(ctx, request)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Project, err)
		}

		slog.Info("build submitted",
			"project", p.Project,
			"flavor", p.Tag,
			"logs", gcb.LogsURL(buildID, gcb.DefaultBuildsProject),
		)
		fmt.Println(buildID)
	}
	return nil
}
