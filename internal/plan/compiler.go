package plan

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xhanulik/oss-fuzz/internal/config"
	"github.com/xhanulik/oss-fuzz/internal/corpora"
	"github.com/xhanulik/oss-fuzz/internal/naming"
)

// Default image namespaces for project and base images.
const (
	DefaultRegistryProject   = "oss-fuzz"
	DefaultBaseImagesProject = "oss-fuzz-base"
)

// Languages with coverage-report support.
var coverageLanguages = []string{"c", "c++", "go", "jvm", "rust"}

// Controls plan compilation.
type Options struct {
	ProjectsRoot      string           // Directory holding one subdirectory per project.
	RegistryProject   string           // Image namespace for project images. Empty uses [DefaultRegistryProject].
	BaseImagesProject string           // Image namespace for runner and uploader images. Empty uses [DefaultBaseImagesProject].
	Testing           bool             // Upload to testing buckets and run testing runner images.
	ImageSteps        bool             // Prepend repository clone, image build, and srcmap steps.
	Branch            string           // Repository branch for image steps. Empty uses the default branch.
	TestImages        bool             // Substitute testing base images in image steps.
	Defaults          config.Defaults  // Descriptor defaults. Unset engines use [config.StandardDefaults].
	Signer            naming.Signer    // Signs artifact upload addresses.
	Corpora           corpora.Provider // Yields corpus download steps.
	Now               func() time.Time // Clock stamping artifact names. Nil uses time.Now.
}

// Compiles build plans for batches of projects.
//
// A compiler is safe for concurrent use.
type Compiler struct {
	opts Options
}

// Creates a compiler, applying defaults to unset options.
func New(opts Options) *Compiler {
	if opts.RegistryProject == "" {
		opts.RegistryProject = DefaultRegistryProject
	}
	if opts.BaseImagesProject == "" {
		opts.BaseImagesProject = DefaultBaseImagesProject
	}
	if opts.Defaults.Engines == nil {
		opts.Defaults = config.StandardDefaults()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Compiler{opts: opts}
}

// Compiles fuzzing plans for the named projects, one plan per project in
// input order. Skipped projects yield empty plans; a genuine failure aborts
// the batch.
func (c *Compiler) Fuzzing(ctx context.Context, projects ...string) ([]*Plan, error) {
	return c.compile(ctx, projects, c.fuzzingPlan)
}

// Compiles coverage plans for the named projects, one plan per project in
// input order. Skipped projects yield empty plans; a genuine failure aborts
// the batch.
func (c *Compiler) Coverage(ctx context.Context, projects ...string) ([]*Plan, error) {
	return c.compile(ctx, projects, c.coveragePlan)
}

// Compiles the named projects concurrently, keeping input order.
func (c *Compiler) compile(ctx context.Context, projects []string, compileOne func(context.Context, string) (*Plan, error)) ([]*Plan, error) {
	plans := make([]*Plan, len(projects))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range projects {
		g.Go(func() error {
			p, err := compileOne(ctx, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

// Returns the runner image carrying the helper entrypoints steps invoke.
func (c *Compiler) runnerImage() string {
	image := "gcr.io/" + c.opts.BaseImagesProject + "/base-runner"
	if c.opts.Testing {
		image += "-testing"
	}
	return image
}

// Returns the uploader image that PUTs artifacts to signed URLs.
func (c *Compiler) uploaderImage() string {
	return "gcr.io/" + c.opts.BaseImagesProject + "/uploader"
}
