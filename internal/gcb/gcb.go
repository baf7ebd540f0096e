package gcb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"google.golang.org/api/cloudbuild/v1"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/xhanulik/oss-fuzz/internal/naming"
	"github.com/xhanulik/oss-fuzz/internal/plan"
)

const (

	// Default cloud project running the builds.
	DefaultBuildsProject = "oss-fuzz"

	// Bucket collecting executor logs for all builds.
	LogsBucket = "oss-fuzz-gcb-logs"

	// How long a queued build may wait for a worker before expiring.
	queueTTL = 24 * time.Hour

	// Environment variable carrying extra build options as YAML.
	optionsEnv = "GCB_OPTIONS"
)

// Returns the build request submitting the plan's steps.
//
// The request is tagged with the plan's project and flavor so builds can be
// queried for statistics and logs afterwards. options may be nil.
func Request(p *plan.Plan, options *cloudbuild.BuildOptions) *cloudbuild.Build {
	return &cloudbuild.Build{
		Steps:      p.Steps,
		Timeout:    seconds(naming.BuildTimeout),
		Options:    options,
		LogsBucket: LogsBucket,
		Tags:       []string{p.Project + "-" + p.Tag},
		QueueTtl:   seconds(queueTTL),
	}
}

// Formats a duration the way the build API expects, in whole seconds.
func seconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10) + "s"
}

// Reads extra build options from the GCB_OPTIONS environment variable.
//
// The variable holds YAML, for example "machineType: N1_HIGHCPU_32". An
// unset or empty variable yields nil options.
func OptionsFromEnv() (*cloudbuild.BuildOptions, error) {
	raw := os.Getenv(optionsEnv)
	if raw == "" {
		return nil, nil
	}

	// The options struct is tagged for JSON only, so decode the YAML
	// generically and re-encode.
	var fields map[string]any
	if err := yaml.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", optionsEnv, err)
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", optionsEnv, err)
	}

	options := &cloudbuild.BuildOptions{}
	if err := json.Unmarshal(encoded, options); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", optionsEnv, err)
	}
	return options, nil
}

// Submits build requests to the Cloud Build API.
type Client struct {
	service *cloudbuild.Service
	project string
}

// Creates a client submitting builds to the named cloud project. An empty
// project uses [DefaultBuildsProject].
//
// Credentials resolve from the environment unless overridden through opts.
func NewClient(ctx context.Context, project string, opts ...option.ClientOption) (*Client, error) {
	service, err := cloudbuild.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating cloud build service: %w", err)
	}

	if project == "" {
		project = DefaultBuildsProject
	}
	return &Client{service: service, project: project}, nil
}

// Submits the build request and returns the identifier of the created
// build.
func (c *Client) Submit(ctx context.Context, build *cloudbuild.Build) (string, error) {
	op, err := c.service.Projects.Builds.Create(c.project, build).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating build: %w", err)
	}

	var meta cloudbuild.BuildOperationMetadata
	if err := json.Unmarshal(op.Metadata, &meta); err != nil {
		return "", fmt.Errorf("decoding build operation metadata: %w", err)
	}
	if meta.Build == nil || meta.Build.Id == "" {
		return "", ErrMissingBuildID
	}
	return meta.Build.Id, nil
}

// Returns the console address displaying the build's logs.
func LogsURL(buildID, project string) string {
	return "https://console.developers.google.com/logs/viewer?" +
		"resource=build%2Fbuild_id%2F" + buildID + "&project=" + project
}
