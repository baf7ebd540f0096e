package corpora

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/cloudbuild/v1"
	"google.golang.org/api/option"

	"github.com/xhanulik/oss-fuzz/internal/naming"
)

const (
	// Upper bound on download arguments per generated step. Keeps single
	// steps, and their logs, a manageable size for large projects.
	downloadBatchSize = 100

	// Object path template of a target's corpus backup. The leading
	// component is the backup bucket of the project's fuzzing service
	// account.
	backupPathFormat = "/%s-backup.clusterfuzz-external.appspot.com/corpus/libFuzzer/%s/latest.zip"

	// Mount point shared between download steps and their consumers.
	corpusDir = "/corpus"
)

// Returns the volume carrying downloaded corpora between steps.
func Volume() *cloudbuild.Volume {
	return &cloudbuild.Volume{Name: "corpus", Path: corpusDir}
}

// Provider yields the steps that fetch corpus backups for a project.
//
// An empty result with a nil error means there is nothing to download;
// callers treat it as a skip signal, not a failure.
type Provider interface {
	DownloadSteps(ctx context.Context, project string) ([]*cloudbuild.BuildStep, error)
}

// Configures a [GCS] provider.
type Options struct {
	Signer            naming.Signer // Signs corpus backup read URLs.
	BaseImagesProject string        // Image namespace for the runner image. Empty uses "oss-fuzz-base".
	Testing           bool          // Read targets lists from testing buckets.
}

// GCS discovers a project's fuzz targets from the targets list its most
// recent fuzzing build uploaded, and turns them into download steps.
type GCS struct {
	client            *storage.Client
	signer            naming.Signer
	baseImagesProject string
	testing           bool
}

// Creates a [GCS] provider. Targets lists are world-readable, so the
// storage client runs unauthenticated.
func NewGCS(ctx context.Context, opts Options) (*GCS, error) {
	if opts.Signer == nil {
		return nil, errors.New("corpora: a signer is required")
	}
	if opts.BaseImagesProject == "" {
		opts.BaseImagesProject = "oss-fuzz-base"
	}

	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCS{
		client:            client,
		signer:            opts.Signer,
		baseImagesProject: opts.BaseImagesProject,
		testing:           opts.Testing,
	}, nil
}

// DownloadSteps implements [Provider].
func (g *GCS) DownloadSteps(ctx context.Context, project string) ([]*cloudbuild.BuildStep, error) {
	targets, err := g.targetsList(ctx, project)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}
	return downloadSteps(project, targets, g.signer, g.baseImagesProject)
}

// Reads the project's most recent address-sanitizer targets list. A missing
// list means the project has never completed a fuzzing build; that is a
// skip, not an error.
func (g *GCS) targetsList(ctx context.Context, project string) ([]string, error) {
	bucket := naming.UploadBucket("libfuzzer", naming.DefaultArchitecture, g.testing)
	object := project + "/" + naming.TargetsListFilename("address")

	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		slog.Info("no targets list uploaded yet", "project", project, "bucket", bucket)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading targets list for %s: %w", project, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading targets list for %s: %w", project, err)
	}
	return strings.Fields(string(data)), nil
}

// Builds the download steps for a list of fuzz targets: one runner-image
// step per batch, each argument pairing a corpus archive path with its
// signed source URL.
func downloadSteps(project string, targets []string, signer naming.Signer, baseImagesProject string) ([]*cloudbuild.BuildStep, error) {
	runner := "gcr.io/" + baseImagesProject + "/base-runner"

	steps := make([]*cloudbuild.BuildStep, 0, (len(targets)+downloadBatchSize-1)/downloadBatchSize)
	for start := 0; start < len(targets); start += downloadBatchSize {
		batch := targets[start:min(start+downloadBatchSize, len(targets))]

		args := make([]string, 0, len(batch))
		for _, target := range batch {
			qualified := target
			if !strings.HasPrefix(qualified, project+"_") {
				qualified = project + "_" + target
			}

			url, err := signer.Sign(fmt.Sprintf(backupPathFormat, project, qualified), http.MethodGet, "")
			if err != nil {
				return nil, fmt.Errorf("signing corpus url for %s: %w", target, err)
			}
			args = append(args, corpusDir+"/"+target+".zip "+url)
		}

		steps = append(steps, &cloudbuild.BuildStep{
			Name:       runner,
			Entrypoint: "download_corpus",
			Args:       args,
			Volumes:    []*cloudbuild.Volume{Volume()},
		})
	}
	return steps, nil
}
