package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/cloudbuild/v1"

	"github.com/xhanulik/oss-fuzz/internal/ledger"
	"github.com/xhanulik/oss-fuzz/internal/plan"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Signs paths by prefixing a fake host.
type staticSigner struct{}

func (staticSigner) Sign(path, method, contentType string) (string, error) {
	return "https://signed.example.com" + path, nil
}

// Yields no corpus downloads.
type staticProvider struct{}

func (staticProvider) DownloadSteps(ctx context.Context, project string) ([]*cloudbuild.BuildStep, error) {
	return nil, nil
}

// Collects submitted builds and hands out sequential ids.
type fakeSubmitter struct {
	builds []*cloudbuild.Build
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, build *cloudbuild.Build) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.builds = append(f.builds, build)
	return fmt.Sprintf("build-%d", len(f.builds)), nil
}

// Writes a project directory under root.
func writeTestProject(t *testing.T, root, name, descriptor, dockerfile string) {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "project.yaml"), []byte(descriptor), 0o644); err != nil {
		t.Fatalf("WriteFile(project.yaml) error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(dockerfile), 0o644); err != nil {
		t.Fatalf("WriteFile(Dockerfile) error = %v", err)
	}
}

// Creates a service over a two-project root with an in-memory ledger.
func newTestServer(t *testing.T, submitter Submitter) (*Server, *ledger.Ledger) {
	t.Helper()

	root := t.TempDir()
	writeTestProject(t, root, "libxml2", `
language: c
fuzzing_engines:
  - libfuzzer
sanitizers:
  - address
  - undefined
`, "FROM gcr.io/oss-fuzz-base/base-builder\nWORKDIR libxml2\n")
	writeTestProject(t, root, "sleeper", "language: c\ndisabled: true\n", "FROM base\n")

	compiler := plan.New(plan.Options{
		ProjectsRoot: root,
		Signer:       staticSigner{},
		Corpora:      staticProvider{},
	})

	db, err := ledger.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New(Config{Compiler: compiler, Submitter: submitter, Ledger: db})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, db
}

// Performs one request against the route table.
func perform(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestSubmitBuild(t *testing.T) {
	submitter := &fakeSubmitter{}
	s, db := newTestServer(t, submitter)

	w := perform(s, http.MethodPost, "/v1/projects/libxml2/builds", `{"flavor": "fuzzing"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body)
	}

	var body struct {
		BuildID string `json:"build_id"`
		LogsURL string `json:"logs_url"`
		Steps   int    `json:"steps"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.BuildID != "build-1" {
		t.Errorf("build_id = %q, want %q", body.BuildID, "build-1")
	}
	if !strings.Contains(body.LogsURL, "build-1") || !strings.Contains(body.LogsURL, "oss-fuzz") {
		t.Errorf("logs_url = %q, want the build id and cloud project", body.LogsURL)
	}
	if body.Steps != 16 {
		t.Errorf("steps = %d, want 16", body.Steps)
	}

	if len(submitter.builds) != 1 {
		t.Fatalf("submitted builds = %d, want 1", len(submitter.builds))
	}
	build := submitter.builds[0]
	if want := []string{"libxml2-fuzzing"}; !slices.Equal(build.Tags, want) {
		t.Errorf("Tags = %v, want %v", build.Tags, want)
	}
	if len(build.Steps) != 16 {
		t.Errorf("len(Steps) = %d, want 16", len(build.Steps))
	}

	ids, err := db.History(context.Background(), "libxml2", "fuzzing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if want := []string{"build-1"}; !slices.Equal(ids, want) {
		t.Errorf("History() = %v, want %v", ids, want)
	}
}

func TestSubmitBuildSkipped(t *testing.T) {
	submitter := &fakeSubmitter{}
	s, db := newTestServer(t, submitter)

	w := perform(s, http.MethodPost, "/v1/projects/sleeper/builds", `{"flavor": "fuzzing"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusNoContent, w.Body)
	}

	if len(submitter.builds) != 0 {
		t.Errorf("submitted builds = %d, want 0", len(submitter.builds))
	}

	ids, err := db.History(context.Background(), "sleeper", "fuzzing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("History() = %v, want empty", ids)
	}
}

func TestSubmitBuildUnknownFlavor(t *testing.T) {
	s, _ := newTestServer(t, &fakeSubmitter{})

	w := perform(s, http.MethodPost, "/v1/projects/libxml2/builds", `{"flavor": "nightly"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSubmitBuildInvalidBody(t *testing.T) {
	s, _ := newTestServer(t, &fakeSubmitter{})

	for _, body := range []string{"", "{}", "not json"} {
		w := perform(s, http.MethodPost, "/v1/projects/libxml2/builds", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status for body %q = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestSubmitBuildSubmitterError(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("quota exhausted")}
	s, db := newTestServer(t, submitter)

	w := perform(s, http.MethodPost, "/v1/projects/libxml2/builds", `{"flavor": "fuzzing"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}

	ids, err := db.History(context.Background(), "libxml2", "fuzzing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("History() = %v, want empty after failed submission", ids)
	}
}

func TestBuildHistory(t *testing.T) {
	s, db := newTestServer(t, &fakeSubmitter{})

	ctx := context.Background()
	for _, id := range []string{"a-1", "a-2"} {
		if err := db.RecordBuild(ctx, "libxml2", "fuzzing", id); err != nil {
			t.Fatalf("RecordBuild() error = %v", err)
		}
	}

	w := perform(s, http.MethodGet, "/v1/projects/libxml2/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Project  string   `json:"project"`
		Tag      string   `json:"tag"`
		BuildIDs []string `json:"build_ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Project != "libxml2" || body.Tag != "fuzzing" {
		t.Errorf("history = %s/%s, want libxml2/fuzzing", body.Project, body.Tag)
	}
	if want := []string{"a-1", "a-2"}; !slices.Equal(body.BuildIDs, want) {
		t.Errorf("build_ids = %v, want %v", body.BuildIDs, want)
	}
}

func TestBuildHistoryEmpty(t *testing.T) {
	s, _ := newTestServer(t, &fakeSubmitter{})

	w := perform(s, http.MethodGet, "/v1/projects/ghost/history?tag=coverage", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Tag      string   `json:"tag"`
		BuildIDs []string `json:"build_ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Tag != "coverage" {
		t.Errorf("tag = %q, want %q", body.Tag, "coverage")
	}
	if body.BuildIDs == nil || len(body.BuildIDs) != 0 {
		t.Errorf("build_ids = %v, want []", body.BuildIDs)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeSubmitter{})

	w := perform(s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t, &fakeSubmitter{})

	perform(s, http.MethodPost, "/v1/projects/libxml2/builds", `{"flavor": "fuzzing"}`)

	w := perform(s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "buildplan_trigger_builds_requested_total") {
		t.Error("metrics output missing the request counter")
	}
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, &fakeSubmitter{})

	w := perform(s, http.MethodGet, "/healthz", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response carries no X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want the caller's id echoed", got)
	}
}

func TestNewValidation(t *testing.T) {
	db, err := ledger.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer db.Close()

	compiler := plan.New(plan.Options{ProjectsRoot: t.TempDir()})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing compiler", Config{Submitter: &fakeSubmitter{}, Ledger: db}},
		{"missing submitter", Config{Compiler: compiler, Ledger: db}},
		{"missing ledger", Config{Compiler: compiler, Submitter: &fakeSubmitter{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, ErrMissingDependency) {
				t.Errorf("New() error = %v, want %v", err, ErrMissingDependency)
			}
		})
	}
}
