package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/cloudbuild/v1"

	"github.com/xhanulik/oss-fuzz/internal/gcb"
	"github.com/xhanulik/oss-fuzz/internal/ledger"
	"github.com/xhanulik/oss-fuzz/internal/paths"
	"github.com/xhanulik/oss-fuzz/internal/plan"
)

const (

	// Default listen address. Loopback only; the service performs no
	// authentication of its own.
	DefaultAddr = "127.0.0.1:8093"

	// How long Stop waits for in-flight requests.
	shutdownTimeout = 10 * time.Second
)

// Compiles build plans for requested projects, one plan per project in
// request order. *plan.Compiler implements this.
type Compiler interface {
	Fuzzing(ctx context.Context, projects ...string) ([]*plan.Plan, error)
	Coverage(ctx context.Context, projects ...string) ([]*plan.Plan, error)
}

// Submits build requests to an executor. *gcb.Client implements this.
type Submitter interface {
	Submit(ctx context.Context, build *cloudbuild.Build) (string, error)
}

// Holds service configuration.
type Config struct {
	Addr          string                   // Listen address. Empty uses [DefaultAddr].
	BuildsProject string                   // Cloud project named in returned log addresses. Empty uses [gcb.DefaultBuildsProject].
	Compiler      Compiler                 // Compiles plans for requested projects.
	Submitter     Submitter                // Submits compiled plans.
	Ledger        *ledger.Ledger           // Records submitted build ids.
	Options       *cloudbuild.BuildOptions // Extra executor options for submitted builds. May be nil.
}

// Serves build requests over HTTP.
type Server struct {
	cfg    Config
	engine *gin.Engine
	server *http.Server
	done   chan struct{}
}

// Creates a new service instance.
//
// The listener is not opened until [Server.Start] is called.
func New(cfg Config) (*Server, error) {
	if cfg.Compiler == nil {
		return nil, fmt.Errorf("%w: compiler", ErrMissingDependency)
	}
	if cfg.Submitter == nil {
		return nil, fmt.Errorf("%w: submitter", ErrMissingDependency)
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("%w: ledger", ErrMissingDependency)
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.BuildsProject == "" {
		cfg.BuildsProject = gcb.DefaultBuildsProject
	}

	s := &Server{cfg: cfg, done: make(chan struct{})}
	s.engine = s.router()
	return s, nil
}

// Opens the listener and begins serving requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}

	s.server = &http.Server{Handler: s.engine}

	if err := writePID(); err != nil {
		slog.Warn("failed to write PID file", "error", err)
	}

	slog.Info("trigger service listening", "addr", listener.Addr().String())

	go s.serve(listener)
	return nil
}

// Writes the service PID to the PID file so deployments can detect whether
// the service is already running and send it signals.
func writePID() error {
	if err := os.MkdirAll(paths.Runtime(), paths.DefaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(paths.PIDFile(), []byte(fmt.Sprintf("%d", os.Getpid())), paths.DefaultFileMode)
}

// Serves connections until shutdown.
func (s *Server) serve(listener net.Listener) {
	defer close(s.done)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("trigger service stopped", "error", err)
	}
}

// Gracefully shuts down the service, waiting for in-flight requests.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	os.Remove(paths.PIDFile())

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Blocks until the service stops.
func (s *Server) Wait() {
	<-s.done
}

// Assembles the route table.
func (s *Server) router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLog())

	engine.GET("/healthz", s.health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	{
		v1.POST("/projects/:project/builds", s.submitBuild)
		v1.GET("/projects/:project/history", s.buildHistory)
	}

	return engine
}

// Tags every request with an identifier and logs its outcome.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()

		slog.Info("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
