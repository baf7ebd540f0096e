package cli

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/xhanulik/oss-fuzz/internal/gcb"
	"github.com/xhanulik/oss-fuzz/internal/ledger"
	"github.com/xhanulik/oss-fuzz/internal/paths"
	"github.com/xhanulik/oss-fuzz/internal/trigger"
)

// Represents the 'buildplan serve' command.
type ServeCmd struct {
	Addr      string `help:"Listen address." placeholder:"HOST:PORT"`
	LedgerDir string `help:"Directory for the build history ledger." placeholder:"DIR"`
}

// Executes the serve command.
//
// Starts the HTTP trigger service and blocks until the context is cancelled
// (e.g. via SIGINT or SIGTERM).
func (c *ServeCmd) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	compiler, err := newCompiler(ctx, buildFlags{})
	if err != nil {
		return err
	}

	dir := c.LedgerDir
	if dir == "" {
		dir = paths.Ledger()
	}
	db, err := ledger.Open(dir)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := gcb.NewClient(ctx, gcb.DefaultBuildsProject)
	if err != nil {
		return err
	}

	options, err := gcb.OptionsFromEnv()
	if err != nil {
		return err
	}

	srv, err := trigger.New(trigger.Config{
		Addr:      c.Addr,
		Compiler:  compiler,
		Submitter: client,
		Ledger:    db,
		Options:   options,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("buildplan is running")

	<-ctx.Done()

	slog.Info("shutting down")
	return srv.Stop()
}
