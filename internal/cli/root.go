package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/xhanulik/oss-fuzz/internal"
)

// Represents the root command for the buildplan tool.
var RootCmd struct {
	Quiet   bool `short:"q" help:"Suppress informational output."`
	Verbose bool `short:"v" help:"Enable verbose output."`
	Debug   bool `short:"d" help:"Enable debug output."`

	Projects          string `help:"Directory holding one subdirectory per project." placeholder:"DIR" default:"projects"`
	RegistryProject   string `help:"Cloud project namespacing the per-project images." placeholder:"PROJECT"`
	BaseImagesProject string `help:"Cloud project namespacing the base images." placeholder:"PROJECT"`

	Fuzzing  FuzzingCmd  `cmd:"" help:"Compile and submit fuzzing builds."`
	Coverage CoverageCmd `cmd:"" help:"Compile and submit coverage builds."`
	Serve    ServeCmd    `cmd:"" help:"Serve build requests over HTTP."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("The OSS-Fuzz build planner.\n\nCompiles project descriptors into Cloud Build plans and submits them."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))
}
