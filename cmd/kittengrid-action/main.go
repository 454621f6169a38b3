package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kittengridaction "github.com/kittengrid/actions/internal/app/kittengrid-action"
	"github.com/kittengrid/actions/internal/pkg/actions"
	"github.com/kittengrid/actions/internal/pkg/agent"
	"github.com/kittengrid/actions/internal/pkg/cli"
	"github.com/kittengrid/actions/internal/pkg/pipeline"
	"github.com/kittengrid/actions/internal/pkg/release"
	"github.com/kittengrid/actions/internal/pkg/service"
	"github.com/spf13/afero"
)

func main() {
	var command kittengridaction.Command

	kongCtx := kong.Parse(&command,
		kong.Name("kittengrid-action"),
		kong.Description("Download and start the Kittengrid agent from a CI workflow."),
		kong.UsageOnError(),
		kong.Vars{"version": kittengridaction.Version},
	)

	fs := afero.NewOsFs()
	host := actions.NewHost(os.Stdout, os.Getenv)

	logger, err := cli.CreateLoggerFromConfig(command.Log)
	if err != nil {
		host.SetFailed(fmt.Sprintf("create logger: %s", err))
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = actions.Guard(func() error {
		return run(ctx, kongCtx, fs, host)
	})
	stop()

	if err != nil {
		host.SetFailed(actions.FailureMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, kongCtx *kong.Context, fs afero.Fs, host *actions.Host) error {
	pipelineContext, err := pipeline.LoadContext(fs, os.Getenv)
	if err != nil {
		return fmt.Errorf("load pipeline context: %w", err)
	}

	downloadRoot, err := cli.ResolveDownloadRoot()
	if err != nil {
		return fmt.Errorf("resolve download root: %w", err)
	}

	logDir, err := cli.ResolveAgentLogDir()
	if err != nil {
		return fmt.Errorf("resolve agent log dir: %w", err)
	}

	downloader := release.NewDownloader(fs, release.WithRootDir(downloadRoot))

	launcher := agent.NewLauncher(downloader, host, fs,
		agent.WithActionVersion(kittengridaction.Version),
		agent.WithLogDir(logDir),
	)

	materializer := service.NewMaterializer(fs, downloadRoot)

	kongCtx.BindTo(ctx, (*context.Context)(nil))

	return kongCtx.Run(launcher, materializer, pipelineContext)
}
