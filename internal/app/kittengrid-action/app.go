package kittengridaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/kittengrid/actions/internal/pkg/agent"
	"github.com/kittengrid/actions/internal/pkg/cli"
	"github.com/kittengrid/actions/internal/pkg/pipeline"
)

// Version is the action release, overridden at build time.
var Version = "dev"

// ErrInputRequired indicates a required action input is missing or blank.
var ErrInputRequired = errors.New("input required and not supplied")

type Command struct {
	Log     cli.LogConfig    `embed:"" prefix:"log-"`
	Version kong.VersionFlag `help:"Print the action version and exit."`

	Preview  PreviewCmd  `cmd:"" help:"Start the agent with a raw YAML services config."`
	Service  ServiceCmd  `cmd:"" help:"Start the agent with a single service built from inputs."`
	Terminal TerminalCmd `cmd:"" help:"Start the agent with the web terminal only."`
}

// AgentInputs are the action inputs shared by every entry point.
type AgentInputs struct {
	DryRun             string `name:"dry-run" env:"INPUT_DRY-RUN" help:"Log the agent command instead of running it (true|false)."`
	AgentLogLevel      string `name:"agent-log-level" env:"INPUT_LOG-LEVEL" default:"info" help:"Log level passed to the agent."`
	APIKey             string `name:"api-key" env:"INPUT_API-KEY" required:"" help:"Kittengrid API key."`
	ShowServicesOutput string `name:"show-services-output" env:"INPUT_SHOW-SERVICES-OUTPUT" default:"false" help:"Forward service output to the agent log."`
	Background         string `name:"background" env:"INPUT_BACKGROUND" help:"Detach the agent from the step (true|false), empty keeps the command default."`
}

type launchOptions struct {
	dryRun     bool
	background bool
}

// prepare validates the inputs before anything is written or exported.
func (inputs *AgentInputs) prepare(pipelineContext pipeline.Context, defaultBackground bool) (launchOptions, error) {
	// The runner exports an empty INPUT_* variable for an unset secret, which
	// satisfies kong's required check.
	if strings.TrimSpace(inputs.APIKey) == "" {
		return launchOptions{}, fmt.Errorf("%w: api-key", ErrInputRequired)
	}

	dryRun, err := agent.ValidateDryRunInput(inputs.DryRun)
	if err != nil {
		return launchOptions{}, err
	}

	background, err := agent.ParseBooleanInput(inputs.Background, defaultBackground)
	if err != nil {
		return launchOptions{}, fmt.Errorf("parse background input: %w", err)
	}

	if !pipelineContext.HasPullRequest() {
		return launchOptions{}, agent.ErrMissingPullRequestContext
	}

	return launchOptions{dryRun: dryRun, background: background}, nil
}

// launch exports the agent environment and starts the agent.
func (inputs *AgentInputs) launch(ctx context.Context, launcher *agent.Launcher, pipelineContext pipeline.Context, options launchOptions, arguments *agent.Arguments, configPath string) error {
	variables, err := agent.BuildEnvironment(pipelineContext, agent.EnvironmentInput{
		LogLevel:           inputs.AgentLogLevel,
		APIKey:             inputs.APIKey,
		ShowServicesOutput: inputs.ShowServicesOutput,
		ConfigPath:         configPath,
	})
	if err != nil {
		return err
	}

	state, err := launcher.Start(ctx, agent.Request{
		Arguments:   arguments,
		Environment: variables,
		DryRun:      options.dryRun,
		Background:  options.background,
	})
	if err != nil {
		return fmt.Errorf("start agent: %w", err)
	}

	slog.Debug("Agent launch finished.", slog.String("state", string(state)))

	return nil
}

// serviceArguments builds the arguments used by the entry points that may start services.
func serviceArguments(pipelineContext pipeline.Context, configPath string) *agent.Arguments {
	arguments := agent.NewArguments()
	arguments.ApplyConfig(configPath)

	if arguments.ApplyActor(pipelineContext.Actor) {
		slog.Info("Triggered by a bot account, services will be started.", slog.String("actor", pipelineContext.Actor))
	}

	return arguments
}
