package kittengridaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kittengrid/actions/internal/pkg/agent"
	"github.com/kittengrid/actions/internal/pkg/pipeline"
	"github.com/kittengrid/actions/internal/pkg/service"
)

// PreviewCmd starts the agent with a services config supplied as raw YAML.
type PreviewCmd struct {
	AgentInputs `embed:""`

	Config string `env:"INPUT_CONFIG" help:"Services config as YAML."`
}

func (command *PreviewCmd) Run(ctx context.Context, launcher *agent.Launcher, materializer *service.Materializer, pipelineContext pipeline.Context) error {
	options, err := command.prepare(pipelineContext, false)
	if err != nil {
		return err
	}

	configPath, ok, err := materializer.MaterializeRaw(command.Config)
	if err != nil {
		return fmt.Errorf("materialize config: %w", err)
	}

	if ok {
		slog.Info("Services config written.", slog.String("path", configPath))
	} else {
		slog.Info("No services config given.")
	}

	return command.launch(ctx, launcher, pipelineContext, options, serviceArguments(pipelineContext, configPath), configPath)
}
