package kittengridaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kittengrid/actions/internal/pkg/agent"
	"github.com/kittengrid/actions/internal/pkg/pipeline"
	"github.com/kittengrid/actions/internal/pkg/service"
)

// ServiceCmd starts the agent with one service described by discrete inputs.
// It detaches by default so later steps can talk to the service.
type ServiceCmd struct {
	AgentInputs `embed:""`

	Name        string `env:"INPUT_NAME" help:"Service name."`
	Cmd         string `env:"INPUT_CMD" help:"Command starting the service."`
	Port        string `env:"INPUT_PORT" help:"Port the service listens on."`
	HealthCheck string `name:"healthcheck" env:"INPUT_HEALTHCHECK" help:"Health check as comma separated key=value pairs (interval, timeout, retries, path)."`
}

func (command *ServiceCmd) Run(ctx context.Context, launcher *agent.Launcher, materializer *service.Materializer, pipelineContext pipeline.Context) error {
	options, err := command.prepare(pipelineContext, true)
	if err != nil {
		return err
	}

	document := service.NewDocument(service.Fields{
		Name:        command.Name,
		Cmd:         command.Cmd,
		Port:        command.Port,
		HealthCheck: command.HealthCheck,
	})

	configPath, err := materializer.Materialize(document)
	if err != nil {
		return fmt.Errorf("materialize config: %w", err)
	}

	slog.Info("Service config written.", slog.String("service", command.Name), slog.String("path", configPath))

	return command.launch(ctx, launcher, pipelineContext, options, serviceArguments(pipelineContext, configPath), configPath)
}
