package kittengridaction

import (
	"context"

	"github.com/kittengrid/actions/internal/pkg/agent"
	"github.com/kittengrid/actions/internal/pkg/pipeline"
)

// TerminalCmd starts the agent with the web terminal and nothing else.
type TerminalCmd struct {
	AgentInputs `embed:""`
}

func (command *TerminalCmd) Run(ctx context.Context, launcher *agent.Launcher, pipelineContext pipeline.Context) error {
	options, err := command.prepare(pipelineContext, false)
	if err != nil {
		return err
	}

	return command.launch(ctx, launcher, pipelineContext, options, agent.NewArguments(), "")
}
