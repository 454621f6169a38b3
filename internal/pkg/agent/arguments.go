package agent

import (
	"strconv"
	"strings"

	"github.com/kittengrid/actions/internal/pkg/utils"
)

// Arguments are the command line flags passed to the agent.
type Arguments struct {
	ConfigPath    *string
	StartServices *bool
	StartTerminal *bool
}

// NewArguments returns arguments starting the terminal only.
func NewArguments() *Arguments {
	return &Arguments{
		StartTerminal: utils.ToPointer(true),
	}
}

// ToSlice renders the flags in a fixed order: config, services, terminal.
func (arguments *Arguments) ToSlice() []string {
	var list []string

	if arguments.ConfigPath != nil {
		list = append(list, "--config", *arguments.ConfigPath)
	}

	if arguments.StartServices != nil {
		list = append(list, "--start-services", strconv.FormatBool(*arguments.StartServices))
	}

	if arguments.StartTerminal != nil {
		list = append(list, "--start-terminal", strconv.FormatBool(*arguments.StartTerminal))
	}

	return list
}

// ApplyConfig points the agent at a materialized config file.
func (arguments *Arguments) ApplyConfig(path string) {
	if path == "" {
		return
	}

	arguments.ConfigPath = &path
}

// ApplyActor starts services when the run was triggered by a bot account.
func (arguments *Arguments) ApplyActor(actor string) bool {
	if !IsBotActor(actor) {
		return false
	}

	arguments.StartServices = utils.ToPointer(true)
	return true
}

// IsBotActor reports whether actor names a bot account.
func IsBotActor(actor string) bool {
	return strings.Contains(strings.ToLower(actor), "bot")
}
