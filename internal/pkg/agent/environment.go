package agent

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/kittengrid/actions/internal/pkg/pipeline"
)

// EnvPrefix namespaces every variable read by the agent.
const EnvPrefix = "KITTENGRID_"

const (
	EnvVCSProvider        = EnvPrefix + "VCS_PROVIDER"
	EnvProjectVCSID       = EnvPrefix + "PROJECT_VCS_ID"
	EnvPullRequestVCSID   = EnvPrefix + "PULL_REQUEST_VCS_ID"
	EnvBindAddress        = EnvPrefix + "BIND_ADDRESS"
	EnvAPIURL             = EnvPrefix + "API_URL"
	EnvWorkflowRunID      = EnvPrefix + "WORKFLOW_RUN_ID"
	EnvLastCommitSHA      = EnvPrefix + "LAST_COMMIT_SHA"
	EnvLogLevel           = EnvPrefix + "LOG_LEVEL"
	EnvAPIKey             = EnvPrefix + "API_KEY"
	EnvShowServicesOutput = EnvPrefix + "SHOW_SERVICES_OUTPUT"
	EnvConfig             = EnvPrefix + "CONFIG"
)

const (
	vcsProvider  = "github"
	bindAddress  = "0.0.0.0"
	apiURL       = "https://app.kittengrid.com"
	envPath      = "PATH"
	defaultLevel = "info"
)

// ErrMissingPullRequestContext indicates the run was not triggered by a pull request.
var ErrMissingPullRequestContext = errors.New("this action can only be run on pull_request events")

// Variable is an environment variable handed to the agent.
type Variable struct {
	Name   string
	Value  string
	Secret bool
}

// EnvironmentInput carries the action inputs that end up in the agent environment.
type EnvironmentInput struct {
	LogLevel           string
	APIKey             string
	ShowServicesOutput string
	ConfigPath         string
}

// BuildEnvironment derives the agent variables from the pipeline context and inputs.
// Without pull request metadata nothing is produced.
func BuildEnvironment(context pipeline.Context, input EnvironmentInput) ([]Variable, error) {
	if !context.HasPullRequest() {
		return nil, ErrMissingPullRequestContext
	}

	logLevel := input.LogLevel
	if logLevel == "" {
		logLevel = defaultLevel
	}

	showServicesOutput := input.ShowServicesOutput
	if showServicesOutput == "" {
		showServicesOutput = "false"
	}

	variables := []Variable{
		{Name: EnvVCSProvider, Value: vcsProvider},
		{Name: EnvProjectVCSID, Value: context.Repository()},
		{Name: EnvPullRequestVCSID, Value: strconv.FormatInt(context.PullRequestNumber, 10)},
		{Name: EnvBindAddress, Value: bindAddress},
		{Name: EnvAPIURL, Value: apiURL},
		{Name: EnvWorkflowRunID, Value: context.RunID},
		{Name: EnvLastCommitSHA, Value: context.SHA},
		{Name: EnvLogLevel, Value: logLevel},
		{Name: EnvAPIKey, Value: input.APIKey, Secret: true},
		{Name: EnvShowServicesOutput, Value: showServicesOutput},
	}

	if input.ConfigPath != "" {
		variables = append(variables, Variable{Name: EnvConfig, Value: input.ConfigPath})
	}

	return variables, nil
}

// SnapshotEnvironment keeps the namespaced variables and PATH out of environ.
func SnapshotEnvironment(environ []string) []string {
	snapshot := make([]string, 0, len(environ))

	for _, entry := range environ {
		name, _, found := strings.Cut(entry, "=")
		if !found {
			continue
		}

		if strings.HasPrefix(name, EnvPrefix) || name == envPath {
			snapshot = append(snapshot, entry)
		}
	}

	slices.Sort(snapshot)

	return snapshot
}

// lookupSnapshot returns the value of name in a snapshot.
func lookupSnapshot(snapshot []string, name string) (string, bool) {
	for _, entry := range snapshot {
		key, value, _ := strings.Cut(entry, "=")
		if key == name {
			return value, true
		}
	}

	return "", false
}

var processEnviron = os.Environ
