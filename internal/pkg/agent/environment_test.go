package agent

import (
	"testing"

	"github.com/kittengrid/actions/internal/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pullRequestContext() pipeline.Context {
	return pipeline.Context{
		Actor:             "octocat",
		Owner:             "kittengrid",
		Repo:              "demo",
		SHA:               "4f2c1a",
		RunID:             "9001",
		EventName:         "pull_request",
		PullRequestNumber: 42,
	}
}

func variableMap(variables []Variable) map[string]Variable {
	result := make(map[string]Variable, len(variables))
	for _, variable := range variables {
		result[variable.Name] = variable
	}
	return result
}

func TestBuildEnvironment(t *testing.T) {
	variables, err := BuildEnvironment(pullRequestContext(), EnvironmentInput{
		LogLevel:           "debug",
		APIKey:             "secret-key",
		ShowServicesOutput: "true",
		ConfigPath:         "/tmp/config.yml",
	})
	require.NoError(t, err)

	byName := variableMap(variables)

	assert.Equal(t, "github", byName[EnvVCSProvider].Value)
	assert.Equal(t, "kittengrid/demo", byName[EnvProjectVCSID].Value)
	assert.Equal(t, "42", byName[EnvPullRequestVCSID].Value)
	assert.Equal(t, "0.0.0.0", byName[EnvBindAddress].Value)
	assert.Equal(t, "https://app.kittengrid.com", byName[EnvAPIURL].Value)
	assert.Equal(t, "9001", byName[EnvWorkflowRunID].Value)
	assert.Equal(t, "4f2c1a", byName[EnvLastCommitSHA].Value)
	assert.Equal(t, "debug", byName[EnvLogLevel].Value)
	assert.Equal(t, "true", byName[EnvShowServicesOutput].Value)
	assert.Equal(t, "/tmp/config.yml", byName[EnvConfig].Value)

	apiKey := byName[EnvAPIKey]
	assert.Equal(t, "secret-key", apiKey.Value)
	assert.True(t, apiKey.Secret)

	for _, variable := range variables {
		if variable.Name != EnvAPIKey {
			assert.False(t, variable.Secret, variable.Name)
		}
	}
}

func TestBuildEnvironmentDefaults(t *testing.T) {
	variables, err := BuildEnvironment(pullRequestContext(), EnvironmentInput{APIKey: "key"})
	require.NoError(t, err)

	byName := variableMap(variables)

	assert.Equal(t, "info", byName[EnvLogLevel].Value)
	assert.Equal(t, "false", byName[EnvShowServicesOutput].Value)
	assert.NotContains(t, byName, EnvConfig)
}

func TestBuildEnvironmentWithoutPullRequest(t *testing.T) {
	context := pullRequestContext()
	context.PullRequestNumber = 0

	variables, err := BuildEnvironment(context, EnvironmentInput{APIKey: "key"})
	require.ErrorIs(t, err, ErrMissingPullRequestContext)
	require.Nil(t, variables)
}

func TestSnapshotEnvironment(t *testing.T) {
	snapshot := SnapshotEnvironment([]string{
		"HOME=/root",
		"PATH=/usr/bin:/bin",
		"KITTENGRID_API_KEY=secret",
		"KITTENGRID_CONFIG=/tmp/a=b.yml",
		"GITHUB_TOKEN=ghs_x",
		"PATHEXT=.EXE",
		"malformed",
	})

	require.Equal(t, []string{
		"KITTENGRID_API_KEY=secret",
		"KITTENGRID_CONFIG=/tmp/a=b.yml",
		"PATH=/usr/bin:/bin",
	}, snapshot)

	path, ok := lookupSnapshot(snapshot, "PATH")
	require.True(t, ok)
	require.Equal(t, "/usr/bin:/bin", path)

	_, ok = lookupSnapshot(snapshot, "HOME")
	require.False(t, ok)
}
