// Package pipeline reads the read-only pipeline metadata the runner exposes
// to a step: who triggered it, for which repository, commit and pull request.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// ErrInvalidEventPayload indicates the event payload file is not valid JSON.
var ErrInvalidEventPayload = errors.New("invalid event payload")

// Context is the pipeline metadata of the current run.
type Context struct {
	Actor     string
	Owner     string
	Repo      string
	SHA       string
	RunID     string
	EventName string

	// PullRequestNumber is zero when the run was not triggered by a pull request.
	PullRequestNumber int64
}

// Repository returns the owner/repo identifier.
func (context Context) Repository() string {
	return context.Owner + "/" + context.Repo
}

// HasPullRequest reports whether the run carries pull request metadata.
func (context Context) HasPullRequest() bool {
	return context.PullRequestNumber > 0
}

// LoadContext reads the context from runner environment variables and the
// event payload file referenced by GITHUB_EVENT_PATH.
func LoadContext(fs afero.Fs, getenv func(string) string) (Context, error) {
	context := Context{
		Actor:     getenv("GITHUB_ACTOR"),
		SHA:       getenv("GITHUB_SHA"),
		RunID:     getenv("GITHUB_RUN_ID"),
		EventName: getenv("GITHUB_EVENT_NAME"),
	}

	if repository := getenv("GITHUB_REPOSITORY"); repository != "" {
		owner, repo, found := strings.Cut(repository, "/")
		if !found {
			return Context{}, fmt.Errorf("parse GITHUB_REPOSITORY %q: expected owner/repo", repository)
		}
		context.Owner = owner
		context.Repo = repo
	}

	eventPath := getenv("GITHUB_EVENT_PATH")
	if eventPath == "" {
		return context, nil
	}

	payload, err := afero.ReadFile(fs, eventPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Event payload file does not exist.", slog.String("path", eventPath))
			return context, nil
		}
		return Context{}, fmt.Errorf("read event payload: %w", err)
	}

	if !gjson.ValidBytes(payload) {
		return Context{}, fmt.Errorf("%w: %s", ErrInvalidEventPayload, eventPath)
	}

	context.PullRequestNumber = gjson.GetBytes(payload, "pull_request.number").Int()

	return context, nil
}
