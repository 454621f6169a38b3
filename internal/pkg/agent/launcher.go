package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kittengrid/actions/internal/pkg/cli"
	"github.com/kittengrid/actions/internal/pkg/platform"
	"github.com/kittengrid/actions/internal/pkg/process"
	"github.com/kittengrid/actions/internal/pkg/release"
	"github.com/spf13/afero"
)

// InfoGroupName titles the log group with the launch context.
const InfoGroupName = "Kittengrid Agent Info"

// Downloader acquires the agent binary for a platform.
type Downloader interface {
	// Version returns the agent release version being downloaded.
	Version() string

	// DownloadAgent fetches and extracts the agent release for facts.
	DownloadAgent(ctx context.Context, facts platform.Facts) (release.DownloadResult, error)
}

// Host is the pipeline runner surface used during a launch.
type Host interface {
	ExportVariable(name, value string) error
	AddMask(value string)
	Group(name string, fn func() error) error
}

// Request describes a single launch.
type Request struct {
	Arguments   *Arguments
	Environment []Variable
	DryRun      bool
	Background  bool
}

// Launcher acquires the agent and runs it.
type Launcher struct {
	downloader Downloader
	host       Host
	fs         afero.Fs

	actionVersion string
	facts         platform.Facts
	environ       func() []string
	geteuid       func() int
	resolve       func(ctx context.Context, name string) (string, error)
	logDir        string
	stdout        io.Writer
	stderr        io.Writer

	id    string
	state LaunchState
}

// LauncherOption configures a Launcher.
type LauncherOption func(launcher *Launcher)

// WithActionVersion sets the version reported in the info group.
func WithActionVersion(version string) LauncherOption {
	return func(launcher *Launcher) {
		launcher.actionVersion = version
	}
}

// WithFacts overrides the detected platform facts.
func WithFacts(facts platform.Facts) LauncherOption {
	return func(launcher *Launcher) {
		launcher.facts = facts
	}
}

// WithEnviron overrides the source of the process environment.
func WithEnviron(environ func() []string) LauncherOption {
	return func(launcher *Launcher) {
		launcher.environ = environ
	}
}

// WithEffectiveUID overrides the effective user id lookup used to decide on elevation.
func WithEffectiveUID(geteuid func() int) LauncherOption {
	return func(launcher *Launcher) {
		launcher.geteuid = geteuid
	}
}

// WithExecutableResolver overrides how the privilege helpers are located.
func WithExecutableResolver(resolve func(ctx context.Context, name string) (string, error)) LauncherOption {
	return func(launcher *Launcher) {
		launcher.resolve = resolve
	}
}

// WithLogDir sets where background launches write their output.
func WithLogDir(logDir string) LauncherOption {
	return func(launcher *Launcher) {
		launcher.logDir = logDir
	}
}

// WithOutput sets where foreground launches write their output.
func WithOutput(stdout, stderr io.Writer) LauncherOption {
	return func(launcher *Launcher) {
		launcher.stdout = stdout
		launcher.stderr = stderr
	}
}

// NewLauncher creates a launcher for the current platform.
func NewLauncher(downloader Downloader, host Host, fs afero.Fs, options ...LauncherOption) *Launcher {
	launcher := &Launcher{
		downloader:    downloader,
		host:          host,
		fs:            fs,
		actionVersion: "dev",
		facts:         platform.Current(),
		environ:       processEnviron,
		geteuid:       os.Geteuid,
		resolve:       cli.ResolveExecutable,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		id:            uuid.NewString(),
		state:         LaunchIdle,
	}

	for _, option := range options {
		option(launcher)
	}

	return launcher
}

// ID identifies this launch in logs and in the background log directory.
func (launcher *Launcher) ID() string {
	return launcher.id
}

// State returns the current launch state.
func (launcher *Launcher) State() LaunchState {
	return launcher.state
}

// Start acquires the agent, exports its environment and runs it.
// Returns the terminal state reached together with the error that caused LaunchFailed.
func (launcher *Launcher) Start(ctx context.Context, request Request) (LaunchState, error) {
	if launcher.state != LaunchIdle {
		return launcher.state, fmt.Errorf("launcher already used, state %s", launcher.state)
	}

	err := launcher.start(ctx, request)
	if err != nil {
		launcher.transition(LaunchFailed)
		return launcher.state, err
	}

	return launcher.state, nil
}

func (launcher *Launcher) start(ctx context.Context, request Request) error {
	launcher.transition(LaunchResolving)

	if err := launcher.showContextInfo(); err != nil {
		return err
	}

	if _, err := platform.ResolveTarget(launcher.facts, launcher.downloader.Version()); err != nil {
		return err
	}

	launcher.transition(LaunchFetching)

	result, err := launcher.downloader.DownloadAgent(ctx, launcher.facts)
	if err != nil {
		return err
	}

	launcher.transition(LaunchExtracting)

	binaryPath, err := launcher.verifyBinary(result.ExtractedPath)
	if err != nil {
		return err
	}

	launcher.transition(LaunchConfiguringEnv)

	if err := launcher.exportEnvironment(request.Environment); err != nil {
		return err
	}

	arguments := request.Arguments
	if arguments == nil {
		arguments = NewArguments()
	}
	argumentList := arguments.ToSlice()

	if request.DryRun {
		slog.Info("I would have run the agent.", slog.String("command", CommandLine(binaryPath, argumentList)))
		launcher.transition(LaunchDryRunLogged)
		return nil
	}

	launcher.transition(LaunchLaunching)

	snapshot := SnapshotEnvironment(launcher.environ())

	if request.Background {
		if err := launcher.launchDetached(ctx, binaryPath, argumentList, snapshot); err != nil {
			return err
		}

		launcher.transition(LaunchDetached)
		return nil
	}

	if err := launcher.launchForeground(ctx, binaryPath, argumentList, snapshot); err != nil {
		return err
	}

	launcher.transition(LaunchCompleted)
	return nil
}

func (launcher *Launcher) transition(state LaunchState) {
	slog.Debug("Launch state changed.", slog.String("from", string(launcher.state)), slog.String("to", string(state)))
	launcher.state = state
}

func (launcher *Launcher) showContextInfo() error {
	return launcher.host.Group(InfoGroupName, func() error {
		slog.Info("Launch.", slog.String("id", launcher.id))
		slog.Info("Action version.", slog.String("version", launcher.actionVersion))
		slog.Info("Go version.", slog.String("version", runtime.Version()))
		slog.Info("Agent version.", slog.String("version", launcher.downloader.Version()))
		slog.Info("Architecture.", slog.String("arch", launcher.facts.Arch))
		slog.Info("Operating system.", slog.String("os", launcher.facts.OS))
		return nil
	})
}

func (launcher *Launcher) verifyBinary(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: no agent binary extracted", release.ErrExtractionFailed)
	}

	info, err := launcher.fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: stat agent binary: %w", release.ErrExtractionFailed, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%w: agent binary %s is a directory", release.ErrExtractionFailed, path)
	}

	return path, nil
}

func (launcher *Launcher) exportEnvironment(variables []Variable) error {
	for _, variable := range variables {
		if variable.Secret {
			launcher.host.AddMask(variable.Value)
		}

		if err := launcher.host.ExportVariable(variable.Name, variable.Value); err != nil {
			return fmt.Errorf("export %s: %w", variable.Name, err)
		}
	}

	slog.Debug("Agent environment exported.", slog.Int("count", len(variables)))

	return nil
}

// command builds the agent command, elevated through sudo unless already root.
// The snapshot is the only environment the child receives.
func (launcher *Launcher) command(ctx context.Context, binaryPath string, arguments []string, snapshot []string, detached bool) (*exec.Cmd, error) {
	name := binaryPath
	argv := arguments

	if launcher.geteuid() != 0 {
		sudoPath, err := launcher.resolve(ctx, cli.ExecutableSudo)
		if err != nil {
			return nil, fmt.Errorf("resolve privilege helper: %w", err)
		}

		argv = []string{"-E"}
		if path, ok := lookupSnapshot(snapshot, envPath); ok {
			argv = append(argv, cli.ExecutableEnv, envPath+"="+path)
		}
		argv = append(argv, binaryPath)
		argv = append(argv, arguments...)
		name = sudoPath
	}

	var cmd *exec.Cmd
	if detached {
		// #nosec G204 - binary path comes from the extracted release, arguments are constructed internally
		cmd = exec.Command(name, argv...)
	} else {
		// #nosec G204 - binary path comes from the extracted release, arguments are constructed internally
		cmd = exec.CommandContext(ctx, name, argv...)
	}
	cmd.Env = snapshot

	return cmd, nil
}

func (launcher *Launcher) launchForeground(ctx context.Context, binaryPath string, arguments []string, snapshot []string) error {
	cmd, err := launcher.command(ctx, binaryPath, arguments, snapshot, false)
	if err != nil {
		return err
	}

	stderr := newTailBuffer(stderrTailLimit)
	cmd.Stdout = launcher.stdout
	cmd.Stderr = io.MultiWriter(launcher.stderr, stderr)

	slog.Info("Starting agent.", slog.String("command", CommandLine(cmd.Path, cmd.Args[1:])))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start agent: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return executionError(err, stderr.String())
	}

	slog.Info("Agent finished.")

	return nil
}

func (launcher *Launcher) launchDetached(ctx context.Context, binaryPath string, arguments []string, snapshot []string) error {
	cmd, err := launcher.command(ctx, binaryPath, arguments, snapshot, true)
	if err != nil {
		return err
	}

	// The log files are handed to the child as its stdout and stderr, so they
	// must be real files on the host rather than entries in launcher.fs.
	sessionLogDir := filepath.Join(launcher.logDir, launcher.id, time.Now().Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(sessionLogDir, 0750); err != nil {
		return fmt.Errorf("create agent log directory: %w", err)
	}

	// #nosec G304 - sessionLogDir is constructed from controlled values
	stdoutLog, err := os.Create(filepath.Join(sessionLogDir, "stdout.log"))
	if err != nil {
		return fmt.Errorf("create stdout log: %w", err)
	}
	defer func() { _ = stdoutLog.Close() }()

	// #nosec G304 - sessionLogDir is constructed from controlled values
	stderrLog, err := os.Create(filepath.Join(sessionLogDir, "stderr.log"))
	if err != nil {
		return fmt.Errorf("create stderr log: %w", err)
	}
	defer func() { _ = stderrLog.Close() }()

	cmd.Stdout = stdoutLog
	cmd.Stderr = stderrLog

	pid, err := process.StartDetached(cmd)
	if err != nil {
		return fmt.Errorf("start agent in background: %w", err)
	}

	slog.Info("Agent started in background.", slog.Int("pid", pid), slog.String("logDir", sessionLogDir))

	return nil
}

// CommandLine renders a command the way it would be typed.
func CommandLine(path string, arguments []string) string {
	if len(arguments) == 0 {
		return path
	}

	return path + " " + strings.Join(arguments, " ")
}

// executionError reports a failed foreground run. The message always names the
// exit status and carries at most the tail of stderr.
func executionError(err error, stderrTail string) error {
	executionErr := &ExecutionError{
		Message: err.Error(),
		Cause:   err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		executionErr.ExitCode = &code
		executionErr.Message = fmt.Sprintf("agent exited with status %d", code)
	}

	if tail := strings.TrimSpace(stderrTail); tail != "" {
		executionErr.Message += ": " + tail
	}

	return executionErr
}
