package agent

// LaunchState describes where a single launch invocation currently is.
type LaunchState string

const (
	LaunchIdle           LaunchState = "idle"
	LaunchResolving      LaunchState = "resolving"
	LaunchFetching       LaunchState = "fetching"
	LaunchExtracting     LaunchState = "extracting"
	LaunchConfiguringEnv LaunchState = "configuring-env"
	LaunchDryRunLogged   LaunchState = "dry-run-logged"
	LaunchLaunching      LaunchState = "launching"
	LaunchDetached       LaunchState = "detached"
	LaunchCompleted      LaunchState = "completed"
	LaunchFailed         LaunchState = "failed"
)

// IsTerminal reports whether no further transition can follow.
func (state LaunchState) IsTerminal() bool {
	switch state {
	case LaunchDryRunLogged, LaunchDetached, LaunchCompleted, LaunchFailed:
		return true
	default:
		return false
	}
}
