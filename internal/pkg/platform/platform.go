// Package platform maps host operating system and architecture facts to
// the agent release identifiers published upstream.
package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Architecture is an agent release architecture.
type Architecture string

// OperatingSystem is an agent release operating system.
type OperatingSystem string

const (
	AMD64 Architecture = "amd64"
	ARM64 Architecture = "arm64"

	Linux OperatingSystem = "linux"
)

// vendorAMD64 is the name some runtimes use for amd64.
const vendorAMD64 = "x64"

var (
	// ErrUnsupportedArchitecture indicates no agent release exists for the architecture.
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")

	// ErrUnsupportedOS indicates no agent release exists for the operating system.
	ErrUnsupportedOS = errors.New("unsupported OS")
)

// Facts are the raw platform identifiers of the host, as reported by the runtime.
type Facts struct {
	Arch string
	OS   string
}

// Current returns the facts of the running process.
func Current() Facts {
	return Facts{
		Arch: runtime.GOARCH,
		OS:   runtime.GOOS,
	}
}

// ReleaseTarget identifies a single agent release archive.
type ReleaseTarget struct {
	Architecture    Architecture
	OperatingSystem OperatingSystem
	Version         string
}

// Resolve validates raw architecture and operating system identifiers.
// The architecture is checked first; errors echo the raw input values.
func Resolve(rawArch, rawOS string) (Architecture, OperatingSystem, error) {
	arch := Architecture(rawArch)
	if rawArch == vendorAMD64 {
		arch = AMD64
	}

	if arch != AMD64 && arch != ARM64 {
		return "", "", fmt.Errorf("%w: %s, only amd64 and arm64 are supported", ErrUnsupportedArchitecture, rawArch)
	}

	if OperatingSystem(rawOS) != Linux {
		return "", "", fmt.Errorf("%w: %s, only linux is currently supported", ErrUnsupportedOS, rawOS)
	}

	return arch, Linux, nil
}

// ResolveTarget resolves facts into the release target for version.
func ResolveTarget(facts Facts, version string) (ReleaseTarget, error) {
	arch, os, err := Resolve(facts.Arch, facts.OS)
	if err != nil {
		return ReleaseTarget{}, err
	}

	return ReleaseTarget{
		Architecture:    arch,
		OperatingSystem: os,
		Version:         version,
	}, nil
}
