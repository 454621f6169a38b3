// Package service assembles the agent configuration file describing the
// services the agent starts for a pull request.
package service

import (
	"errors"
	"strings"

	"github.com/mcuadros/go-defaults"
)

var (
	// ErrInvalidConfig indicates a raw configuration is not a YAML document.
	ErrInvalidConfig = errors.New("invalid config")
)

// Document is the top-level agent configuration.
type Document struct {
	Services []Config `json:"services"`
}

// Config describes a single service started by the agent.
type Config struct {
	Name        string       `json:"name"`
	Cmd         string       `json:"cmd"`
	Port        string       `json:"port"`
	HealthCheck *HealthCheck `json:"healthcheck,omitempty"`
}

// HealthCheck describes how the agent probes a service's liveness.
type HealthCheck struct {
	Interval string `json:"interval" default:"30"`
	Timeout  string `json:"timeout" default:"10"`
	Retries  string `json:"retries" default:"3"`
	Path     string `json:"path" default:"/"`
}

// ParseHealthCheck parses a comma separated list of key=value pairs.
// Recognised keys are interval, timeout, retries and path; anything else is
// ignored, as are pairs without a value. Blank input yields nil rather than
// a block of defaults.
func ParseHealthCheck(input string) *HealthCheck {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	healthCheck := &HealthCheck{}

	for _, part := range strings.Split(input, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if value == "" {
			continue
		}

		switch key {
		case "interval":
			healthCheck.Interval = value
		case "timeout":
			healthCheck.Timeout = value
		case "retries":
			healthCheck.Retries = value
		case "path":
			healthCheck.Path = value
		}
	}

	defaults.SetDefaults(healthCheck)

	return healthCheck
}

// Fields are the discrete action inputs describing a single service.
type Fields struct {
	Name        string
	Cmd         string
	Port        string
	HealthCheck string
}

// NewDocument builds a single-service document from fields.
func NewDocument(fields Fields) Document {
	return Document{
		Services: []Config{
			{
				Name:        fields.Name,
				Cmd:         fields.Cmd,
				Port:        fields.Port,
				HealthCheck: ParseHealthCheck(fields.HealthCheck),
			},
		},
	}
}
