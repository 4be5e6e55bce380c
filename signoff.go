// Package signoff carries service identity used for logging and diagnostics
package signoff

const (
	// Name is the service name reported in logs and health responses
	Name = "signoff"

	// Version is the service version reported in logs and health responses
	Version = "1.0.0"
)
