package domain

import "time"

// LayerStatus describes one layer as seen by one runtime.
type LayerStatus struct {
	Name     string
	Position int
	Flags    string
	// Phases maps phase name to the status of the layer's last pass through it.
	Phases map[string]string
}

// RuntimeStatus is the introspection view of one runtime orchestrator.
type RuntimeStatus struct {
	Name      string
	Building  bool
	Layers    []LayerStatus
	Errors    []string
	Classpath []string
}

// StatusSnapshot is the introspection view of a whole build process.
type StatusSnapshot struct {
	Root     string
	Runtimes []RuntimeStatus
	// PID, Uptime and LastActivity are filled in by the introspection server.
	PID          int
	Uptime       time.Duration
	LastActivity time.Time
}
