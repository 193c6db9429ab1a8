// Package tui renders live sync progress in the terminal.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
)

// Ports aggregates the driving ports the progress view needs.
type Ports struct {
	// Sync runs the workspace sync being displayed.
	Sync driving.SyncOrchestrator
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Sync == nil {
		return ErrMissingSyncOrchestrator
	}
	return nil
}
