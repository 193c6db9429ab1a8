package system

import (
	"runtime"

	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// Ensure ResourceProbe implements the interface.
var _ driven.ResourceProbe = (*ResourceProbe)(nil)

// ResourceProbe reads limits of the current process.
type ResourceProbe struct{}

// NewResourceProbe creates a probe.
func NewResourceProbe() *ResourceProbe {
	return &ResourceProbe{}
}

// CPUCount returns the number of logical CPUs usable by the process.
func (p *ResourceProbe) CPUCount() int {
	return runtime.NumCPU()
}

// OpenFileLimit returns the soft RLIMIT_NOFILE, or 0 where the platform has
// no such limit.
func (p *ResourceProbe) OpenFileLimit() (uint64, error) {
	return openFileLimit()
}
