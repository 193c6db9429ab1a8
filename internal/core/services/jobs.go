package services

import (
	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/logger"
)

// ResolveJobLimits computes the effective general, network and checkout job
// counts. Each level is clamped to what the open-file soft limit can sustain
// and is never below 1.
func ResolveJobLimits(req domain.JobRequest, res domain.ResourceLimits, tuning domain.JobTuning) domain.JobLimits {
	configured := 0
	switch {
	case req.Jobs > 0:
		configured = req.Jobs
	case req.WorkspaceDefault > 0:
		configured = req.WorkspaceDefault
	}

	limits := domain.JobLimits{
		Jobs:     res.CPUCount,
		Network:  1,
		Checkout: tuning.LocalJobs,
	}
	if limits.Checkout <= 0 {
		limits.Checkout = domain.DefaultLocalJobs
	}
	if configured > 0 {
		limits = domain.JobLimits{Jobs: configured, Network: configured, Checkout: configured}
	}
	if req.NetworkJobs > 0 {
		limits.Network = req.NetworkJobs
	}
	if req.CheckoutJobs > 0 {
		limits.Checkout = req.CheckoutJobs
	}

	if bound, ok := descriptorBound(res.OpenFileSoftLimit, tuning); ok {
		limits.Jobs = min(limits.Jobs, bound)
		limits.Network = min(limits.Network, bound)
		limits.Checkout = min(limits.Checkout, bound)
	}

	limits.Jobs = max(1, limits.Jobs)
	limits.Network = max(1, limits.Network)
	limits.Checkout = max(1, limits.Checkout)
	return limits
}

// descriptorBound returns the job ceiling for a soft limit. A zero limit
// means unknown or unlimited and yields no bound.
func descriptorBound(soft uint64, tuning domain.JobTuning) (int, bool) {
	if soft == 0 {
		return 0, false
	}
	reserve := tuning.FDReserve
	if reserve <= 0 {
		reserve = domain.DefaultFDReserve
	}
	perJob := tuning.FDPerJob
	if perJob <= 0 {
		perJob = domain.DefaultFDPerJob
	}

	// RLIM_INFINITY and similar sentinels.
	if soft > 1<<40 {
		return 0, false
	}
	usable := int64(soft) - int64(reserve)
	return max(1, int(usable/int64(perJob))), true
}

// ProbeResources reads host limits through the probe. A failing open-file
// probe is logged and treated as unlimited.
func ProbeResources(probe driven.ResourceProbe) domain.ResourceLimits {
	if probe == nil {
		return domain.ResourceLimits{CPUCount: 1}
	}
	limits := domain.ResourceLimits{CPUCount: probe.CPUCount()}
	soft, err := probe.OpenFileLimit()
	if err != nil {
		logger.Warn("could not read open file limit: %v", err)
		return limits
	}
	limits.OpenFileSoftLimit = soft
	return limits
}
