package domain

// Job defaults used when neither the user nor the workspace says otherwise.
const (
	// DefaultLocalJobs is the checkout concurrency when nothing is configured.
	DefaultLocalJobs = 8

	// DefaultFDReserve is the number of descriptors kept back for the tool itself.
	DefaultFDReserve = 5

	// DefaultFDPerJob approximates descriptors one job holds open: a network
	// connection plus object and index handles.
	DefaultFDPerJob = 3
)

// JobRequest holds the user and workspace job settings. Zero means unset.
type JobRequest struct {
	// Jobs is the user-requested general job count.
	Jobs int

	// NetworkJobs overrides the network (fetch) job count.
	NetworkJobs int

	// CheckoutJobs overrides the local (checkout) job count.
	CheckoutJobs int

	// WorkspaceDefault is the manifest-level default job count.
	WorkspaceDefault int
}

// ResourceLimits describes the host.
type ResourceLimits struct {
	// CPUCount is the number of logical cores.
	CPUCount int

	// OpenFileSoftLimit is the soft RLIMIT_NOFILE. Zero means unknown or
	// unlimited and disables descriptor clamping.
	OpenFileSoftLimit uint64
}

// JobTuning exposes the descriptor arithmetic used for clamping. A zero
// field means the matching default.
type JobTuning struct {
	// LocalJobs is the checkout concurrency when no job count is configured.
	LocalJobs int

	// FDReserve is the number of descriptors kept back for the tool itself.
	FDReserve int

	// FDPerJob is the number of descriptors one job holds open.
	FDPerJob int
}

// DefaultJobTuning returns the built-in tuning.
func DefaultJobTuning() JobTuning {
	return JobTuning{
		LocalJobs: DefaultLocalJobs,
		FDReserve: DefaultFDReserve,
		FDPerJob:  DefaultFDPerJob,
	}
}

// JobLimits are the three effective concurrency levels.
type JobLimits struct {
	// Jobs is the general job count.
	Jobs int

	// Network is the number of parallel fetches.
	Network int

	// Checkout is the number of parallel checkouts.
	Checkout int
}
