package driven

// ResourceProbe reports host limits used to bound concurrency.
type ResourceProbe interface {
	// CPUCount returns the number of logical cores.
	CPUCount() int

	// OpenFileLimit returns the soft open-file limit.
	// Zero means unlimited or unknown.
	OpenFileLimit() (uint64, error)
}
