package domain

// ProgressEvent reports one project finishing during a run.
type ProgressEvent struct {
	// Outcome is the result of the project that just finished.
	Outcome SyncOutcome

	// Batch is the zero-based batch the project belonged to.
	Batch int

	// Batches is the number of batches in the run.
	Batches int

	// Done counts projects finished so far, including this one.
	Done int

	// Total is the number of projects in the run.
	Total int
}

// Fraction returns Done/Total, or 1 when there is nothing to do.
func (e ProgressEvent) Fraction() float64 {
	if e.Total <= 0 {
		return 1
	}
	return float64(e.Done) / float64(e.Total)
}
