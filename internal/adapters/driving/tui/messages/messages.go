// Package messages defines Bubbletea message types for the progress view.
package messages

import (
	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
)

// ProjectFinished is sent as each project completes.
type ProjectFinished struct {
	Event domain.ProgressEvent
}

// SyncFinished carries the run result back to the model.
type SyncFinished struct {
	Report *driving.SyncReport
	Err    error
}
