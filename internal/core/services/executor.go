package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/logger"
)

// DefaultRetryDelay is the wait before the first fetch retry. It doubles on
// each further attempt.
const DefaultRetryDelay = time.Second

// ExecutorConfig configures a ParallelExecutor.
type ExecutorConfig struct {
	// StallInterval is how long a batch may go without progress before a
	// warning. Zero disables stall detection.
	StallInterval time.Duration

	// RetryDelay is the initial backoff between fetch attempts.
	RetryDelay time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// BatchRequest is one batch handed to the executor.
type BatchRequest struct {
	// Index is the zero-based batch number, used for reporting.
	Index int

	// Projects is the batch in checkout order.
	Projects []driven.Project

	// Items indexes into Projects.
	Items []domain.WorkItem

	// Jobs bounds the number of concurrent workers.
	Jobs int

	// Options is the run configuration.
	Options domain.SyncOptions

	// Precious holds the precious-objects decision per relative path.
	Precious map[string]bool

	// OnOutcome, when set, is called from the worker as each project
	// finishes.
	OnOutcome func(domain.SyncOutcome)
}

// BatchResult is what a batch produced.
type BatchResult struct {
	// Outcomes holds one entry per attempted project, in item order.
	Outcomes []domain.SyncOutcome

	// Failed is set when any work item reported a failure.
	Failed bool

	// FailedPaths lists the projects whose fetch or checkout failed.
	FailedPaths []string

	// Dispatched lists the projects of every work item that was started.
	Dispatched []string

	// Skipped lists projects never attempted because ctx was cancelled.
	Skipped []string

	// Stalled is set when the stall monitor fired during the batch.
	Stalled bool
}

// ParallelExecutor runs the work items of a batch on a bounded worker pool.
type ParallelExecutor struct {
	stallInterval time.Duration
	retryDelay    time.Duration
	now           func() time.Time
}

// NewParallelExecutor creates an executor.
func NewParallelExecutor(cfg ExecutorConfig) *ParallelExecutor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	retryDelay := cfg.RetryDelay
	if retryDelay < 0 {
		retryDelay = 0
	}
	return &ParallelExecutor{
		stallInterval: cfg.StallInterval,
		retryDelay:    retryDelay,
		now:           now,
	}
}

// ExecuteBatch runs every work item of the batch and waits for all started
// items to finish. A failing item never cancels its siblings. Cancelling ctx
// stops dispatch of further items; a running worker finishes its current
// project and skips the rest of its item.
func (e *ParallelExecutor) ExecuteBatch(ctx context.Context, req BatchRequest) BatchResult {
	tracker := NewProgressTracker(e.now)
	monitor := NewStallMonitor(tracker, e.stallInterval, req.Index, len(req.Projects), e.now)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitor.Run(monitorCtx)
	}()

	results := make([][]domain.SyncOutcome, len(req.Items))
	started := make([]bool, len(req.Items))

	g := new(errgroup.Group)
	g.SetLimit(max(1, req.Jobs))
	for i, item := range req.Items {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = e.runItem(ctx, req, item, tracker)
			return nil
		})
	}
	_ = g.Wait()

	stopMonitor()
	<-monitorDone

	var res BatchResult
	for i, item := range req.Items {
		if !started[i] {
			for _, idx := range item {
				res.Skipped = append(res.Skipped, req.Projects[idx].RelPath())
			}
			continue
		}
		for _, idx := range item {
			res.Dispatched = append(res.Dispatched, req.Projects[idx].RelPath())
		}
		for _, outcome := range results[i] {
			res.Outcomes = append(res.Outcomes, outcome)
			if outcome.Failed() {
				res.Failed = true
				res.FailedPaths = append(res.FailedPaths, outcome.RelPath)
			}
		}
		for _, idx := range item {
			if p := req.Projects[idx].RelPath(); !tracker.Contains(p) {
				res.Skipped = append(res.Skipped, p)
			}
		}
	}
	res.Stalled = monitor.Stalled()
	return res
}

// runItem processes the projects of one work item in order.
func (e *ParallelExecutor) runItem(
	ctx context.Context,
	req BatchRequest,
	item domain.WorkItem,
	tracker *ProgressTracker,
) []domain.SyncOutcome {
	outcomes := make([]domain.SyncOutcome, 0, len(item))
	for _, idx := range item {
		if ctx.Err() != nil {
			break
		}
		p := req.Projects[idx]
		outcome := e.syncProject(ctx, p, req.Options, req.Precious[p.RelPath()])
		tracker.Add(p.RelPath())
		if req.OnOutcome != nil {
			req.OnOutcome(outcome)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// syncProject runs the network half then the local half of one project.
func (e *ParallelExecutor) syncProject(
	ctx context.Context,
	p driven.Project,
	opts domain.SyncOptions,
	precious bool,
) domain.SyncOutcome {
	outcome := domain.SyncOutcome{RelPath: p.RelPath()}

	if opts.LocalOnly {
		outcome.FetchSuccess = true
	} else {
		start := e.now()
		err := e.fetch(ctx, p, driven.NetworkHalfOptions{
			Tags:              opts.Tags,
			Prune:             opts.Prune,
			ForceSync:         opts.ForceSync,
			CurrentBranchOnly: opts.CurrentBranchOnly,
			PreciousObjects:   precious,
		}, opts.RetryFetches)
		outcome.FetchDuration = e.now().Sub(start)
		if err != nil {
			logger.Debug("fetch %s failed: %v", p.RelPath(), err)
			outcome.FetchError = err
			return outcome
		}
		outcome.FetchSuccess = true
	}

	if opts.NetworkOnly || p.Worktree() == "" {
		outcome.CheckoutSuccess = true
		return outcome
	}

	if !p.Exists() {
		logger.Debug("checkout %s: creating working tree", p.RelPath())
	}
	start := e.now()
	err := safeCall(func() error {
		return p.SyncLocalHalf(ctx, driven.LocalHalfOptions{
			ForceSync:     opts.ForceSync,
			ForceCheckout: opts.ForceCheckout,
			DetachHead:    opts.DetachHead,
		})
	})
	outcome.CheckoutDuration = e.now().Sub(start)
	if err != nil {
		logger.Debug("checkout %s failed: %v", p.RelPath(), err)
		outcome.CheckoutError = err
		return outcome
	}
	outcome.CheckoutSuccess = true
	return outcome
}

// fetch invokes the network half, retrying up to retries extra times with
// exponential backoff.
func (e *ParallelExecutor) fetch(ctx context.Context, p driven.Project, opts driven.NetworkHalfOptions, retries int) error {
	delay := e.retryDelay
	var err error
	for attempt := 0; ; attempt++ {
		err = safeCall(func() error { return p.SyncNetworkHalf(ctx, opts) })
		if err == nil || attempt >= retries || ctx.Err() != nil {
			return err
		}
		logger.Debug("fetch %s attempt %d failed, retrying: %v", p.RelPath(), attempt+1, err)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
			delay *= 2
		}
	}
}

// safeCall converts a panic in fn into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
