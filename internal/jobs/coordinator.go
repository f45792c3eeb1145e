package jobs

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options tunes the coordinator loop.
type Options struct {
	// PollInterval is the fixed delay between sweeps.
	PollInterval time.Duration
	// MaxAttempts bounds pipeline runs per job. 1 disables retries.
	MaxAttempts int
	// RetryBackoff is the delay before the first retry; later retries
	// double it.
	RetryBackoff time.Duration
	// ExclusiveClaim takes the claim marker before processing a job.
	ExclusiveClaim bool
	// WatchUploads wakes the loop early when the uploads tree changes.
	WatchUploads bool
	Now          func() time.Time
}

// DefaultOptions returns a 5s poll, no retries and no claim.
func DefaultOptions() Options {
	return Options{
		PollInterval: 5 * time.Second,
		MaxAttempts:  1,
		RetryBackoff: 30 * time.Second,
	}
}

// SweepStats summarizes one pass over the uploads tree.
type SweepStats struct {
	Jobs      int
	Completed int
	Failed    int
	Skipped   int
}

type outcome int

const (
	skipped outcome = iota
	completed
	failed
)

// Coordinator discovers jobs under the store and runs them one at a time.
type Coordinator struct {
	store    *Store
	pipeline *Pipeline
	opt      Options
	log      *zap.Logger
	owner    string
}

// NewCoordinator builds a coordinator. A nil logger discards output.
func NewCoordinator(store *Store, p *Pipeline, opt Options, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.PollInterval <= 0 {
		opt.PollInterval = DefaultOptions().PollInterval
	}
	if opt.MaxAttempts < 1 {
		opt.MaxAttempts = 1
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Coordinator{store: store, pipeline: p, opt: opt, log: log, owner: uuid.NewString()}
}

// Run sweeps until ctx is done, sleeping PollInterval between sweeps.
func (c *Coordinator) Run(ctx context.Context) error {
	var w *fsnotify.Watcher
	if c.opt.WatchUploads {
		var err error
		if w, err = c.watch(); err != nil {
			c.log.Warn("upload watch disabled", zap.Error(err))
			w = nil
		} else {
			defer w.Close()
		}
	}
	c.log.Info("coordinator started",
		zap.String("root", c.store.Root()),
		zap.Duration("poll_interval", c.opt.PollInterval),
		zap.Int("max_attempts", c.opt.MaxAttempts),
		zap.Bool("watch", w != nil),
	)
	for {
		st, err := c.Sweep(ctx)
		if ctx.Err() != nil {
			c.log.Info("coordinator stopped")
			return nil
		}
		if err != nil {
			c.log.Error("sweep failed", zap.Error(err))
		} else if st.Completed+st.Failed > 0 {
			c.log.Info("sweep done", zap.Int("jobs", st.Jobs), zap.Int("completed", st.Completed), zap.Int("failed", st.Failed))
		}
		if !c.wait(ctx, w) {
			c.log.Info("coordinator stopped")
			return nil
		}
	}
}

// wait blocks for the poll interval or an upload event. It returns false
// once ctx is done.
func (c *Coordinator) wait(ctx context.Context, w *fsnotify.Watcher) bool {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if w != nil {
		events, errs = w.Events, w.Errors
	}
	timer := time.NewTimer(c.opt.PollInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.Add(ev.Name)
				}
			}
			return true
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.log.Warn("upload watch error", zap.Error(err))
		}
	}
}

func (c *Coordinator) watch() (*fsnotify.Watcher, error) {
	root := c.store.UploadsRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	ids, _ := c.store.ListJobs()
	for _, id := range ids {
		_ = w.Add(c.store.UploadDir(id))
	}
	return w, nil
}

// Sweep makes one pass over every job directory, processing pending jobs
// sequentially. Only a failure to list jobs is returned; job failures are
// recorded in the job's output directory.
func (c *Coordinator) Sweep(ctx context.Context) (SweepStats, error) {
	var st SweepStats
	ids, err := c.store.ListJobs()
	if err != nil {
		return st, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Jobs++
		switch c.handle(id) {
		case completed:
			st.Completed++
		case failed:
			st.Failed++
		default:
			st.Skipped++
		}
	}
	return st, nil
}

// Process runs one job if it is pending and reports the state it ends in.
// A job without a supported input stays Discovered.
func (c *Coordinator) Process(id string) (State, error) {
	c.handle(id)
	st, ok, err := c.store.ReadStatus(id)
	if err != nil {
		return "", err
	}
	if !ok {
		return Discovered, nil
	}
	return st, nil
}

func (c *Coordinator) handle(id string) outcome {
	log := c.log.With(zap.String("job_id", id))
	input, ok, err := c.store.FindInput(id)
	if err != nil {
		log.Warn("inspect upload", zap.Error(err))
		return skipped
	}
	if !ok {
		return skipped
	}
	prev, attempts, run, err := c.pending(id)
	if err != nil {
		log.Warn("inspect outputs", zap.Error(err))
		return skipped
	}
	if !run {
		return skipped
	}
	return c.process(id, input, prev, attempts, log)
}

// pending decides from the filesystem alone whether id needs a run. It
// returns the current state and the attempts already made.
func (c *Coordinator) pending(id string) (State, int, bool, error) {
	st, ok, err := c.store.ReadStatus(id)
	if err != nil {
		return "", 0, false, err
	}
	if !ok {
		return Discovered, 0, true, nil
	}
	f, hasFailure, err := c.store.ReadFailure(id)
	if err != nil {
		return st, 0, false, err
	}
	attempts := 0
	if hasFailure {
		attempts = f.Attempts
	}
	switch st {
	case Completed:
		if c.store.HasArtifacts(id) {
			return st, attempts, false, nil
		}
		// Stale marker; the artifacts it vouches for are gone.
		return Discovered, attempts, true, nil
	case Processing:
		// Interrupted run.
		return st, attempts, true, nil
	case Failed:
		if !hasFailure || !f.Retryable || f.Attempts >= c.opt.MaxAttempts {
			return st, attempts, false, nil
		}
		due := f.FailedAt.Add(c.retryDelay(f.Attempts))
		return st, attempts, !c.opt.Now().Before(due), nil
	}
	return st, attempts, false, nil
}

// retryDelay is the wait after the given number of failed attempts.
func (c *Coordinator) retryDelay(attempts int) time.Duration {
	if c.opt.RetryBackoff <= 0 || attempts < 1 {
		return 0
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opt.RetryBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 64 * c.opt.RetryBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	var d time.Duration
	for i := 0; i < attempts; i++ {
		d = b.NextBackOff()
	}
	return d
}

func (c *Coordinator) process(id, input string, prev State, attempts int, log *zap.Logger) outcome {
	if !prev.CanTransition(Processing) {
		log.Warn("refusing transition", zap.String("from", string(prev)), zap.String("to", string(Processing)))
		return skipped
	}
	if c.opt.ExclusiveClaim {
		if err := c.store.Claim(id, c.owner); err != nil {
			if errors.Is(err, ErrClaimed) {
				log.Debug("job claimed by another coordinator")
			} else {
				log.Error("claim job", zap.Error(err))
			}
			return skipped
		}
		defer func() {
			if err := c.store.Release(id, c.owner); err != nil {
				log.Warn("release claim", zap.Error(err))
			}
		}()
	}

	now := c.opt.Now()
	job := &Job{
		ID:           id,
		InputPath:    input,
		OutputDir:    c.store.OutputDir(id),
		State:        prev,
		DiscoveredAt: now,
		Attempts:     attempts + 1,
	}
	if err := c.store.WriteStatus(id, Processing); err != nil {
		log.Error("mark processing", zap.Error(err))
		return skipped
	}
	job.State, job.StartedAt = Processing, now
	log.Info("processing job", zap.String("input", input), zap.Int("attempt", job.Attempts))

	err := c.run(job)
	job.FinishedAt = c.opt.Now()
	if err != nil {
		c.fail(job, err, log)
		return failed
	}
	if err := multierr.Append(c.store.ClearFailure(id), c.store.WriteStatus(id, Completed)); err != nil {
		log.Error("mark completed", zap.Error(err))
		return failed
	}
	job.State = Completed
	log.Info("job completed", zap.Duration("duration", job.FinishedAt.Sub(job.StartedAt)))
	return completed
}

// run executes the pipeline, turning a panic into a retryable failure.
func (c *Coordinator) run(job *Job) error {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = c.pipeline.Run(job) })
	if r := pc.Recovered(); r != nil {
		return &PipelineError{JobID: job.ID, Stage: StagePanic, Err: r.AsError(), Retryable: true}
	}
	return err
}

func (c *Coordinator) fail(job *Job, err error, log *zap.Logger) {
	pe := asPipelineError(job.ID, err)
	job.State = Failed
	log.Error("job failed",
		zap.String("stage", string(pe.Stage)),
		zap.Bool("retryable", pe.Retryable),
		zap.Int("attempt", job.Attempts),
		zap.Error(pe.Err),
	)
	rec := Failure{
		Message:   pe.Err.Error(),
		Stage:     pe.Stage,
		Retryable: pe.Retryable,
		Attempts:  job.Attempts,
		FailedAt:  job.FinishedAt,
	}
	cerr := c.store.RemovePartial(job.ID)
	cerr = multierr.Append(cerr, c.store.WriteFailure(job.ID, rec))
	cerr = multierr.Append(cerr, c.store.WriteStatus(job.ID, Failed))
	if cerr != nil {
		log.Error("record failure", zap.Error(cerr))
	}
}
