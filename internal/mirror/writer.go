package mirror

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/panjf2000/ants/v2"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

var ErrWriterClosed = errors.New("mirror writer closed")

type WriterConfig struct {
	Workers        int
	MaxTries       uint
	AttemptTimeout time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		Workers:        8,
		MaxTries:       5,
		AttemptTimeout: 10 * time.Second,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// WriteResult is the outcome of one remote write. It completes once the
// write succeeded, was rejected, or ran out of retries.
type WriteResult struct {
	Path string
	done chan struct{}
	err  error
}

func newWriteResult(path string) *WriteResult {
	return &WriteResult{Path: path, done: make(chan struct{})}
}

func (r *WriteResult) finish(err error) {
	r.err = err
	close(r.done)
}

func (r *WriteResult) Done() <-chan struct{} {
	return r.done
}

// Err is nil until Done is closed.
func (r *WriteResult) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the write completes or ctx ends. Ending ctx does not
// cancel the write.
func (r *WriteResult) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UnsyncedWrite is a path whose latest write failed for good.
type UnsyncedWrite struct {
	Path     string    `json:"path"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

type SyncStatus struct {
	Pending  int             `json:"pending"`
	Unsynced []UnsyncedWrite `json:"unsynced"`
}

type writeJob struct {
	path   string
	value  any
	fields map[string]any
	update bool
	after  func(error)

	ctx     context.Context
	res     *WriteResult
	touches []string
	blocked int
	next    []*writeJob
}

// paths lists every full path the job may change.
func (j *writeJob) paths() []string {
	if !j.update {
		return []string{j.path}
	}
	out := make([]string, 0, len(j.fields))
	for key := range j.fields {
		out = append(out, jsontree.Join(j.path, key))
	}
	sort.Strings(out)
	return out
}

func (j *writeJob) overlaps(other *writeJob) bool {
	for _, a := range j.touches {
		for _, b := range other.touches {
			if jsontree.Related(a, b) {
				return true
			}
		}
	}
	return false
}

// Writer sends mirror edits to the document store on a worker pool and
// retries transient failures with exponential backoff. Writes touching
// related paths reach the store in submission order.
type Writer struct {
	store    document.Store
	cfg      WriterConfig
	logger   *logging.Logger
	pool     *ants.Pool
	inflight sync.WaitGroup
	pending  atomic.Int64
	now      func() time.Time

	mu       sync.Mutex
	unsynced map[string]UnsyncedWrite

	queueMu sync.Mutex
	active  []*writeJob

	closeMu sync.RWMutex
	closed  bool
}

func NewWriter(store document.Store, cfg WriterConfig, logger *logging.Logger) (*Writer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	defaults := DefaultWriterConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = defaults.MaxTries
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaults.AttemptTimeout
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaults.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaults.MaxBackoff
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p any) {
		logger.Error("mirror write panicked", "panic", fmt.Sprint(p))
	}))
	if err != nil {
		return nil, fmt.Errorf("create write pool: %w", err)
	}

	return &Writer{
		store:    store,
		cfg:      cfg,
		logger:   logger.Named("mirror.writer"),
		pool:     pool,
		now:      time.Now,
		unsynced: make(map[string]UnsyncedWrite),
	}, nil
}

// Set replaces the value at path, nil deleting it.
func (w *Writer) Set(ctx context.Context, path string, value any, after func(error)) *WriteResult {
	return w.submit(ctx, &writeJob{path: path, value: value, after: after})
}

// Update merges fields under path. Field keys may be relative paths.
func (w *Writer) Update(ctx context.Context, path string, fields map[string]any, after func(error)) *WriteResult {
	return w.submit(ctx, &writeJob{path: path, fields: fields, update: true, after: after})
}

func (w *Writer) submit(ctx context.Context, job *writeJob) *WriteResult {
	job.res = newWriteResult(job.path)
	// The write outlives the request that caused it.
	job.ctx = context.WithoutCancel(ctx)
	job.touches = job.paths()

	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	w.pending.Add(1)
	if w.closed {
		w.complete(job, ErrWriterClosed)
		return job.res
	}
	w.inflight.Add(1)

	w.queueMu.Lock()
	for _, prev := range w.active {
		if prev.overlaps(job) {
			prev.next = append(prev.next, job)
			job.blocked++
		}
	}
	w.active = append(w.active, job)
	ready := job.blocked == 0
	w.queueMu.Unlock()

	if ready {
		w.dispatch(job)
	}
	return job.res
}

func (w *Writer) dispatch(job *writeJob) {
	err := w.pool.Submit(func() { w.work(job) })
	if err == nil {
		return
	}
	if errors.Is(err, ants.ErrPoolClosed) {
		err = ErrWriterClosed
	}
	for _, next := range w.finish(job, err) {
		w.dispatch(next)
	}
}

// work runs job and then, on the same worker, every write that was only
// waiting for it.
func (w *Writer) work(job *writeJob) {
	queue := []*writeJob{job}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		queue = append(queue, w.finish(current, w.run(current))...)
	}
}

// finish completes job and returns the queued writes it unblocked.
func (w *Writer) finish(job *writeJob, err error) []*writeJob {
	w.complete(job, err)

	w.queueMu.Lock()
	if i := slices.Index(w.active, job); i >= 0 {
		w.active = slices.Delete(w.active, i, i+1)
	}
	var ready []*writeJob
	for _, next := range job.next {
		next.blocked--
		if next.blocked == 0 {
			ready = append(ready, next)
		}
	}
	job.next = nil
	w.queueMu.Unlock()

	w.inflight.Done()
	return ready
}

func (w *Writer) run(job *writeJob) error {
	ctx := job.ctx
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.cfg.InitialBackoff
	policy.MaxInterval = w.cfg.MaxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, w.cfg.AttemptTimeout)
		defer cancel()

		var err error
		if job.update {
			err = w.store.Update(attemptCtx, job.path, job.fields)
		} else {
			err = w.store.Set(attemptCtx, job.path, job.value)
		}
		if errors.Is(err, document.ErrRejected) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(w.cfg.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			w.logger.WarnContext(ctx, "retrying document write", "path", job.path, "wait", wait, "error", err)
		}),
	)
	return err
}

func (w *Writer) complete(job *writeJob, err error) {
	w.mu.Lock()
	for _, path := range job.touches {
		if err != nil {
			w.unsynced[path] = UnsyncedWrite{Path: path, Error: err.Error(), FailedAt: w.now()}
		} else {
			delete(w.unsynced, path)
		}
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("document write failed", "path", job.path, "error", err)
	}
	w.pending.Add(-1)
	if job.after != nil {
		job.after(err)
	}
	job.res.finish(err)
}

// Forget drops failures recorded under root. It runs after a fresh
// snapshot of root has replaced the local copy.
func (w *Writer) Forget(_ context.Context, root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path := range w.unsynced {
		if jsontree.Root(path) == root {
			delete(w.unsynced, path)
		}
	}
}

// Status reports queued writes and paths left out of sync.
func (w *Writer) Status() SyncStatus {
	w.mu.Lock()
	unsynced := make([]UnsyncedWrite, 0, len(w.unsynced))
	for _, u := range w.unsynced {
		unsynced = append(unsynced, u)
	}
	w.mu.Unlock()

	sort.Slice(unsynced, func(i, j int) bool { return unsynced[i].Path < unsynced[j].Path })
	return SyncStatus{Pending: int(w.pending.Load()), Unsynced: unsynced}
}

// Close stops accepting writes and waits for queued ones until ctx ends.
func (w *Writer) Close(ctx context.Context) error {
	w.closeMu.Lock()
	w.closed = true
	w.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		w.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("wait for pending writes: %w", ctx.Err())
	}
	w.pool.Release()
	return err
}
