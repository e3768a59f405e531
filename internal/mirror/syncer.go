package mirror

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

type SyncerConfig struct {
	Roots            []string
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	RefreshWorkers   int
}

// Syncer keeps State current by following one subscription per root.
type Syncer struct {
	store  document.Store
	state  *State
	cfg    SyncerConfig
	logger *logging.Logger

	mu        sync.RWMutex
	connected map[string]bool
	hooks     []func(ctx context.Context, root string)
}

func NewSyncer(store document.Store, state *State, cfg SyncerConfig, logger *logging.Logger) *Syncer {
	if logger == nil {
		logger = logging.Default()
	}
	if len(cfg.Roots) == 0 {
		cfg.Roots = append([]string(nil), document.Roots...)
	}
	if cfg.ReconnectInitial <= 0 {
		cfg.ReconnectInitial = 500 * time.Millisecond
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	if cfg.RefreshWorkers <= 0 {
		cfg.RefreshWorkers = 4
	}

	return &Syncer{
		store:     store,
		state:     state,
		cfg:       cfg,
		logger:    logger.Named("mirror.syncer"),
		connected: make(map[string]bool),
	}
}

// OnReplace registers fn to run after every snapshot is installed.
// Register hooks before Run.
func (s *Syncer) OnReplace(fn func(ctx context.Context, root string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Run follows every root until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	var wg conc.WaitGroup
	for _, root := range s.cfg.Roots {
		wg.Go(func() { s.follow(ctx, root) })
	}
	wg.Wait()
}

func (s *Syncer) follow(ctx context.Context, root string) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.ReconnectInitial
	policy.MaxInterval = s.cfg.ReconnectMax

	for ctx.Err() == nil {
		err := s.store.Subscribe(ctx, root, func(snap document.Snapshot) {
			policy.Reset()
			s.markConnected(root, true)
			s.install(ctx, root, snap.Raw)
		})
		s.markConnected(root, false)
		if ctx.Err() != nil {
			return
		}

		wait := policy.NextBackOff()
		s.logger.WarnContext(ctx, "subscription dropped, reconnecting", "root", root, "wait", wait, "error", err)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Refresh reads every root once. It is used at startup and by the sync
// endpoint to recover from missed notifications.
func (s *Syncer) Refresh(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(s.cfg.RefreshWorkers)
	for _, root := range s.cfg.Roots {
		p.Go(func(ctx context.Context) error {
			raw, err := s.store.Get(ctx, root)
			if err != nil {
				return fmt.Errorf("read %s: %w", root, err)
			}
			s.install(ctx, root, raw)
			return nil
		})
	}
	return p.Wait()
}

func (s *Syncer) install(ctx context.Context, root string, raw []byte) {
	if err := s.state.Replace(root, raw); err != nil {
		s.logger.ErrorContext(ctx, "drop malformed snapshot", "root", root, "error", err)
		return
	}

	s.mu.RLock()
	hooks := slices.Clone(s.hooks)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, root)
	}
}

func (s *Syncer) markConnected(root string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		delete(s.connected, root)
		return
	}
	s.connected[root] = true
}

// Connected lists roots with a live subscription.
func (s *Syncer) Connected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.connected))
	for root := range s.connected {
		out = append(out, root)
	}
	sort.Strings(out)
	return out
}
