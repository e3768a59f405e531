package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tallink-tennis/fuss-tracker/external/excel"
	"github.com/tallink-tennis/fuss-tracker/internal/config"
	"github.com/tallink-tennis/fuss-tracker/internal/interfaces/httpapi"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	basecache "github.com/tallink-tennis/fuss-tracker/internal/platform/cache"
	idgen "github.com/tallink-tennis/fuss-tracker/internal/platform/id"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
	"github.com/tallink-tennis/fuss-tracker/internal/usecase"
)

const sessionSweepInterval = 10 * time.Minute

// App is the assembled service: the HTTP server plus the mirror that keeps
// its state in step with the document store.
type App struct {
	Server *http.Server

	syncer   *mirror.Syncer
	writer   *mirror.Writer
	sessions *basecache.Store
	closers  []func() error
	logger   *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	remote, closers, err := openDocumentStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{closers: closers, logger: logger}

	state := mirror.NewState()
	a.syncer = mirror.NewSyncer(remote, state, mirror.SyncerConfig{RefreshWorkers: cfg.SyncWorkers}, logger)
	a.writer, err = mirror.NewWriter(remote, mirror.WriterConfig{
		Workers:        cfg.SyncWorkers,
		MaxTries:       uint(cfg.SyncMaxTries),
		AttemptTimeout: cfg.SyncWriteTimeout,
	}, logger)
	if err != nil {
		_ = a.closeStores()
		return nil, fmt.Errorf("create mirror writer: %w", err)
	}
	a.syncer.OnReplace(a.writer.Forget)
	store := mirror.NewStore(state, a.writer)

	clock := usecase.Clock{Location: cfg.Timezone}
	a.sessions = basecache.NewStore(cfg.SessionTTL)
	authSvc := usecase.NewAuthService(store, a.sessions, idgen.NewRandomGenerator("sess_"), usecase.Credentials{
		AdminUser:        cfg.AdminUser,
		AdminPassword:    cfg.AdminPassword,
		CoachUser:        cfg.CoachUser,
		CoachPassword:    cfg.CoachPassword,
		CoachAltPassword: cfg.CoachAltPassword,
	}, logger)
	groupSvc := usecase.NewGroupService(store, logger)
	a.syncer.OnReplace(groupSvc.FillDefaults)

	handler := httpapi.NewHandler(httpapi.Services{
		Auth:       authSvc,
		Attendance: usecase.NewAttendanceService(store, clock, logger),
		Groups:     groupSvc,
		Roster:     usecase.NewRosterService(store, logger),
		Schedule:   usecase.NewScheduleService(store, clock, logger),
		Feedback:   usecase.NewFeedbackService(store, clock, logger),
		Stats:      usecase.NewStatsService(store, clock, cfg.ProgramStartDate, logger),
		Sync:       usecase.NewSyncService(store, a.syncer, logger),
		Export:     usecase.NewExportService(store, excel.NewAttendanceExporter(), clock, logger),
	}, cfg.SyncWriteWait, logger)

	router := httpapi.NewRouter(handler, authSvc, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestIDs:         idgen.NewUUIDGenerator(),
	})

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// An unreachable store at boot still serves an empty mirror; the
	// subscriptions fill it once the store answers.
	if err := a.syncer.Refresh(ctx); err != nil {
		logger.WarnContext(ctx, "initial mirror refresh failed", "error", err)
	}

	return a, nil
}

// Run follows the document store and sweeps expired sessions until ctx is
// done.
func (a *App) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := a.sessions.Sweep(); n > 0 {
					a.logger.DebugContext(ctx, "expired sessions swept", "count", n)
				}
			}
		}
	}()

	a.syncer.Run(ctx)
}

// Close drains queued writes and releases the document store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.writer.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain mirror writes: %w", err))
	}
	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
