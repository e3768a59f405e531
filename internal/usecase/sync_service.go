package usecase

import (
	"context"
	"fmt"

	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// SyncReport is the health of the local mirror.
type SyncReport struct {
	mirror.SyncStatus
	Connected []string `json:"connected"`
}

type SyncService struct {
	store  *mirror.Store
	syncer *mirror.Syncer
	logger *logging.Logger
}

func NewSyncService(store *mirror.Store, syncer *mirror.Syncer, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{store: store, syncer: syncer, logger: logger}
}

func (s *SyncService) Status(ctx context.Context) SyncReport {
	_, span := startUsecaseSpan(ctx, "usecase.SyncService.Status")
	defer span.End()

	return SyncReport{SyncStatus: s.store.Status(), Connected: s.syncer.Connected()}
}

// Refresh re-reads every collection from the document store.
func (s *SyncService) Refresh(ctx context.Context) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Refresh")
	defer span.End()

	if err := s.syncer.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "mirror refresh failed", "error", err)
		return SyncReport{}, fmt.Errorf("%w: refresh mirror: %v", ErrDependencyUnavailable, err)
	}
	return s.Status(ctx), nil
}
