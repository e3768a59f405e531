package usecase

import (
	"context"
	"fmt"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/stats"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// PlayerSummary is a player's own statistics card.
type PlayerSummary struct {
	Stats   stats.PlayerStats `json:"stats"`
	Records []stats.Record    `json:"records"`
}

type StatsService struct {
	store        *mirror.Store
	clock        Clock
	programStart string
	logger       *logging.Logger
}

// NewStatsService counts records from programStart (a date key) onwards.
func NewStatsService(store *mirror.Store, clock Clock, programStart string, logger *logging.Logger) *StatsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsService{store: store, clock: clock, programStart: programStart, logger: logger}
}

// Groups computes the dashboard of one activity, grouped by tag.
func (s *StatsService) Groups(ctx context.Context, rawKind string) ([]stats.GroupStats, error) {
	_, span := startUsecaseSpan(ctx, "usecase.StatsService.Groups")
	defer span.End()

	kind, err := parseKind(rawKind)
	if err != nil {
		return nil, err
	}
	in := s.input()
	in.Kind = kind
	in.Members = s.store.State().Members()
	return stats.Compute(in), nil
}

// Player summarizes one player's records over both activities.
func (s *StatsService) Player(ctx context.Context, sess auth.Session, player string) (PlayerSummary, error) {
	_, span := startUsecaseSpan(ctx, "usecase.StatsService.Player")
	defer span.End()

	player, err := requireActive(s.store.State(), player)
	if err != nil {
		return PlayerSummary{}, err
	}
	if !auth.CanActFor(sess, player) {
		return PlayerSummary{}, fmt.Errorf("%w: cannot read statistics of %s", ErrForbidden, player)
	}

	in := s.input()
	for _, m := range s.store.State().Members() {
		if m.Name != player {
			continue
		}
		records := stats.Collect(in.Data, m, in.Window, in.Start, in.Today)
		return PlayerSummary{Stats: stats.Summarize(player, records), Records: records}, nil
	}
	return PlayerSummary{}, fmt.Errorf("%w: player %s", ErrNotFound, player)
}

func (s *StatsService) input() stats.Input {
	now := s.clock.now()
	state := s.store.State()
	return stats.Input{
		Start:  s.programStart,
		Today:  calendar.FormatDate(now),
		Window: tableWindow(state, now, true),
		Data:   state.StatsDataset(),
	}
}
