package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/roster"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// AddPlayerInput is the admin "new player" form. Groups default when empty.
type AddPlayerInput struct {
	Name           string `validate:"required,max=80,excludesall=.$#[]/"`
	Password       string `validate:"required"`
	ParentPassword string
	TennisGroup    string `validate:"omitempty,oneof=1 2"`
	FussGroup      string `validate:"omitempty,oneof=A B"`
}

type RosterService struct {
	store    *mirror.Store
	validate *validator.Validate
	logger   *logging.Logger
	now      func() time.Time
}

func NewRosterService(store *mirror.Store, logger *logging.Logger) *RosterService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RosterService{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *RosterService) ListPlayers(ctx context.Context) []roster.Member {
	_, span := startUsecaseSpan(ctx, "usecase.RosterService.ListPlayers")
	defer span.End()

	return s.store.State().Members()
}

func (s *RosterService) ListArchived(ctx context.Context) []roster.ArchivedPlayer {
	_, span := startUsecaseSpan(ctx, "usecase.RosterService.ListArchived")
	defer span.End()

	return s.store.State().Archived()
}

func (s *RosterService) AddPlayer(ctx context.Context, input AddPlayerInput) (roster.Member, *mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.AddPlayer")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	input.TennisGroup = strings.TrimSpace(input.TennisGroup)
	input.FussGroup = strings.ToUpper(strings.TrimSpace(input.FussGroup))
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return roster.Member{}, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, archived := s.store.State().ArchivedPlayer(input.Name); archived {
		return roster.Member{}, nil, fmt.Errorf("%w: %s is archived, restore instead", ErrConflict, input.Name)
	}

	member := roster.Member{
		Name:        input.Name,
		TennisGroup: orDefault(group.KindTennis, input.TennisGroup),
		FussGroup:   orDefault(group.KindFuss, input.FussGroup),
	}
	res, err := s.store.AddPlayer(ctx, member.Name, input.Password, input.ParentPassword, member.TennisGroup, member.FussGroup)
	if err != nil {
		return roster.Member{}, nil, classify(err)
	}

	s.logger.InfoContext(ctx, "player added", "player", member.Name, "tennis_group", string(member.TennisGroup), "fuss_group", string(member.FussGroup))
	return member, res, nil
}

// ArchivePlayer removes a player from every active collection and keeps a
// restorable record.
func (s *RosterService) ArchivePlayer(ctx context.Context, name string) (roster.ArchivedPlayer, *mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ArchivePlayer")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return roster.ArchivedPlayer{}, nil, fmt.Errorf("%w: player is required", ErrInvalidInput)
	}
	rec, res, err := s.store.ArchivePlayer(ctx, name, s.now())
	if err != nil {
		return roster.ArchivedPlayer{}, nil, classify(err)
	}

	s.logger.InfoContext(ctx, "player archived", "player", name)
	return rec, res, nil
}

// RestorePlayer brings an archived player back with the archived groups.
func (s *RosterService) RestorePlayer(ctx context.Context, name string) (roster.Member, *mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.RestorePlayer")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return roster.Member{}, nil, fmt.Errorf("%w: player is required", ErrInvalidInput)
	}
	rec, res, err := s.store.RestorePlayer(ctx, name)
	if err != nil {
		return roster.Member{}, nil, classify(err)
	}

	s.logger.InfoContext(ctx, "player restored", "player", name)
	state := s.store.State()
	return roster.Member{
		Name:        rec.Name,
		TennisGroup: state.Group(group.KindTennis, rec.Name),
		FussGroup:   state.Group(group.KindFuss, rec.Name),
	}, res, nil
}

func orDefault(kind group.Kind, raw string) group.Tag {
	if raw == "" {
		return kind.Default()
	}
	return group.Tag(raw)
}
