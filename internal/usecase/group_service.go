package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/roster"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// GroupNotice tells a player or parent whether the coach moved them.
type GroupNotice struct {
	Player      string    `json:"player"`
	TennisGroup group.Tag `json:"tennisGroup"`
	FussGroup   group.Tag `json:"fussGroup"`
	Changed     bool      `json:"changed"`
}

type GroupService struct {
	store  *mirror.Store
	logger *logging.Logger
}

func NewGroupService(store *mirror.Store, logger *logging.Logger) *GroupService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GroupService{store: store, logger: logger}
}

// List returns every active player with both groups resolved.
func (s *GroupService) List(ctx context.Context) []roster.Member {
	_, span := startUsecaseSpan(ctx, "usecase.GroupService.List")
	defer span.End()

	return s.store.State().Members()
}

// Assign moves a player to tag within the activity.
func (s *GroupService) Assign(ctx context.Context, rawKind, player, rawTag string) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.Assign", attribute.String("group.kind", rawKind), attribute.String("group.tag", rawTag))
	defer span.End()

	kind, err := parseKind(rawKind)
	if err != nil {
		return nil, err
	}
	tag := group.Tag(strings.ToUpper(strings.TrimSpace(rawTag)))
	if err := kind.Validate(tag); err != nil {
		return nil, classify(err)
	}
	if player, err = requireActive(s.store.State(), player); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "assign group", "kind", string(kind), "player", player, "tag", string(tag))
	return s.store.SetGroup(ctx, kind, player, tag), nil
}

// Notice reports the groups of the session's player and whether they changed
// since the last acknowledgement.
func (s *GroupService) Notice(ctx context.Context, sess auth.Session) (GroupNotice, error) {
	_, span := startUsecaseSpan(ctx, "usecase.GroupService.Notice")
	defer span.End()

	player, ok := auth.Subject(sess)
	if !ok {
		return GroupNotice{}, fmt.Errorf("%w: group notices are for players and parents", ErrForbidden)
	}
	state := s.store.State()
	return GroupNotice{
		Player:      player,
		TennisGroup: state.Group(group.KindTennis, player),
		FussGroup:   state.Group(group.KindFuss, player),
		Changed:     state.GroupChanged(player),
	}, nil
}

func (s *GroupService) Acknowledge(ctx context.Context, sess auth.Session) error {
	_, span := startUsecaseSpan(ctx, "usecase.GroupService.Acknowledge")
	defer span.End()

	player, ok := auth.Subject(sess)
	if !ok {
		return fmt.Errorf("%w: group notices are for players and parents", ErrForbidden)
	}
	s.store.AcknowledgeGroupChange(player)
	return nil
}

// FillDefaults is run after snapshots of the group or password collections
// arrive. Writes are only issued for players without a tag.
func (s *GroupService) FillDefaults(ctx context.Context, root string) {
	switch root {
	case document.RootPlayerGroups, document.RootFussGroups, document.RootPlayerPasswords:
	default:
		return
	}

	res := s.store.FillGroupDefaults(ctx)
	if res == nil {
		return
	}
	s.logger.InfoContext(ctx, "filling default groups", "trigger", root)
	go func() {
		if err := res.Wait(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "default group fill failed", "error", err)
		}
	}()
}
