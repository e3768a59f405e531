package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// ExportInput is everything an attendance export shows.
type ExportInput struct {
	Players        []string
	Attendance     map[string]map[string]attendance.Mark
	TennisGroups   map[string]group.Tag
	FussAttendance map[string]map[string]attendance.Mark
	FussGroups     map[string]group.Tag
	Dates          []calendar.Day
}

// AttendanceExporter renders an export document.
type AttendanceExporter interface {
	ContentType() string
	FileExtension() string
	Export(w io.Writer, in ExportInput) error
}

type ExportService struct {
	store    *mirror.Store
	exporter AttendanceExporter
	clock    Clock
	logger   *logging.Logger
}

func NewExportService(store *mirror.Store, exporter AttendanceExporter, clock Clock, logger *logging.Logger) *ExportService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ExportService{store: store, exporter: exporter, clock: clock, logger: logger}
}

func (s *ExportService) ContentType() string {
	return s.exporter.ContentType()
}

// FileName is the suggested download name, dated by program time.
func (s *ExportService) FileName() string {
	return "kohalolek-" + calendar.FormatDate(s.clock.now()) + s.exporter.FileExtension()
}

// Export writes the attendance of the table window, with resolved groups
// for every active player.
func (s *ExportService) Export(ctx context.Context, w io.Writer, includePast bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExportService.Export")
	defer span.End()

	state := s.store.State()
	in := ExportInput{
		Players:        state.Players(),
		Attendance:     state.Marks(group.KindTennis),
		TennisGroups:   make(map[string]group.Tag),
		FussAttendance: state.Marks(group.KindFuss),
		FussGroups:     make(map[string]group.Tag),
		Dates:          tableWindow(state, s.clock.now(), includePast),
	}
	for _, m := range state.Members() {
		in.TennisGroups[m.Name] = m.TennisGroup
		in.FussGroups[m.Name] = m.FussGroup
	}

	if err := s.exporter.Export(w, in); err != nil {
		s.logger.ErrorContext(ctx, "attendance export failed", "error", err)
		return fmt.Errorf("export attendance: %w", err)
	}
	s.logger.InfoContext(ctx, "attendance exported", "players", len(in.Players), "dates", len(in.Dates))
	return nil
}
