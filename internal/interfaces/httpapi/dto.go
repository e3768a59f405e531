package httpapi

import (
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/roster"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
)

// archivedPlayerDTO leaves the stored credentials out.
type archivedPlayerDTO struct {
	Name        string    `json:"name"`
	TennisGroup group.Tag `json:"tennisGroup"`
	FussGroup   group.Tag `json:"fussGroup"`
	ArchivedAt  time.Time `json:"archivedAt"`
}

func archivedToDTO(rec roster.ArchivedPlayer) archivedPlayerDTO {
	return archivedPlayerDTO{
		Name:        rec.Name,
		TennisGroup: rec.TennisGroup,
		FussGroup:   rec.FussGroup,
		ArchivedAt:  rec.ArchivedAt,
	}
}

// scheduleDTO is kind -> group -> weekday -> "HH:MM - HH:MM".
type scheduleDTO map[group.Kind]map[group.Tag]map[string]string

func scheduleToDTO(s schedule.Schedule) scheduleDTO {
	out := make(scheduleDTO, len(s))
	for kind, groups := range s {
		out[kind] = make(map[group.Tag]map[string]string, len(groups))
		for tag, days := range groups {
			out[kind][tag] = make(map[string]string, len(days))
			for day, r := range days {
				out[kind][tag][day] = r.String()
			}
		}
	}
	return out
}
