package memory

import (
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
)

// SeedSchedule is the weekly timetable the club starts the season with.
// Slots are kept in the "HH:MM - HH:MM" text form other clients read.
func SeedSchedule() map[string]map[string]map[string]string {
	return map[string]map[string]map[string]string{
		"tennis": {
			"1": {"esmaspäev": "16:00 - 17:30", "kolmapäev": "16:00 - 17:30"},
			"2": {"teisipäev": "16:00 - 17:30", "neljapäev": "16:00 - 17:30"},
		},
		"fuss": {
			"A": {"esmaspäev": "17:30 - 18:30", "reede": "15:00 - 16:00"},
			"B": {"teisipäev": "17:30 - 18:30", "reede": "16:00 - 17:00"},
		},
	}
}

// SeedDocuments returns the root documents an empty store is bootstrapped with.
func SeedDocuments() map[string]any {
	return map[string]any{
		document.RootSchedule: SeedSchedule(),
	}
}
