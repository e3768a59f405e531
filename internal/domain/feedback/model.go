package feedback

import (
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("feedback value out of range")

// PlayerFeedback is what a player reports after a session.
type PlayerFeedback struct {
	Intensity int `json:"intensity"`
	Support   int `json:"support"`
	Clarity   int `json:"clarity"`
}

func (f PlayerFeedback) Validate() error {
	if f.Intensity < 0 || f.Intensity > 10 {
		return fmt.Errorf("%w: intensity %d not in 0..10", ErrOutOfRange, f.Intensity)
	}
	if f.Support < 1 || f.Support > 5 {
		return fmt.Errorf("%w: support %d not in 1..5", ErrOutOfRange, f.Support)
	}
	if f.Clarity < 1 || f.Clarity > 5 {
		return fmt.Errorf("%w: clarity %d not in 1..5", ErrOutOfRange, f.Clarity)
	}
	return nil
}

// CoachFeedback is the coach's review of one player for one session.
// Metrics are optional; a missing metric counts as zero in averages.
type CoachFeedback struct {
	CoachFeedback    *float64 `json:"coachFeedback,omitempty"`
	Effort           *float64 `json:"effort,omitempty"`
	MissedCoach      *float64 `json:"missedCoach,omitempty"`
	ObjectiveClarity *float64 `json:"objectiveClarity,omitempty"`
	Comment          string   `json:"comment,omitempty"`
}

// Metric names used by the statistics view.
const (
	MetricCoachFeedback    = "coachFeedback"
	MetricEffort           = "effort"
	MetricMissedCoach      = "missedCoach"
	MetricObjectiveClarity = "objectiveClarity"
)

// Value returns the metric or zero when it is unset.
func (f CoachFeedback) Value(metric string) float64 {
	var v *float64
	switch metric {
	case MetricCoachFeedback:
		v = f.CoachFeedback
	case MetricEffort:
		v = f.Effort
	case MetricMissedCoach:
		v = f.MissedCoach
	case MetricObjectiveClarity:
		v = f.ObjectiveClarity
	}
	if v == nil {
		return 0
	}
	return *v
}

func (f CoachFeedback) Validate() error {
	for name, v := range map[string]*float64{
		MetricCoachFeedback:    f.CoachFeedback,
		MetricEffort:           f.Effort,
		MetricMissedCoach:      f.MissedCoach,
		MetricObjectiveClarity: f.ObjectiveClarity,
	} {
		if v != nil && (*v < 0 || *v > 10) {
			return fmt.Errorf("%w: %s %.1f not in 0..10", ErrOutOfRange, name, *v)
		}
	}
	return nil
}

// Float is a helper for building optional metrics.
func Float(v float64) *float64 {
	return &v
}
