package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMark   = errors.New("invalid attendance mark")
	ErrInvalidEffort = errors.New("effort must be between 1 and 5")
)

// Mark is a player's answer for one session. A missing mark reads as No.
type Mark string

const (
	Yes Mark = "Jah"
	No  Mark = "Ei"
)

func ParseMark(raw string) (Mark, error) {
	switch Mark(raw) {
	case Yes, No:
		return Mark(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMark, raw)
	}
}

func (m Mark) Attending() bool {
	return m == Yes
}

// Lookup reads a day record, treating absence as No.
func Lookup(day map[string]Mark, player string) Mark {
	if mark, ok := day[player]; ok && mark == Yes {
		return Yes
	}
	return No
}

// Toggle flips a mark.
func (m Mark) Toggle() Mark {
	if m == Yes {
		return No
	}
	return Yes
}

const (
	MinEffort = 1
	MaxEffort = 5
)

// ValidateEffort accepts nil (unset) or a rating in 1..5.
func ValidateEffort(value *int) error {
	if value == nil {
		return nil
	}
	if *value < MinEffort || *value > MaxEffort {
		return fmt.Errorf("%w: got %d", ErrInvalidEffort, *value)
	}
	return nil
}
