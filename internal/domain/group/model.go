package group

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var ErrInvalidTag = errors.New("invalid group tag")

// Kind selects one of the two independent activities.
type Kind string

const (
	KindTennis Kind = "tennis"
	KindFuss   Kind = "fuss"
)

// Tag identifies the weekly slot a player follows within an activity.
type Tag string

var allowed = map[Kind][]Tag{
	KindTennis: {"1", "2"},
	KindFuss:   {"A", "B"},
}

func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindTennis, KindFuss:
		return Kind(raw), nil
	default:
		return "", fmt.Errorf("unknown activity %q", raw)
	}
}

// Default is the tag an unassigned player gets.
func (k Kind) Default() Tag {
	if k == KindFuss {
		return "A"
	}
	return "1"
}

func (k Kind) Allowed() []Tag {
	return append([]Tag(nil), allowed[k]...)
}

func (k Kind) Validate(tag Tag) error {
	for _, candidate := range allowed[k] {
		if candidate == tag {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a %s group", ErrInvalidTag, tag, k)
}

// Resolve returns the stored tag for player, or the kind's default.
func (k Kind) Resolve(assignments map[string]Tag, player string) Tag {
	if tag, ok := assignments[player]; ok && tag != "" {
		return tag
	}
	return k.Default()
}

// SortTags orders tennis tags numerically and fuss tags lexicographically.
func (k Kind) SortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool {
		if k == KindTennis {
			a, errA := strconv.Atoi(string(tags[i]))
			b, errB := strconv.Atoi(string(tags[j]))
			if errA == nil && errB == nil {
				return a < b
			}
			if (errA == nil) != (errB == nil) {
				return errA == nil
			}
		}
		return tags[i] < tags[j]
	})
}

// MissingDefaults lists players lacking a tag, mapped to the default.
func (k Kind) MissingDefaults(assignments map[string]Tag, players []string) map[string]Tag {
	out := make(map[string]Tag)
	for _, name := range players {
		if tag, ok := assignments[name]; ok && tag != "" {
			continue
		}
		out[name] = k.Default()
	}
	return out
}
