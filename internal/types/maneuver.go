package types

import (
	"fmt"
	"strings"
)

// Maneuver is one discrete motion executed at an intersection.
type Maneuver int

const (
	Straight Maneuver = iota
	Left
	Right
	TinyLeft
	TinyRight
	End

	// ManeuverCount sizes per-maneuver tables.
	ManeuverCount = int(End) + 1
)

var maneuverNames = [ManeuverCount]string{
	Straight:  "straight",
	Left:      "left",
	Right:     "right",
	TinyLeft:  "tiny_left",
	TinyRight: "tiny_right",
	End:       "end",
}

func (m Maneuver) String() string {
	if !m.Valid() {
		return fmt.Sprintf("maneuver(%d)", int(m))
	}
	return maneuverNames[m]
}

func (m Maneuver) Valid() bool {
	return m >= Straight && m <= End
}

// ParseManeuver maps a wire name to a Maneuver.
func ParseManeuver(name string) (Maneuver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "straight":
		return Straight, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "tiny_left", "tinyleft":
		return TinyLeft, nil
	case "tiny_right", "tinyright":
		return TinyRight, nil
	case "end":
		return End, nil
	default:
		return 0, fmt.Errorf("unknown maneuver %q", name)
	}
}

// ParseManeuvers parses a whole sequence, failing on the first unknown name.
func ParseManeuvers(names []string) ([]Maneuver, error) {
	seq := make([]Maneuver, 0, len(names))
	for i, name := range names {
		m, err := ParseManeuver(name)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		seq = append(seq, m)
	}
	return seq, nil
}

// ManeuverNames is the inverse of ParseManeuvers.
func ManeuverNames(seq []Maneuver) []string {
	names := make([]string, len(seq))
	for i, m := range seq {
		names[i] = m.String()
	}
	return names
}
