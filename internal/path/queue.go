// Package path holds the replaceable maneuver sequence the navigator consumes.
package path

import (
	"sync"

	"line-follower/internal/types"
)

// Step is one maneuver handed to the navigator together with where it came
// from.
type Step struct {
	Maneuver   types.Maneuver
	PathID     int
	Generation uint64
	Index      int
}

// plan is never mutated after publication except for its cursor, which only
// moves under Queue.mu.
type plan struct {
	maneuvers  []types.Maneuver
	pathID     int
	generation uint64
	cursor     int
}

// Queue is written by the command receiver and read by the navigation loop.
// Replace swaps sequence, path id and cursor as one unit.
type Queue struct {
	mu      sync.Mutex
	current *plan
}

// DefaultSequence is loaded at startup until a task arrives.
func DefaultSequence() []types.Maneuver {
	return []types.Maneuver{types.End}
}

func NewQueue(seq []types.Maneuver, pathID int) *Queue {
	return &Queue{current: newPlan(seq, pathID, 0)}
}

func newPlan(seq []types.Maneuver, pathID int, generation uint64) *plan {
	maneuvers := make([]types.Maneuver, len(seq))
	copy(maneuvers, seq)
	return &plan{
		maneuvers:  maneuvers,
		pathID:     pathID,
		generation: generation,
	}
}

// Replace installs a new sequence with its cursor at 0 and returns the new
// generation. A maneuver already handed out by Next is unaffected.
func (q *Queue) Replace(seq []types.Maneuver, pathID int) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = newPlan(seq, pathID, q.current.generation+1)
	return q.current.generation
}

// Next returns the maneuver at the cursor and advances it. It returns false
// once the cursor has reached the end of the sequence.
func (q *Queue) Next() (Step, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p := q.current
	if p.cursor >= len(p.maneuvers) {
		return Step{}, false
	}
	step := Step{
		Maneuver:   p.maneuvers[p.cursor],
		PathID:     p.pathID,
		Generation: p.generation,
		Index:      p.cursor,
	}
	p.cursor++
	return step, true
}

func (q *Queue) CurrentPathID() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current.pathID
}

// Snapshot is a copy of the queue for status reporting.
type Snapshot struct {
	Maneuvers  []types.Maneuver
	PathID     int
	Generation uint64
	Cursor     int
}

func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	p := q.current
	maneuvers := make([]types.Maneuver, len(p.maneuvers))
	copy(maneuvers, p.maneuvers)
	return Snapshot{
		Maneuvers:  maneuvers,
		PathID:     p.pathID,
		Generation: p.generation,
		Cursor:     p.cursor,
	}
}
