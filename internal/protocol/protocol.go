// Package protocol defines the JSON messages exchanged with the operator
// console: task/init/stop commands in, acknowledgments out.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"line-follower/internal/types"
)

// Command types
const (
	TypeTask = "task"
	TypeInit = "init"
	TypeStop = "stop"

	TypeAckInit = "ack_init"
	TypeAckTask = "ack_task"
	TypeAckStop = "ack_stop"
)

// ErrMalformed marks payloads that are dropped without acknowledgment.
var ErrMalformed = errors.New("malformed command")

type wireCommand struct {
	CommandType string   `json:"command-type"`
	Tasks       []string `json:"tasks,omitempty"`
	PathID      *int     `json:"path-id,omitempty"`
}

// Command is a decoded inbound message.
type Command struct {
	Type      string
	Maneuvers []types.Maneuver
	PathID    int
}

// Decode validates an inbound payload. Every failure wraps ErrMalformed.
func Decode(payload []byte) (Command, error) {
	var msg wireCommand
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch msg.CommandType {
	case TypeInit:
		return Command{Type: TypeInit}, nil

	case TypeTask:
		if msg.PathID == nil {
			return Command{}, fmt.Errorf("%w: task without path-id", ErrMalformed)
		}
		if len(msg.Tasks) == 0 {
			return Command{}, fmt.Errorf("%w: task without maneuvers", ErrMalformed)
		}
		seq, err := types.ParseManeuvers(msg.Tasks)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Command{Type: TypeTask, Maneuvers: seq, PathID: *msg.PathID}, nil

	case TypeStop:
		if _, err := types.ParseManeuvers(msg.Tasks); err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Command{Type: TypeStop, Maneuvers: []types.Maneuver{types.End}}, nil

	case "":
		return Command{}, fmt.Errorf("%w: missing command-type", ErrMalformed)
	default:
		return Command{}, fmt.Errorf("%w: unknown command-type %q", ErrMalformed, msg.CommandType)
	}
}

// EncodeTask builds a task command for the given path.
func EncodeTask(seq []types.Maneuver, pathID int) ([]byte, error) {
	return json.Marshal(wireCommand{
		CommandType: TypeTask,
		Tasks:       types.ManeuverNames(seq),
		PathID:      &pathID,
	})
}

func EncodeInit() ([]byte, error) {
	return json.Marshal(wireCommand{CommandType: TypeInit})
}

func EncodeStop() ([]byte, error) {
	return json.Marshal(wireCommand{
		CommandType: TypeStop,
		Tasks:       []string{types.End.String()},
	})
}

// Ack is an outbound acknowledgment.
type Ack struct {
	Type      string `json:"command-type"`
	PathID    int    `json:"path-id"`
	RunID     string `json:"run-id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NewAck stamps an acknowledgment with the current time.
func NewAck(kind string, pathID int, runID string, now time.Time) Ack {
	return Ack{
		Type:      kind,
		PathID:    pathID,
		RunID:     runID,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

func (a Ack) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// DecodeAck parses an acknowledgment on the console side.
func DecodeAck(payload []byte) (Ack, error) {
	var a Ack
	if err := json.Unmarshal(payload, &a); err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch a.Type {
	case TypeAckInit, TypeAckTask, TypeAckStop:
		return a, nil
	default:
		return Ack{}, fmt.Errorf("%w: unknown acknowledgment %q", ErrMalformed, a.Type)
	}
}
