package core

import (
	"line-follower/internal/messaging"
	"line-follower/internal/motion"
	"line-follower/internal/protocol"
	"line-follower/internal/sensing"
	"line-follower/internal/types"
)

// MessagingClient defines the interface for Redis messaging operations needed by Navigator
type MessagingClient interface {
	SetCallbacks(callbacks messaging.Callbacks)
	Connect() error
	StartListening() error
	Close() error

	// Acknowledgments
	PublishAck(ack protocol.Ack) error

	// State and progress
	PublishNavigationState(state types.NavigationState) error
	PublishProgress(pathID, index int, m types.Maneuver) error
}

// HardwareIO defines the interface for hardware I/O operations needed by Navigator
type HardwareIO interface {
	Initialize() error
	Cleanup()

	sensing.LineReader
	sensing.Indicator
	motion.Actuator
}
