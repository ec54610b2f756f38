package core

import (
	"line-follower/internal/messaging"
	"line-follower/internal/protocol"
	"line-follower/internal/types"
)

func (n *Navigator) callbacks() messaging.Callbacks {
	return messaging.Callbacks{
		TaskCallback: n.handleTaskRequest,
		InitCallback: n.handleInitRequest,
		StopCallback: n.handleStopRequest,
	}
}

// handleTaskRequest replaces the path queue. Called from the Redis listener
// goroutine; the loop picks the new sequence up at the next intersection.
func (n *Navigator) handleTaskRequest(cmd protocol.Command) error {
	gen := n.queue.Replace(cmd.Maneuvers, cmd.PathID)
	n.logger.Infof("Path %d loaded (generation %d): %v", cmd.PathID, gen, types.ManeuverNames(cmd.Maneuvers))
	if n.State() == types.StateHalted {
		n.logger.Warnf("Navigator is halted, path %d will not run", cmd.PathID)
	}
	return nil
}

// handleInitRequest answers with the default path selection.
func (n *Navigator) handleInitRequest() error {
	n.logger.Infof("Init requested, default path %d", n.defaultPathID)
	n.publishAck(protocol.TypeAckInit, n.defaultPathID)
	return nil
}

// handleStopRequest ends the run at the next intersection.
func (n *Navigator) handleStopRequest(cmd protocol.Command) error {
	pathID := n.queue.CurrentPathID()
	n.queue.Replace(cmd.Maneuvers, pathID)
	n.logger.Infof("Stop requested, path %d ends at next intersection", pathID)
	return nil
}
