package fsm

import "github.com/librescoot/librefsm"

// Actions defines the interface for navigation state machine actions.
// Navigator implements this interface to handle state entry/exit.
type Actions interface {
	// State entry actions
	EnterAtIntersection(c *librefsm.Context) error
	EnterBlocked(c *librefsm.Context) error
	EnterHalted(c *librefsm.Context) error

	// State exit actions
	ExitBlocked(c *librefsm.Context) error
}
