package main

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"line-follower/internal/catalog"
	"line-follower/internal/logger"
	"line-follower/internal/messaging"
	"line-follower/internal/protocol"
	"line-follower/internal/types"
)

func newTestConsole(t *testing.T) (*console, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	port, err := strconv.Atoi(m.Port())
	require.NoError(t, err)

	client := messaging.NewRedisClient(m.Host(), port, messaging.DefaultChannels(), logger.NewLogger(nil, logger.LogLevelNone))
	require.NoError(t, client.Connect())
	t.Cleanup(func() { client.Close() })

	return &console{client: client, paths: catalog.Default(), queue: true}, m
}

func TestTaskRejectsInvalidPathBeforeSending(t *testing.T) {
	c, m := newTestConsole(t)

	err := c.task(7)
	assert.ErrorIs(t, err, catalog.ErrInvalidPathID)
	assert.False(t, m.Exists("line-follower:commands:queue"))
}

func TestTaskSendsCatalogueSequence(t *testing.T) {
	c, m := newTestConsole(t)

	require.NoError(t, c.task(2))

	queued, err := m.List("line-follower:commands:queue")
	require.NoError(t, err)
	require.Len(t, queued, 1)

	cmd, err := protocol.Decode([]byte(queued[0]))
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeTask, cmd.Type)
	assert.Equal(t, 2, cmd.PathID)
	assert.Equal(t, []types.Maneuver{types.Straight, types.Left, types.End}, cmd.Maneuvers)
}

func TestStartDispatchesAcknowledgedPath(t *testing.T) {
	c, m := newTestConsole(t)
	c.queue = false

	vehicle := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer vehicle.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := vehicle.Subscribe(ctx, "line-follower:commands")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	received := make(chan protocol.Command, 2)
	go func() {
		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			cmd, err := protocol.Decode([]byte(msg.Payload))
			if err != nil {
				continue
			}
			received <- cmd
			if cmd.Type == protocol.TypeInit {
				ack, _ := protocol.NewAck(protocol.TypeAckInit, 1, "run", time.Now()).Encode()
				vehicle.Publish(ctx, "line-follower:acks", ack)
			}
		}
	}()

	require.NoError(t, c.start(ctx, time.Second))

	first := <-received
	assert.Equal(t, protocol.TypeInit, first.Type)

	select {
	case task := <-received:
		assert.Equal(t, protocol.TypeTask, task.Type)
		assert.Equal(t, 1, task.PathID)
		assert.Len(t, task.Maneuvers, 6)
	case <-ctx.Done():
		t.Fatal("task was not dispatched after ack_init")
	}
}

func TestStartTimesOutWithoutVehicle(t *testing.T) {
	c, _ := newTestConsole(t)

	err := c.start(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatusReadsPublishedState(t *testing.T) {
	c, m := newTestConsole(t)

	require.NoError(t, c.status())

	m.HSet("line-follower", "state", "halted")
	state, err := c.client.GetNavigationState()
	require.NoError(t, err)
	assert.Equal(t, types.StateHalted, state)
	require.NoError(t, c.status())
}
