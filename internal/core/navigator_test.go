package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"line-follower/internal/clock"
	"line-follower/internal/logger"
	"line-follower/internal/messaging"
	"line-follower/internal/motion"
	"line-follower/internal/protocol"
	"line-follower/internal/sensing"
	"line-follower/internal/types"
)

// Mock MessagingClient
type mockMessagingClient struct {
	mu        sync.Mutex
	callbacks messaging.Callbacks

	connected bool
	listening bool
	closed    bool

	acks     []protocol.Ack
	states   []types.NavigationState
	progress []progressCall
}

type progressCall struct {
	PathID   int
	Index    int
	Maneuver types.Maneuver
}

func newMockMessagingClient() *mockMessagingClient {
	return &mockMessagingClient{}
}

func (m *mockMessagingClient) SetCallbacks(callbacks messaging.Callbacks) { m.callbacks = callbacks }
func (m *mockMessagingClient) Connect() error                             { m.connected = true; return nil }
func (m *mockMessagingClient) StartListening() error                      { m.listening = true; return nil }
func (m *mockMessagingClient) Close() error                               { m.closed = true; return nil }

func (m *mockMessagingClient) PublishAck(ack protocol.Ack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, ack)
	return nil
}

func (m *mockMessagingClient) PublishNavigationState(state types.NavigationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
	return nil
}

func (m *mockMessagingClient) PublishProgress(pathID, index int, mv types.Maneuver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = append(m.progress, progressCall{pathID, index, mv})
	return nil
}

func (m *mockMessagingClient) ackTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.acks {
		out = append(out, a.Type)
	}
	return out
}

func (m *mockMessagingClient) ackList() []protocol.Ack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]protocol.Ack(nil), m.acks...)
}

func (m *mockMessagingClient) stateList() []types.NavigationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.NavigationState(nil), m.states...)
}

func (m *mockMessagingClient) maneuvers() []types.Maneuver {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Maneuver
	for _, p := range m.progress {
		out = append(out, p.Maneuver)
	}
	return out
}

// Mock HardwareIO
type mockHardwareIO struct {
	mu          sync.Mutex
	lines       [sensing.LineSensorCount]bool
	readErr     error
	indicator   bool
	duties      []motion.Duty
	onDuty      func(motion.Duty)
	initialized bool
	cleanedUp   bool
}

func newMockHardwareIO() *mockHardwareIO {
	return &mockHardwareIO{}
}

func (m *mockHardwareIO) Initialize() error { m.initialized = true; return nil }
func (m *mockHardwareIO) Cleanup()          { m.cleanedUp = true }

func (m *mockHardwareIO) ReadLineSensors() ([sensing.LineSensorCount]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines, m.readErr
}

func (m *mockHardwareIO) SetIndicator(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indicator = on
	return nil
}

func (m *mockHardwareIO) SetDuty(d motion.Duty) error {
	m.mu.Lock()
	m.duties = append(m.duties, d)
	hook := m.onDuty
	m.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return nil
}

func (m *mockHardwareIO) setLines(lo, li, mid, ri, ro bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = [sensing.LineSensorCount]bool{lo, li, mid, ri, ro}
}

func (m *mockHardwareIO) lastDuty() motion.Duty {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.duties) == 0 {
		return motion.Duty{}
	}
	return m.duties[len(m.duties)-1]
}

func (m *mockHardwareIO) dutyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.duties)
}

func (m *mockHardwareIO) dutiesSince(i int) []motion.Duty {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]motion.Duty(nil), m.duties[i:]...)
}

type mockRange struct {
	mu  sync.Mutex
	mm  int
	err error
}

func (r *mockRange) ReadDistance() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mm, r.err
}

func (r *mockRange) set(mm int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mm = mm
}

type testRig struct {
	nav   *Navigator
	io    *mockHardwareIO
	rng   *mockRange
	redis *mockMessagingClient
	clock *clock.Fake
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	l := logger.NewLogger(nil, logger.LogLevelError)
	rig := &testRig{
		io:    newMockHardwareIO(),
		rng:   &mockRange{mm: sensing.NoObstacleMM},
		redis: newMockMessagingClient(),
		clock: clock.NewFake(time.Unix(1000, 0)),
	}
	rig.nav = NewNavigator(rig.io, rig.rng, rig.redis, rig.clock, Options{
		BaseInterval:        800 * time.Millisecond,
		ObstacleThresholdMM: 70,
		DefaultPathID:       1,
	}, l)
	return rig
}

// newStartedRig returns a rig with the state machine running.
func newStartedRig(t *testing.T) *testRig {
	t.Helper()
	rig := newTestRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := rig.nav.initFSM(ctx); err != nil {
		t.Fatalf("Failed to initialize FSM: %v", err)
	}
	return rig
}

func (r *testRig) tick(t *testing.T) {
	t.Helper()
	if err := r.nav.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
}

// crossIntersection lets the re-arm window lapse, shows the left outer sensor
// for one tick and returns to the line.
func (r *testRig) crossIntersection(t *testing.T) {
	t.Helper()
	r.clock.Advance(2 * time.Second)
	r.io.setLines(true, false, true, false, false)
	r.tick(t)
	r.io.setLines(false, false, true, false, false)
}

func (r *testRig) loadTask(t *testing.T, pathID int, seq ...types.Maneuver) {
	t.Helper()
	if err := r.nav.handleTaskRequest(protocol.Command{Type: protocol.TypeTask, Maneuvers: seq, PathID: pathID}); err != nil {
		t.Fatalf("handleTaskRequest failed: %v", err)
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

var rightDuty = motion.DefaultActions[types.Right].Duty

// ===== Construction and startup =====

func TestNewNavigator(t *testing.T) {
	rig := newTestRig(t)

	if rig.nav.State() != types.StateTracking {
		t.Errorf("Expected initial state tracking, got %v", rig.nav.State())
	}
	if rig.nav.runID == "" {
		t.Error("Expected a run id")
	}
	snap := rig.nav.queue.Snapshot()
	if diff := cmp.Diff([]types.Maneuver{types.End}, snap.Maneuvers); diff != "" {
		t.Errorf("default queue mismatch (-want +got):\n%s", diff)
	}
	if snap.PathID != 1 {
		t.Errorf("Expected default path 1, got %d", snap.PathID)
	}
}

func TestStart(t *testing.T) {
	rig := newTestRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rig.nav.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !rig.redis.connected || !rig.redis.listening {
		t.Error("Expected Redis to be connected and listening")
	}
	if !rig.io.initialized {
		t.Error("Expected hardware to be initialized")
	}
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected motors stopped at start, got %+v", rig.io.lastDuty())
	}
	if rig.redis.callbacks.TaskCallback == nil {
		t.Error("Expected task callback to be registered")
	}
	if states := rig.redis.stateList(); len(states) == 0 || states[0] != types.StateTracking {
		t.Errorf("Expected tracking to be published first, got %v", states)
	}

	rig.nav.Shutdown()
	if !rig.io.cleanedUp || !rig.redis.closed {
		t.Error("Expected Shutdown to release hardware and Redis")
	}
}

// ===== Tracking =====

func TestTrackingFollowsBias(t *testing.T) {
	rig := newStartedRig(t)

	rig.io.setLines(false, false, true, false, false)
	rig.tick(t)
	if rig.io.lastDuty() != motion.CenteredDuty {
		t.Errorf("Expected centered duty, got %+v", rig.io.lastDuty())
	}

	rig.io.setLines(false, true, false, false, false)
	rig.tick(t)
	if rig.io.lastDuty() != motion.LeftBiasDuty {
		t.Errorf("Expected left bias duty, got %+v", rig.io.lastDuty())
	}
}

func TestSensorFaultKeepsLastBias(t *testing.T) {
	rig := newStartedRig(t)

	rig.io.setLines(false, false, false, true, false)
	rig.tick(t)
	if rig.io.lastDuty() != motion.RightBiasDuty {
		t.Fatalf("Expected right bias duty, got %+v", rig.io.lastDuty())
	}

	rig.io.mu.Lock()
	rig.io.readErr = errors.New("gpio read failed")
	rig.io.mu.Unlock()

	rig.tick(t)
	if rig.io.lastDuty() != motion.RightBiasDuty {
		t.Errorf("Expected last bias to be kept on fault, got %+v", rig.io.lastDuty())
	}
	if rig.nav.State() != types.StateTracking {
		t.Errorf("Sensor fault must not change state, got %v", rig.nav.State())
	}
}

// ===== Intersections =====

func TestIntersectionsExecuteManeuversInOrder(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 2, types.Left, types.Right, types.TinyRight, types.End)

	rig.crossIntersection(t)
	rig.crossIntersection(t)

	if diff := cmp.Diff([]types.Maneuver{types.Left, types.Right}, rig.redis.maneuvers()); diff != "" {
		t.Errorf("executed maneuvers mismatch (-want +got):\n%s", diff)
	}
	if rig.nav.State() != types.StateTracking {
		t.Errorf("Expected tracking after maneuvers, got %v", rig.nav.State())
	}
	if snap := rig.nav.queue.Snapshot(); snap.Cursor != 2 {
		t.Errorf("Expected cursor 2, got %d", snap.Cursor)
	}
	if diff := cmp.Diff([]string{protocol.TypeAckTask}, rig.redis.ackTypes()); diff != "" {
		t.Errorf("acks mismatch (-want +got):\n%s", diff)
	}
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected motors stopped after maneuver, got %+v", rig.io.lastDuty())
	}
}

func TestHeldOuterSensorTriggersOnce(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 1, types.Right, types.Left, types.End)

	rig.clock.Advance(2 * time.Second)
	rig.io.setLines(false, false, true, false, true)
	rig.tick(t)

	// Still straddling the intersection for less than the re-arm window
	for i := 0; i < 15; i++ {
		rig.clock.Advance(50 * time.Millisecond)
		rig.tick(t)
	}
	if got := rig.redis.maneuvers(); len(got) != 1 {
		t.Fatalf("Expected a single trigger inside the window, got %v", got)
	}

	rig.clock.Advance(100 * time.Millisecond)
	rig.tick(t)
	if diff := cmp.Diff([]types.Maneuver{types.Right, types.Left}, rig.redis.maneuvers()); diff != "" {
		t.Errorf("executed maneuvers mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceDuringManeuverTakesEffectAtNextIntersection(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 1, types.Right, types.Straight, types.End)

	replaced := false
	rig.io.onDuty = func(d motion.Duty) {
		if d == rightDuty && !replaced {
			replaced = true
			rig.loadTask(t, 2, types.Left, types.End)
		}
	}

	start := rig.clock.Now().Add(2 * time.Second)
	rig.crossIntersection(t)
	if !replaced {
		t.Fatal("Expected the replacement to land mid-maneuver")
	}
	if elapsed := rig.clock.Now().Sub(start); elapsed < time.Second+800*time.Millisecond {
		t.Errorf("Right maneuver was cut short: %v", elapsed)
	}
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected Right to finish with a stop, got %+v", rig.io.lastDuty())
	}

	rig.crossIntersection(t)
	if diff := cmp.Diff([]types.Maneuver{types.Right, types.Left}, rig.redis.maneuvers()); diff != "" {
		t.Errorf("executed maneuvers mismatch (-want +got):\n%s", diff)
	}

	acks := rig.redis.ackList()
	if len(acks) != 2 || acks[0].PathID != 1 || acks[1].PathID != 2 {
		t.Errorf("Expected ack_task for path 1 then 2, got %+v", acks)
	}
}

func TestPathExhaustedHalts(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 3, types.Left)

	rig.crossIntersection(t)
	rig.crossIntersection(t)

	eventually(t, func() bool { return rig.nav.State() == types.StateHalted }, "Expected halted after exhausting the path")
	eventually(t, func() bool { return len(rig.redis.ackTypes()) == 2 }, "Expected ack_task and ack_stop")

	acks := rig.redis.ackList()
	if acks[1].Type != protocol.TypeAckStop || acks[1].PathID != 3 {
		t.Errorf("Expected ack_stop for path 3, got %+v", acks[1])
	}
}

// ===== Obstacle guard =====

func TestObstacleStopsInSameTick(t *testing.T) {
	rig := newStartedRig(t)

	rig.io.setLines(false, false, true, false, false)
	rig.tick(t)
	if rig.io.lastDuty() == motion.StopDuty {
		t.Fatal("Expected tracking duty before the obstacle")
	}

	rig.rng.set(70)
	rig.tick(t)
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected outputs zeroed in the blocking tick, got %+v", rig.io.lastDuty())
	}
	if rig.nav.State() != types.StateBlocked {
		t.Errorf("Expected blocked, got %v", rig.nav.State())
	}
	if !rig.io.indicator {
		t.Error("Expected obstacle indicator on")
	}

	// The queue is ignored while blocked
	rig.clock.Advance(2 * time.Second)
	rig.io.setLines(true, false, true, false, false)
	rig.tick(t)
	if got := rig.redis.maneuvers(); len(got) != 0 {
		t.Errorf("Expected no maneuver while blocked, got %v", got)
	}
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected outputs to stay zeroed while blocked, got %+v", rig.io.lastDuty())
	}

	rig.rng.set(71)
	rig.io.setLines(false, false, true, false, false)
	rig.tick(t)
	if rig.nav.State() != types.StateTracking {
		t.Errorf("Expected tracking once clear, got %v", rig.nav.State())
	}
	if rig.io.indicator {
		t.Error("Expected obstacle indicator off")
	}
	if rig.io.lastDuty() != motion.CenteredDuty {
		t.Errorf("Expected tracking to resume in the clearing tick, got %+v", rig.io.lastDuty())
	}
}

// A running maneuver is never interrupted, not even by an obstacle. The guard
// acts on the first tick after the maneuver returns, before any tracking duty.
func TestObstacleDuringManeuverDoesNotInterrupt(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 1, types.Right, types.End)

	rig.io.onDuty = func(d motion.Duty) {
		if d == rightDuty {
			rig.rng.set(20)
		}
	}

	start := rig.clock.Now().Add(2 * time.Second)
	rig.crossIntersection(t)

	if elapsed := rig.clock.Now().Sub(start); elapsed < time.Second+800*time.Millisecond {
		t.Errorf("Maneuver was interrupted after %v", elapsed)
	}
	if rig.nav.State() != types.StateTracking {
		t.Errorf("Expected tracking right after the maneuver, got %v", rig.nav.State())
	}

	mark := rig.io.dutyCount()
	rig.tick(t)
	if rig.nav.State() != types.StateBlocked {
		t.Errorf("Expected blocked on the next tick, got %v", rig.nav.State())
	}
	for _, d := range rig.io.dutiesSince(mark) {
		if d != motion.StopDuty {
			t.Errorf("Expected only stop duty after an obstacle, got %+v", d)
		}
	}
}

// ===== End and acknowledgments =====

func TestEndHaltsWithSingleAckStop(t *testing.T) {
	rig := newStartedRig(t)

	rig.crossIntersection(t)
	eventually(t, func() bool { return rig.nav.State() == types.StateHalted }, "Expected halted after end")

	for i := 0; i < 5; i++ {
		rig.clock.Advance(time.Second)
		rig.tick(t)
	}

	eventually(t, func() bool { return len(rig.redis.ackTypes()) > 0 }, "Expected ack_stop")
	if diff := cmp.Diff([]string{protocol.TypeAckStop}, rig.redis.ackTypes()); diff != "" {
		t.Errorf("acks mismatch (-want +got):\n%s", diff)
	}
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected outputs zeroed when halted, got %+v", rig.io.lastDuty())
	}
}

func TestTaskScenario(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 1, types.Right, types.Straight, types.End)

	rig.crossIntersection(t)
	rig.crossIntersection(t)
	if rig.nav.State() != types.StateTracking {
		t.Fatalf("Expected tracking before end, got %v", rig.nav.State())
	}
	rig.crossIntersection(t)

	eventually(t, func() bool { return len(rig.redis.ackTypes()) == 2 }, "Expected two acks")
	if diff := cmp.Diff([]types.Maneuver{types.Right, types.Straight, types.End}, rig.redis.maneuvers()); diff != "" {
		t.Errorf("executed maneuvers mismatch (-want +got):\n%s", diff)
	}
	acks := rig.redis.ackList()
	if acks[0].Type != protocol.TypeAckTask || acks[0].PathID != 1 {
		t.Errorf("Expected ack_task for path 1 first, got %+v", acks[0])
	}
	if acks[1].Type != protocol.TypeAckStop || acks[1].PathID != 1 {
		t.Errorf("Expected ack_stop for path 1 second, got %+v", acks[1])
	}
	if rig.nav.State() != types.StateHalted {
		t.Errorf("Expected halted, got %v", rig.nav.State())
	}
}

func TestMalformedPayloadIsIgnored(t *testing.T) {
	rig := newStartedRig(t)
	l := logger.NewLogger(nil, logger.LogLevelError)
	client := messaging.NewRedisClient("127.0.0.1", 0, messaging.DefaultChannels(), l)
	defer client.Close()
	client.SetCallbacks(rig.nav.callbacks())

	before := rig.nav.queue.Snapshot()
	client.HandlePayload("test", []byte("\x00\x01 definitely not json"))
	client.HandlePayload("test", []byte(`{"command-type":"task","tasks":["sideways"],"path-id":2}`))

	if diff := cmp.Diff(before, rig.nav.queue.Snapshot()); diff != "" {
		t.Errorf("queue changed (-before +after):\n%s", diff)
	}
	if acks := rig.redis.ackTypes(); len(acks) != 0 {
		t.Errorf("Expected no acknowledgment, got %v", acks)
	}
	if rig.nav.State() != types.StateTracking {
		t.Errorf("Expected state unchanged, got %v", rig.nav.State())
	}
}

func TestInitRequestAcksDefaultPath(t *testing.T) {
	rig := newStartedRig(t)

	if err := rig.nav.handleInitRequest(); err != nil {
		t.Fatalf("handleInitRequest failed: %v", err)
	}
	acks := rig.redis.ackList()
	if len(acks) != 1 {
		t.Fatalf("Expected one ack, got %+v", acks)
	}
	if acks[0].Type != protocol.TypeAckInit || acks[0].PathID != 1 || acks[0].RunID != rig.nav.runID {
		t.Errorf("Unexpected ack_init: %+v", acks[0])
	}
}

func TestStopRequestEndsAtNextIntersection(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 4, types.Right, types.Straight, types.End)

	if err := rig.nav.handleStopRequest(protocol.Command{Type: protocol.TypeStop, Maneuvers: []types.Maneuver{types.End}}); err != nil {
		t.Fatalf("handleStopRequest failed: %v", err)
	}
	snap := rig.nav.queue.Snapshot()
	if diff := cmp.Diff([]types.Maneuver{types.End}, snap.Maneuvers); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
	if snap.PathID != 4 {
		t.Errorf("Expected path id to be kept, got %d", snap.PathID)
	}

	rig.crossIntersection(t)
	eventually(t, func() bool { return len(rig.redis.ackTypes()) == 1 }, "Expected ack_stop")
	acks := rig.redis.ackList()
	if acks[0].Type != protocol.TypeAckStop || acks[0].PathID != 4 {
		t.Errorf("Expected only ack_stop for path 4, got %+v", acks)
	}
}

// ===== Run loop =====

func TestRunReturnsWhenHalted(t *testing.T) {
	rig := newStartedRig(t)
	rig.io.setLines(false, false, true, false, true)

	done := make(chan error, 1)
	go func() { done <- rig.nav.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after end")
	}
	if rig.nav.State() != types.StateHalted {
		t.Errorf("Expected halted, got %v", rig.nav.State())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	rig := newStartedRig(t)
	rig.io.setLines(false, false, true, false, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rig.nav.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected motors stopped on cancel, got %+v", rig.io.lastDuty())
	}
}

func TestRunStopsOnCancelMidManeuver(t *testing.T) {
	rig := newTestRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rig.nav.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rig.loadTask(t, 1, types.Right, types.End)
	rig.clock.Advance(2 * time.Second)
	rig.io.setLines(true, false, true, false, false)
	rig.io.onDuty = func(d motion.Duty) {
		if d == rightDuty {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() { done <- rig.nav.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel; state=%v", rig.nav.State())
	}
	if rig.nav.State() != types.StateTracking {
		t.Errorf("Expected the maneuver to complete, got %v", rig.nav.State())
	}
	if rig.io.lastDuty() != motion.StopDuty {
		t.Errorf("Expected motors stopped on cancel, got %+v", rig.io.lastDuty())
	}

	rig.nav.Shutdown()
	if !rig.io.cleanedUp || !rig.redis.closed {
		t.Error("Expected Shutdown to release hardware and Redis")
	}
}

func TestStraightSteersOnTriggerFrame(t *testing.T) {
	rig := newStartedRig(t)
	rig.loadTask(t, 1, types.Straight, types.End)

	rig.io.setLines(false, false, false, true, false)
	rig.tick(t)
	if rig.io.lastDuty() != motion.RightBiasDuty {
		t.Fatalf("Expected right bias duty, got %+v", rig.io.lastDuty())
	}

	mark := rig.io.dutyCount()
	rig.clock.Advance(2 * time.Second)
	rig.io.setLines(true, true, false, false, false)
	rig.tick(t)

	if diff := cmp.Diff([]types.Maneuver{types.Straight}, rig.redis.maneuvers()); diff != "" {
		t.Fatalf("executed maneuvers mismatch (-want +got):\n%s", diff)
	}
	want := []motion.Duty{motion.StopDuty, motion.LeftBiasDuty, motion.StopDuty}
	if diff := cmp.Diff(want, rig.io.dutiesSince(mark)); diff != "" {
		t.Errorf("straight duties mismatch (-want +got):\n%s", diff)
	}
}
