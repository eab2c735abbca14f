package game

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawparty-backend/internal/config"
)

// fakeSession records every frame the room sends.
type fakeSession struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (s *fakeSession) Send(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, data)
	return true
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) messages() []ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ServerMessage, 0, len(s.frames))
	for _, frame := range s.frames {
		var msg ServerMessage
		if err := json.Unmarshal(frame, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

func (s *fakeSession) countType(msgType string) int {
	n := 0
	for _, msg := range s.messages() {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}

func (s *fakeSession) hasType(msgType string) bool {
	return s.countType(msgType) > 0
}

// fakeSubmitter records round submissions and signals each one.
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []submission
	arrived chan struct{}
}

type submission struct {
	roomID string
	raster []byte
	meta   RoundMeta
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{arrived: make(chan struct{}, 8)}
}

func (f *fakeSubmitter) Submit(roomID string, raster []byte, meta RoundMeta) {
	f.mu.Lock()
	f.calls = append(f.calls, submission{roomID: roomID, raster: raster, meta: meta})
	f.mu.Unlock()
	f.arrived <- struct{}{}
}

func (f *fakeSubmitter) submissions() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]submission, len(f.calls))
	copy(out, f.calls)
	return out
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MaxPlayers:      4,
		MinForceStart:   2,
		TopicDelayTicks: 1,
		CountdownTicks:  1,
		RoundTicks:      2,
		TickInterval:    5 * time.Millisecond,
	}
}

func testManager(submitter Submitter) *Manager {
	return NewManager(testGameConfig(), config.CanvasConfig{Width: 80, Height: 60}, submitter)
}

func TestRoom_FullRoundLifecycle(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("lifecycle")

	alice := &fakeSession{}
	bob := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "alice", DisplayName: "Alice"}, alice))
	require.NoError(t, room.Join(Player{ID: "bob", DisplayName: "Bob"}, bob))

	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "M 10 10 L 40 40", Width: 3}})
	room.Deliver("alice", StateChangeMessage{Data: StateChangeData{ForceStart: true}})

	select {
	case <-submitter.arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("round never reached the pipeline")
	}

	subs := submitter.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "lifecycle", subs[0].roomID)
	assert.NotEmpty(t, subs[0].raster)
	assert.NotEmpty(t, subs[0].meta.Topic)
	assert.Equal(t, 2, subs[0].meta.PlayerCount)

	// both players walked through every phase and got the result pointer
	assert.Eventually(t, func() bool {
		return alice.hasType(TypeGameEnded) && bob.hasType(TypeGameEnded)
	}, time.Second, 5*time.Millisecond)

	seen := map[string]bool{}
	for _, msg := range alice.messages() {
		if msg.Type == TypeGameStateUpdate {
			var data GameStateData
			raw, _ := json.Marshal(msg.Data)
			require.NoError(t, json.Unmarshal(raw, &data))
			seen[data.State] = true
		}
	}
	for _, phase := range []string{"topicSelection", "countdown", "playing", "ended"} {
		assert.True(t, seen[phase], "missing phase broadcast: %s", phase)
	}

	for _, msg := range bob.messages() {
		if msg.Type == TypeGameEnded {
			var data GameEndedData
			raw, _ := json.Marshal(msg.Data)
			require.NoError(t, json.Unmarshal(raw, &data))
			assert.Equal(t, "/api/results/lifecycle", data.ResultRef)
		}
	}
}

func TestRoom_AutoStartAtCapacity(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("capacity")

	sessions := make([]*fakeSession, 4)
	for i, id := range []string{"p1", "p2", "p3", "p4"} {
		sessions[i] = &fakeSession{}
		require.NoError(t, room.Join(Player{ID: id}, sessions[i]))
	}

	// the fourth join starts the round without any forceStart
	select {
	case <-submitter.arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("full room never auto-started")
	}
	assert.Equal(t, 4, submitter.submissions()[0].meta.PlayerCount)
}

func TestRoom_JoinRejections(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("rejections")

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		require.NoError(t, room.Join(Player{ID: id}, &fakeSession{}))
	}

	err := room.Join(Player{ID: "p5"}, &fakeSession{})
	// the room is either still full or has already ended its round
	assert.Error(t, err)
	if err != ErrRoomFull {
		assert.Equal(t, ErrRoomClosed, err)
	}
}

func TestRoom_DuplicateForceStartRunsOneRound(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("dup-start")

	require.NoError(t, room.Join(Player{ID: "p1"}, &fakeSession{}))
	require.NoError(t, room.Join(Player{ID: "p2"}, &fakeSession{}))

	// duplicate triggers must not start a second set of phase timers
	room.Deliver("p1", StateChangeMessage{Data: StateChangeData{ForceStart: true}})
	room.Deliver("p2", StateChangeMessage{Data: StateChangeData{ForceStart: true}})

	select {
	case <-submitter.arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("round never finished")
	}

	select {
	case <-submitter.arrived:
		t.Fatal("round was submitted more than once")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Len(t, submitter.submissions(), 1)
}

func TestRoom_ForceStartNeedsQuorum(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("quorum")

	solo := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "solo"}, solo))
	room.Deliver("solo", StateChangeMessage{Data: StateChangeData{ForceStart: true}})

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, submitter.submissions())
	assert.Zero(t, solo.countType(TypeGameEnded))
}

func TestRoom_StrokeBroadcastAndValidation(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("strokes")

	alice := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "alice"}, alice))

	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "M 0 0 L 5 5", Width: 2}})
	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "not a path", Width: 2}})
	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "M 0 0 L 5 5", Width: 0}})

	assert.Eventually(t, func() bool {
		return alice.countType(TypeStrokeAdded) == 1
	}, time.Second, 5*time.Millisecond)

	room.Deliver("alice", StrokeClearMessage{})
	assert.Eventually(t, func() bool {
		return alice.hasType(TypeStrokeCleared)
	}, time.Second, 5*time.Millisecond)
}

func TestRoom_LateJoinerGetsBacklog(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("backlog")

	alice := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "alice"}, alice))
	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "M 0 0 L 5 5", Width: 2}})
	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "M 9 9 L 1 1", Width: 2}})

	assert.Eventually(t, func() bool {
		return alice.countType(TypeStrokeAdded) == 2
	}, time.Second, 5*time.Millisecond)

	bob := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "bob"}, bob))

	// snapshot replay: one state frame plus the two existing strokes
	assert.Eventually(t, func() bool {
		return bob.countType(TypeStrokeAdded) == 2 && bob.hasType(TypeGameStateUpdate)
	}, time.Second, 5*time.Millisecond)
}

func TestRoom_ReconnectReplacesSession(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("reconnect")

	old := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "alice"}, old))

	fresh := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "alice"}, fresh))

	assert.True(t, old.isClosed())

	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "M 0 0 L 5 5", Width: 2}})
	assert.Eventually(t, func() bool {
		return fresh.countType(TypeStrokeAdded) >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestRoom_StaleDetachAfterReconnectKeepsPlayer(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("stale-leave")

	old := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "alice"}, old))

	fresh := &fakeSession{}
	require.NoError(t, room.Join(Player{ID: "alice"}, fresh))
	assert.True(t, old.isClosed())

	// the replaced connection's gateway close fires after the reconnect
	room.Detach("alice", old)

	// the live player survives and the room is not destroyed
	room.Deliver("alice", StrokeAppendMessage{Stroke: StrokePayload{Path: "M 0 0 L 5 5", Width: 2}})
	assert.Eventually(t, func() bool {
		return fresh.countType(TypeStrokeAdded) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.Count())
	assert.False(t, fresh.isClosed())

	// detaching the live session still removes the player
	room.Detach("alice", fresh)
	assert.Eventually(t, func() bool {
		return m.Count() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRoom_EmptyRosterDestroysRoom(t *testing.T) {
	submitter := newFakeSubmitter()
	m := testManager(submitter)
	room := m.GetOrCreate("empties")

	require.NoError(t, room.Join(Player{ID: "alice"}, &fakeSession{}))
	require.NoError(t, room.Join(Player{ID: "bob"}, &fakeSession{}))
	require.Equal(t, 1, m.Count())

	room.Leave("alice")
	room.Leave("bob")
	room.Leave("bob") // idempotent

	assert.Eventually(t, func() bool {
		return m.Count() == 0
	}, time.Second, 5*time.Millisecond)
}
