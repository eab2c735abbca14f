package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"drawparty-backend/internal/canvas"
	"drawparty-backend/internal/config"
	"drawparty-backend/internal/model"
)

// RoomPhase room state machine phase
type RoomPhase int

const (
	PhaseWaiting RoomPhase = iota
	PhaseTopicSelection
	PhaseCountdown
	PhasePlaying
	PhaseEnded
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseTopicSelection:
		return "topicSelection"
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Session is the outbound half of one player's connection. Send must not
// block; it reports false when the frame was dropped. The gateway implements
// it over a websocket; tests use fakes.
type Session interface {
	Send(data []byte) bool
	Close()
}

// Player roster entry
type Player struct {
	ID          string
	DisplayName string
	JoinedAt    time.Time
}

// RoundMeta accompanies a finished round's raster into the pipeline.
type RoundMeta struct {
	Topic       string
	PlayerCount int
}

// Submitter receives the composited raster when a round ends. Submission is
// fire-and-forget: the room never blocks on or retries pipeline work.
type Submitter interface {
	Submit(roomID string, raster []byte, meta RoundMeta)
}

// roomParent is the registry surface a room calls back into.
type roomParent interface {
	roomEmptied(roomID string)
	pickTopic() string
}

type client struct {
	player  Player
	session Session
}

// room events, processed one at a time by the mailbox loop

type roomEvent interface{ isRoomEvent() }

type evJoin struct {
	player  Player
	session Session
	reply   chan error
}

type evLeave struct {
	playerID string
	// session scopes the leave: nil removes unconditionally, non-nil only
	// removes while that session is still the one attached, so a stale
	// close from a replaced connection cannot evict a reconnected player
	session Session
}

type evMessage struct {
	playerID string
	msg      ClientMessage
}

type evTick struct {
	phase     RoomPhase
	remaining int
}

type evShutdown struct{}

func (evJoin) isRoomEvent()     {}
func (evLeave) isRoomEvent()    {}
func (evMessage) isRoomEvent()  {}
func (evTick) isRoomEvent()     {}
func (evShutdown) isRoomEvent() {}

// Room owns one game session: roster, phase, timers and the stroke
// document. Every external event goes through the mailbox and is handled by
// a single goroutine, so room state needs no locks and broadcast order is
// exactly mailbox order.
type Room struct {
	id        string
	cfg       config.GameConfig
	canvasCfg config.CanvasConfig

	phase    RoomPhase
	topic    string
	timeLeft int

	clients map[string]*client
	order   []string

	doc *StrokeDocument

	mailbox chan roomEvent
	ctx     context.Context
	cancel  context.CancelFunc

	timers map[RoomPhase]context.CancelFunc

	parent    roomParent
	submitter Submitter
}

func newRoom(id string, cfg config.GameConfig, canvasCfg config.CanvasConfig, parent roomParent, submitter Submitter) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		id:        id,
		cfg:       cfg,
		canvasCfg: canvasCfg,
		phase:     PhaseWaiting,
		clients:   make(map[string]*client),
		doc:       NewStrokeDocument(),
		mailbox:   make(chan roomEvent, 256),
		ctx:       ctx,
		cancel:    cancel,
		timers:    make(map[RoomPhase]context.CancelFunc),
		parent:    parent,
		submitter: submitter,
	}

	// document diffs fan out to every connection; mutations only happen in
	// the mailbox loop, so these callbacks run there too
	r.doc.Subscribe(func(ev DocEvent) {
		switch ev.Kind {
		case DocStrokeAppended:
			r.broadcast(encodeServerMessage(TypeStrokeAdded, r.id, StrokeAddedData{Stroke: *ev.Stroke}))
		case DocCleared:
			r.broadcast(encodeServerMessage(TypeStrokeCleared, r.id, nil))
		}
	})

	go r.run()
	return r
}

// ID returns the room id.
func (r *Room) ID() string {
	return r.id
}

// Join submits a join request and waits for the actor's verdict.
func (r *Room) Join(player Player, session Session) error {
	reply := make(chan error, 1)
	if !r.enqueue(evJoin{player: player, session: session, reply: reply}) {
		return ErrRoomClosed
	}
	select {
	case err := <-reply:
		return err
	case <-r.ctx.Done():
		return ErrRoomClosed
	}
}

// Leave removes a player. Safe to call more than once; removal is keyed by
// player id and the second call is a no-op.
func (r *Room) Leave(playerID string) {
	r.enqueue(evLeave{playerID: playerID})
}

// Detach removes a player only if session is still their attached session.
// A connection that was replaced by a reconnect detaches as a no-op.
func (r *Room) Detach(playerID string, session Session) {
	r.enqueue(evLeave{playerID: playerID, session: session})
}

// Deliver hands one decoded client message to the actor.
func (r *Room) Deliver(playerID string, msg ClientMessage) {
	r.enqueue(evMessage{playerID: playerID, msg: msg})
}

func (r *Room) enqueue(ev roomEvent) bool {
	select {
	case r.mailbox <- ev:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Room) run() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case ev := <-r.mailbox:
			r.handle(ev)
		}
	}
}

func (r *Room) handle(ev roomEvent) {
	switch ev := ev.(type) {
	case evJoin:
		ev.reply <- r.handleJoin(ev.player, ev.session)
	case evLeave:
		r.handleLeave(ev)
	case evMessage:
		r.handleMessage(ev.playerID, ev.msg)
	case evTick:
		r.handleTick(ev)
	case evShutdown:
		r.shutdown()
	}
}

func (r *Room) handleJoin(player Player, session Session) error {
	if r.phase == PhaseEnded {
		return ErrRoomClosed
	}
	if existing, ok := r.clients[player.ID]; ok {
		// same player reconnecting: the new connection wins
		log.Printf("[Room %s] Player %s reconnected, closing old connection", r.id, player.ID)
		existing.session.Close()
		existing.session = session
		r.sendSnapshot(session)
		return nil
	}
	if len(r.clients) >= r.cfg.MaxPlayers {
		return ErrRoomFull
	}

	r.clients[player.ID] = &client{player: player, session: session}
	r.order = append(r.order, player.ID)
	log.Printf("[Room %s] Player %s (%s) joined, total: %d", r.id, player.ID, player.DisplayName, len(r.clients))

	r.broadcastRoster()
	// late joiners recover the current phase and the stroke backlog
	r.sendSnapshot(session)

	if r.phase == PhaseWaiting && len(r.clients) >= r.cfg.MaxPlayers {
		r.startTopicSelection()
	}
	return nil
}

func (r *Room) handleLeave(ev evLeave) {
	c, ok := r.clients[ev.playerID]
	if !ok {
		return
	}
	if ev.session != nil && c.session != ev.session {
		log.Printf("[Room %s] Stale leave for %s ignored, session was replaced", r.id, ev.playerID)
		return
	}
	delete(r.clients, ev.playerID)
	for i, id := range r.order {
		if id == ev.playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Printf("[Room %s] Player %s left, remaining: %d", r.id, ev.playerID, len(r.clients))

	if len(r.clients) == 0 {
		r.destroy()
		return
	}
	r.broadcastRoster()
}

func (r *Room) handleMessage(playerID string, msg ClientMessage) {
	switch msg := msg.(type) {
	case JoinMessage:
		// the gateway already attributed this connection
		log.Printf("[Room %s] Duplicate playerJoin from %s dropped", r.id, playerID)

	case StateChangeMessage:
		if msg.Data.ForceStart {
			if r.phase == PhaseWaiting && len(r.clients) >= r.cfg.MinForceStart {
				r.startTopicSelection()
			} else {
				log.Printf("[Room %s] Force start ignored (phase=%s, players=%d)", r.id, r.phase, len(r.clients))
			}
		}

	case StrokeAppendMessage:
		if r.phase == PhaseEnded {
			return
		}
		if msg.Stroke.Width <= 0 {
			log.Printf("[Room %s] Stroke with non-positive width from %s dropped", r.id, playerID)
			return
		}
		if _, err := canvas.ParsePath(msg.Stroke.Path); err != nil {
			log.Printf("[Room %s] Unparsable stroke path from %s dropped: %v", r.id, playerID, err)
			return
		}
		r.doc.Append(model.Stroke{
			Path:     msg.Stroke.Path,
			Color:    msg.Stroke.Color,
			Width:    msg.Stroke.Width,
			AuthorID: playerID,
		})

	case StrokeClearMessage:
		if r.phase == PhaseEnded {
			return
		}
		r.doc.Clear()
	}
}

func (r *Room) handleTick(ev evTick) {
	// a timer that outlived its phase fires into the void
	if ev.phase != r.phase {
		return
	}

	switch r.phase {
	case PhaseTopicSelection:
		if ev.remaining <= 0 {
			r.clearTimer(PhaseTopicSelection)
			r.startCountdown()
		}
	case PhaseCountdown:
		r.broadcastState(GameStateData{State: r.phase.String(), Topic: &r.topic, Countdown: &ev.remaining})
		if ev.remaining <= 0 {
			r.clearTimer(PhaseCountdown)
			r.startPlaying()
		}
	case PhasePlaying:
		r.timeLeft = ev.remaining
		r.broadcastState(GameStateData{State: r.phase.String(), Topic: &r.topic, TimeLeft: &ev.remaining})
		if ev.remaining <= 0 {
			r.clearTimer(PhasePlaying)
			r.endRound()
		}
	}
}

func (r *Room) startTopicSelection() {
	r.phase = PhaseTopicSelection
	r.topic = r.parent.pickTopic()
	log.Printf("[Room %s] Topic selected: %q", r.id, r.topic)
	// broadcast immediately so late joiners can recover the topic
	r.broadcastState(GameStateData{State: r.phase.String(), Topic: &r.topic})
	r.startPhaseTimer(PhaseTopicSelection, r.cfg.TopicDelayTicks)
}

func (r *Room) startCountdown() {
	r.phase = PhaseCountdown
	countdown := r.cfg.CountdownTicks
	r.broadcastState(GameStateData{State: r.phase.String(), Topic: &r.topic, Countdown: &countdown})
	r.startPhaseTimer(PhaseCountdown, r.cfg.CountdownTicks)
}

func (r *Room) startPlaying() {
	r.phase = PhasePlaying
	r.timeLeft = r.cfg.RoundTicks
	r.broadcastState(GameStateData{State: r.phase.String(), Topic: &r.topic, TimeLeft: &r.timeLeft})
	r.startPhaseTimer(PhasePlaying, r.cfg.RoundTicks)
}

func (r *Room) endRound() {
	r.phase = PhaseEnded
	r.broadcastState(GameStateData{State: r.phase.String(), Topic: &r.topic})

	raster, err := canvas.Composite(r.doc.Snapshot(), r.canvasCfg.Width, r.canvasCfg.Height)
	if err != nil {
		log.Printf("[Room %s] Compositing failed: %v", r.id, err)
	} else if r.submitter != nil {
		r.submitter.Submit(r.id, raster, RoundMeta{Topic: r.topic, PlayerCount: len(r.clients)})
	}

	r.broadcast(encodeServerMessage(TypeGameEnded, r.id, GameEndedData{
		ResultRef: fmt.Sprintf("/api/results/%s", r.id),
	}))
	log.Printf("[Room %s] Round ended (%d strokes)", r.id, r.doc.Len())
}

// startPhaseTimer launches the ticker for a phase. Starting a timer that is
// already running is a no-op, so duplicate trigger messages are harmless.
func (r *Room) startPhaseTimer(phase RoomPhase, ticks int) {
	if _, running := r.timers[phase]; running {
		return
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.timers[phase] = cancel

	go func() {
		ticker := time.NewTicker(r.cfg.TickInterval)
		defer ticker.Stop()
		remaining := ticks
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				remaining--
				if !r.enqueue(evTick{phase: phase, remaining: remaining}) {
					return
				}
				if remaining <= 0 {
					return
				}
			}
		}
	}()
}

func (r *Room) clearTimer(phase RoomPhase) {
	if cancel, ok := r.timers[phase]; ok {
		cancel()
		delete(r.timers, phase)
	}
}

func (r *Room) destroy() {
	log.Printf("[Room %s] Empty, destroying", r.id)
	r.shutdown()
	r.parent.roomEmptied(r.id)
}

// shutdown stops the actor: closes every session, cancels timers and the
// room context. Runs on the mailbox goroutine.
func (r *Room) shutdown() {
	for id, c := range r.clients {
		c.session.Close()
		delete(r.clients, id)
	}
	r.order = nil
	for phase, cancel := range r.timers {
		cancel()
		delete(r.timers, phase)
	}
	r.cancel()
}

// sendSnapshot pushes the current phase and the full stroke backlog to one
// session so it converges with the rest of the room.
func (r *Room) sendSnapshot(session Session) {
	data := GameStateData{State: r.phase.String()}
	if r.phase != PhaseWaiting {
		data.Topic = &r.topic
	}
	if r.phase == PhasePlaying {
		data.TimeLeft = &r.timeLeft
	}
	session.Send(encodeServerMessage(TypeGameStateUpdate, r.id, data))

	for _, stroke := range r.doc.Snapshot() {
		session.Send(encodeServerMessage(TypeStrokeAdded, r.id, StrokeAddedData{Stroke: stroke}))
	}
}

func (r *Room) broadcastRoster() {
	players := make([]PlayerInfo, 0, len(r.order))
	for _, id := range r.order {
		c := r.clients[id]
		players = append(players, PlayerInfo{ID: c.player.ID, DisplayName: c.player.DisplayName})
	}
	r.broadcast(encodeServerMessage(TypePlayerUpdate, r.id, PlayerUpdateData{
		PlayerCount: len(players),
		Players:     players,
	}))
}

func (r *Room) broadcastState(data GameStateData) {
	r.broadcast(encodeServerMessage(TypeGameStateUpdate, r.id, data))
}

func (r *Room) broadcast(frame []byte) {
	if frame == nil {
		return
	}
	for _, c := range r.clients {
		if !c.session.Send(frame) {
			log.Printf("[Room %s] Send queue full for player %s, frame dropped", r.id, c.player.ID)
		}
	}
}
