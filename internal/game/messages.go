package game

import (
	"encoding/json"
	"fmt"

	"drawparty-backend/internal/model"
)

// Inbound message types
const (
	TypePlayerJoin      = "playerJoin"
	TypeGameStateChange = "gameStateChange"
	TypeStrokeAppend    = "strokeAppend"
	TypeStrokeClear     = "strokeClear"
)

// Outbound message types
const (
	TypePlayerUpdate    = "playerUpdate"
	TypeGameStateUpdate = "gameStateUpdate"
	TypeGameEnded       = "gameEnded"
	TypeStrokeAdded     = "strokeAdded"
	TypeStrokeCleared   = "strokeCleared"
	TypeError           = "error"
)

// ClientMessage is the decoded form of one inbound frame. Exactly one of
// JoinMessage, StateChangeMessage, StrokeAppendMessage or StrokeClearMessage
// implements it, so dispatch is an exhaustive type switch.
type ClientMessage interface {
	clientMessage()
}

// JoinMessage attributes a connection to a room and player.
type JoinMessage struct {
	RoomID      string `json:"roomId"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// StateChangeData client-requested partial state.
type StateChangeData struct {
	ForceStart bool `json:"forceStart"`
}

// StateChangeMessage requests a state transition, e.g. a forced start.
type StateChangeMessage struct {
	Data StateChangeData `json:"data"`
}

// StrokeAppendMessage appends one stroke to the room's document.
type StrokeAppendMessage struct {
	Stroke StrokePayload `json:"stroke"`
}

// StrokePayload client-supplied stroke fields; Seq and AuthorID are
// server-assigned.
type StrokePayload struct {
	Path  string    `json:"path"`
	Color model.RGB `json:"color"`
	Width float64   `json:"width"`
}

// StrokeClearMessage wipes the room's document.
type StrokeClearMessage struct{}

func (JoinMessage) clientMessage()         {}
func (StateChangeMessage) clientMessage()  {}
func (StrokeAppendMessage) clientMessage() {}
func (StrokeClearMessage) clientMessage()  {}

type inboundEnvelope struct {
	Type string `json:"type"`
}

// DecodeClientMessage parses one inbound frame into its tagged variant.
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case TypePlayerJoin:
		var msg JoinMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed playerJoin: %w", err)
		}
		return msg, nil
	case TypeGameStateChange:
		var msg StateChangeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed gameStateChange: %w", err)
		}
		return msg, nil
	case TypeStrokeAppend:
		var msg StrokeAppendMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed strokeAppend: %w", err)
		}
		return msg, nil
	case TypeStrokeClear:
		return StrokeClearMessage{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}

// ServerMessage is one outbound frame. Every broadcast carries the
// originating room id so multiplexed clients can discard cross-room noise.
type ServerMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Data   any    `json:"data,omitempty"`
}

// PlayerInfo roster entry in playerUpdate frames.
type PlayerInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// PlayerUpdateData roster broadcast payload.
type PlayerUpdateData struct {
	PlayerCount int          `json:"playerCount"`
	Players     []PlayerInfo `json:"players"`
}

// GameStateData phase broadcast payload. Optional fields are only present
// in the phases that use them.
type GameStateData struct {
	State     string  `json:"state"`
	Topic     *string `json:"topic,omitempty"`
	Countdown *int    `json:"countdown,omitempty"`
	TimeLeft  *int    `json:"timeLeft,omitempty"`
}

// GameEndedData completion payload; ResultRef is pollable by the client.
type GameEndedData struct {
	ResultRef string `json:"resultRef"`
}

// StrokeAddedData diff payload for a single appended stroke.
type StrokeAddedData struct {
	Stroke model.Stroke `json:"stroke"`
}

// ErrorData explicit error frame payload.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeServerMessage(msgType, roomID string, data any) []byte {
	raw, err := json.Marshal(ServerMessage{Type: msgType, RoomID: roomID, Data: data})
	if err != nil {
		// all payload types above are marshalable; this is unreachable
		return nil
	}
	return raw
}
