package game

import "errors"

var (
	// ErrRoomFull the roster is at capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrRoomClosed the room has ended or been destroyed.
	ErrRoomClosed = errors.New("room is closed")
	// ErrUnknownMessageType inbound frame carried an unrecognized type tag.
	ErrUnknownMessageType = errors.New("unknown message type")
)
