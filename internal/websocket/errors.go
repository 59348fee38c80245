package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrUnknownType     = errors.New("unknown message type")
	ErrClientGone      = errors.New("client is not connected")
)
