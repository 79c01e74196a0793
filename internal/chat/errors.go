package chat

import "errors"

var (
	// ErrEmptyMessage rejects a send with neither text nor media.
	ErrEmptyMessage = errors.New("message has no text or media")

	// ErrInvalidKind rejects a send naming an unknown message kind.
	ErrInvalidKind = errors.New("invalid message kind")

	// ErrUnknownPeer means the named counterpart does not exist.
	ErrUnknownPeer = errors.New("unknown peer")
)
