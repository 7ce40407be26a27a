package websocket

import (
	"errors"
	"fmt"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("connection is closed")
	ErrInvalidMessage  = fmt.Errorf("%w: invalid message format", apperrors.ErrInvalidContent)
	ErrUnknownEvent    = fmt.Errorf("%w: unknown event", apperrors.ErrInvalidContent)
	ErrNotInRoom       = fmt.Errorf("%w: not a member of this room", apperrors.ErrForbidden)
	ErrIdentityChanged = fmt.Errorf("%w: connection is bound to another user", apperrors.ErrConflict)
)
