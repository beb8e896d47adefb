// Package service orchestrates the purchasing workflows on top of the pure
// calculation packages, the document store and the sales API.
package service

import (
	"errors"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/realtime"
)

// ErrInvalidRequest marks input the caller has to fix.
var ErrInvalidRequest = errors.New("invalid request")

// Broadcaster pushes events to connected clients.
type Broadcaster interface {
	Broadcast(evt realtime.Event)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(realtime.Event) {}

func orNoop(b Broadcaster) Broadcaster {
	if b == nil {
		return noopBroadcaster{}
	}
	return b
}
