// Package ticker implements the tick driver: a 10ms timer
// that reads connection liveness and local chat state and emits events,
// never mutating state directly. Shaped after server/main.go's
// ticker+select-over-ctx.Done goroutines.
package ticker

import (
	"context"
	"time"

	"github.com/blockdoth/chatger-tui/internal/chatstate"
	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/netconn"
)

// Interval is the tick period driving periodic state checks.
const Interval = 10 * time.Millisecond

const (
	unhealthyAfter = 10 * time.Second
	reconnectAfter = 15 * time.Second
	idleAfter      = 60 * time.Second
)

// Run drives the tick loop until ctx is canceled. It reads m under the
// caller's supervision: the Machine's fields are only safe to read here
// because the runtime's main loop and the tick loop never run concurrently
// with Update on the same state (the tick driver only emits events; all
// mutation happens back on the main loop when the event is consumed).
func Run(ctx context.Context, m *chatstate.Machine, conn *netconn.Conn, bus *events.Bus) {
	t := time.NewTicker(Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tick(m, conn, bus)
		}
	}
}

func tick(m *chatstate.Machine, conn *netconn.Conn, bus *events.Bus) {
	if m.Mode != chatstate.ModeChat || m.Chat == nil {
		return
	}
	c := m.Chat

	if c.IsTyping && time.Since(c.LastKeystroke) > chatstate.TypingExpiry {
		bus.TrySend(events.New(events.TypingExpired))
	}

	if c.ConnStatus == netconn.Connected && conn.LastTransmitElapsed() > unhealthyAfter {
		bus.TrySend(events.New(events.PossiblyUnhealthyConnection))
	}

	quiet := conn.LastTransmitElapsed() > reconnectAfter
	disconnectedLike := c.ConnStatus == netconn.Disconnected || c.ConnStatus == netconn.Reconnecting
	if (quiet || disconnectedLike) && conn.LastReconnectElapsed() > 5*time.Second && conn.ReconnectAllowed() {
		conn.MarkReconnectAttempt()
		bus.TrySend(events.New(events.Reconnect))
	}

	if c.LastFocusLost != nil && time.Since(*c.LastFocusLost) > idleAfter {
		bus.TrySend(events.New(events.IdleUser))
	}
}
