package chatstate

import (
	"context"

	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/netconn"
)

// Mode is the top-level screen: exactly one of Login or Chat is active at
// any time, enforced here by Machine always keeping
// exactly one of Login/Chat non-nil and Mode naming which.
type Mode int

const (
	ModeLogin Mode = iota
	ModeChat
)

// Machine is the single mutator of application state: all
// concurrency is expressed through events arriving at Update, never through
// locks on the fields below.
type Machine struct {
	Global GlobalState
	Mode   Mode
	Login  *LoginState
	Chat   *ChatState

	Cache *StateCache
	Conn  *netconn.Conn
	Bus   *events.Bus
}

// New builds a Machine starting on the login screen.
func New(conn *netconn.Conn, bus *events.Bus) *Machine {
	return &Machine{
		Mode:  ModeLogin,
		Login: &LoginState{Focus: FocusUsername},
		Cache: NewStateCache(),
		Conn:  conn,
		Bus:   bus,
	}
}

// Update is the single dispatch on (current mode, event).
// It holds exclusive access to all mutable state; callers
// must invoke it from one goroutine only (the runtime's main loop).
func (m *Machine) Update(ctx context.Context, ev events.Event) {
	switch ev.Kind {
	case events.Log:
		m.Global.PushLog(ev.Str)
		return
	case events.Exit:
		m.Global.ShouldQuit = true
		return
	case events.ToggleLogs:
		m.Global.ShowLogs = !m.Global.ShowLogs
		return
	}

	switch m.Mode {
	case ModeLogin:
		m.updateLogin(ctx, ev)
	case ModeChat:
		m.updateChat(ctx, ev)
	}
}
