package chatstate

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/netconn"
	"github.com/blockdoth/chatger-tui/internal/wire"
)

// loginOrder is the Tab/Enter/Down focus cycle.
var loginOrder = []LoginFocus{FocusUsername, FocusPassword, FocusServerAddress, FocusLoginButton}

func (m *Machine) updateLogin(ctx context.Context, ev events.Event) {
	l := m.Login
	switch ev.Kind {
	case events.InputChar:
		m.editLoginField(func(s string, max int) string {
			if len(s) >= max {
				return s
			}
			return s + string(ev.Rune)
		})
		l.InputStatus = StatusAllFine

	case events.InputDelete:
		m.editLoginField(func(s string, _ int) string {
			if s == "" {
				return s
			}
			return s[:len(s)-1]
		})
		l.InputStatus = StatusAllFine

	case events.InputLeft, events.InputRight, events.InputLeftTab, events.InputRightTab:
		// Cursor movement within a field is a view-layer concern (no
		// cursor position is tracked in LoginState beyond the field
		// text itself); nothing to mutate here.

	case events.LoginFocusChange:
		l.Focus = nextLoginFocus(l.Focus, ev.Bool)

	case events.LoginDefocus:
		l.Focus = FocusNothing

	case events.LoginRequest:
		m.attemptLogin(ctx)

	case events.LoginSuccess:
		m.onLoginSuccess(ev)

	case events.LoginFail:
		m.onLoginFail(ev)
	}
}

func (m *Machine) editLoginField(edit func(s string, max int) string) {
	l := m.Login
	switch l.Focus {
	case FocusUsername:
		l.Username = edit(l.Username, MaxUsernameLen)
	case FocusPassword:
		l.Password = edit(l.Password, MaxPasswordLen)
	case FocusServerAddress:
		l.ServerAddress = edit(l.ServerAddress, MaxAddressLen)
	}
}

func nextLoginFocus(cur LoginFocus, forward bool) LoginFocus {
	idx := 0
	for i, f := range loginOrder {
		if f == cur {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(loginOrder)
	} else {
		idx = (idx - 1 + len(loginOrder)) % len(loginOrder)
	}
	return loginOrder[idx]
}

func (m *Machine) attemptLogin(ctx context.Context) {
	l := m.Login
	resolved, err := netconn.Resolve(strings.TrimSpace(l.ServerAddress))
	if err != nil {
		l.InputStatus = StatusAddressNotParsable
		return
	}
	l.Parsed = &resolved

	if err := m.Conn.Connect(ctx, resolved, l.EnableTLS); err != nil {
		l.InputStatus = classifyDialError(err)
		return
	}

	if err := m.Conn.SendLogin(l.Username, l.Password); err != nil {
		l.InputStatus = StatusUnknownError
		return
	}
	if err := m.Conn.SendStatus(wire.UserOnline); err != nil {
		l.InputStatus = StatusUnknownError
		return
	}
}

func classifyDialError(err error) LoginStatus {
	if errors.Is(err, netconn.ErrTLSRequiresDomain) {
		return StatusUnknownError
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return StatusServerNotFound
	}
	return StatusUnknownError
}

func (m *Machine) onLoginSuccess(ev events.Event) {
	l := m.Login
	m.Cache.PutLogin(*l)

	profile := Profile{
		ID:       ev.LoginResult.UserID,
		Name:     l.Username,
		Password: l.Password,
		Status:   wire.UserOnline,
	}
	serverAddr := ""
	if l.Parsed != nil {
		serverAddr = l.Parsed.Addr
	}

	if cached, ok := m.Cache.GetChat(l.Username, l.Password, serverAddr); ok {
		cached.Profile = profile
		cached.EnableTLS = l.EnableTLS
		cached.ConnStatus = netconn.Connected
		m.Chat = cached
	} else {
		m.Chat = NewChatState(profile, serverAddr, l.EnableTLS)
		m.Conn.SendChannelsList()
		m.Conn.SendUserStatuses()
	}
	m.Mode = ModeChat
	m.Login = nil
}

// onLoginFail classifies the server's error string.
func (m *Machine) onLoginFail(ev events.Event) {
	l := m.Login
	if ev.LoginResult.Reason == "Incorrect username or password." {
		l.InputStatus = StatusIncorrectUsernameOrPassword
	} else {
		l.InputStatus = StatusFailedToLogin
	}
	m.Conn.Disconnect()
}
