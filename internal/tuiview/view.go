// Package tuiview is the render boundary, kept intentionally thin. It
// renders a read-only snapshot of chatstate.Machine and never mutates it.
package tuiview

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/mitchellh/go-wordwrap"

	"github.com/blockdoth/chatger-tui/internal/chatstate"
)

// View draws the current application state to a tcell.Screen.
type View struct {
	screen tcell.Screen
}

// New wraps an already-initialized tcell.Screen.
func New(screen tcell.Screen) *View {
	return &View{screen: screen}
}

// Draw renders one frame from m's current state.
func (v *View) Draw(m *chatstate.Machine) {
	v.screen.Clear()
	switch m.Mode {
	case chatstate.ModeLogin:
		v.drawLogin(m.Login)
	case chatstate.ModeChat:
		v.drawChat(m.Chat, &m.Global)
	}
	v.screen.Show()
}

func (v *View) drawLogin(l *chatstate.LoginState) {
	v.text(2, 1, fmt.Sprintf("username: %s", l.Username))
	v.text(2, 2, fmt.Sprintf("password: %s", maskPassword(l.Password)))
	v.text(2, 3, fmt.Sprintf("server:   %s", l.ServerAddress))
	v.text(2, 5, loginStatusText(l.InputStatus))
}

func maskPassword(s string) string {
	out := make([]byte, len(s))
	for i := range out {
		out[i] = '*'
	}
	return string(out)
}

func loginStatusText(s chatstate.LoginStatus) string {
	switch s {
	case chatstate.StatusAllFine:
		return ""
	case chatstate.StatusFailedToLogin:
		return "login failed"
	case chatstate.StatusIncorrectUsernameOrPassword:
		return "incorrect username or password"
	case chatstate.StatusServerNotFound:
		return "server not found"
	case chatstate.StatusAddressNotParsable:
		return "address not parsable"
	default:
		return "unknown error"
	}
}

func (v *View) drawChat(c *chatstate.ChatState, g *chatstate.GlobalState) {
	if c == nil {
		return
	}
	row := 1
	for i, entry := range c.Channels {
		marker := "  "
		if i == c.ActiveChannelIdx {
			marker = "> "
		}
		v.text(1, row, marker+entry.Channel.Name)
		row++
	}

	_, h := v.screen.Size()
	histCol := 24
	active, ok := c.ActiveChannel()
	if ok {
		msgs := c.History[active.Channel.ID]
		start := 0
		if len(msgs) > h-4 {
			start = len(msgs) - (h - 4)
		}
		r := 1
		for _, msg := range msgs[start:] {
			wrapped := wordwrap.WrapString(fmt.Sprintf("%s: %s", msg.AuthorName, msg.Text), 60)
			v.text(histCol, r, wrapped)
			r++
		}
		v.text(histCol, h-2, c.Inputs[active.Channel.ID])
	}

	if g.ShowLogs {
		logCol := runewidth.StringWidth("") + histCol + 64
		for i, line := range g.LogRing {
			v.text(logCol, 1+i, line)
			if i > h-2 {
				break
			}
		}
	}
}

func (v *View) text(x, y int, s string) {
	col := x
	for _, r := range s {
		v.screen.SetContent(col, y, r, nil, tcell.StyleDefault)
		col += runewidth.RuneWidth(r)
	}
}
