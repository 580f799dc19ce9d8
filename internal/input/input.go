// Package input runs the dedicated terminal-input goroutine:
// a blocking poll loop feeding raw key/focus events onto the event bus.
// Grounded on framegrace-texelation's tcell event loop, including its use of
// screen.PostEvent to unblock a pending PollEvent on shutdown.
package input

import (
	"context"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/blockdoth/chatger-tui/internal/chatstate"
	"github.com/blockdoth/chatger-tui/internal/events"
)

// Reader owns the blocking PollEvent loop on its own goroutine. It only
// ever reads machine's fields to decide what event to emit next — all
// mutation happens on the main loop goroutine via Machine.Update — the
// same cross-goroutine read tolerance the tick driver relies on.
type Reader struct {
	screen  tcell.Screen
	bus     *events.Bus
	machine *chatstate.Machine
	stop    atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New wraps an already-initialized tcell.Screen.
func New(screen tcell.Screen, bus *events.Bus, machine *chatstate.Machine) *Reader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reader{screen: screen, bus: bus, machine: machine, ctx: ctx, cancel: cancel}
}

// Run blocks, polling terminal events until Stop is called. It is only ever
// started and stopped once per process lifetime.
func (r *Reader) Run() {
	for {
		if r.stop.Load() {
			return
		}
		ev := r.screen.PollEvent()
		if ev == nil {
			return // screen finalized
		}
		if r.stop.Load() {
			return
		}
		r.dispatch(ev)
	}
}

// Stop signals the poll loop to exit, cancels any in-flight blocking send,
// and unblocks a pending PollEvent by posting a synthetic interrupt —
// bounding shutdown latency to the next poll boundary.
func (r *Reader) Stop() {
	r.stop.Store(true)
	r.cancel()
	r.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// send delivers ev, blocking briefly under back-pressure rather than
// dropping a keystroke; a keystroke lost to a momentarily full bus is a
// worse failure mode than a few milliseconds of added input latency.
func (r *Reader) send(ev events.Event) {
	_ = r.bus.Send(r.ctx, ev)
}

func focusChange(target events.ChatFocusTarget) events.Event {
	ev := events.New(events.ChatFocusChange)
	ev.FocusTarget = target
	return ev
}

func (r *Reader) dispatch(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		r.dispatchKey(e)
	case *tcell.EventFocus:
		kind := events.FocusLost
		if e.Focused {
			kind = events.FocusGained
		}
		r.send(events.New(kind))
	}
}

// dispatchKey branches on the current screen and, in chat mode, on the
// focused pane, since the same physical key means different things to the
// channel list, the history view, the selection cursor, and the input line.
func (r *Reader) dispatchKey(e *tcell.EventKey) {
	if r.machine.Mode == chatstate.ModeLogin {
		r.dispatchLoginKey(e)
		return
	}
	r.dispatchChatKey(e)
}

// dispatchLoginKey handles the login screen's field-editing and tab order.
// q/l are only global commands while the login button (or no field) has
// focus; while a field is being edited they're ordinary characters.
func (r *Reader) dispatchLoginKey(e *tcell.EventKey) {
	l := r.machine.Login
	switch e.Key() {
	case tcell.KeyLeft:
		if e.Modifiers()&tcell.ModCtrl != 0 {
			r.send(events.New(events.InputLeftTab))
		} else {
			r.send(events.New(events.InputLeft))
		}
	case tcell.KeyRight:
		if e.Modifiers()&tcell.ModCtrl != 0 {
			r.send(events.New(events.InputRightTab))
		} else {
			r.send(events.New(events.InputRight))
		}
	case tcell.KeyBacktab, tcell.KeyUp:
		ev := events.New(events.LoginFocusChange)
		ev.Bool = false
		r.send(ev)
	case tcell.KeyTab, tcell.KeyDown, tcell.KeyEnter:
		ev := events.New(events.LoginFocusChange)
		ev.Bool = true
		r.send(ev)
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		r.send(events.New(events.InputDelete))
	case tcell.KeyEsc:
		r.send(events.New(events.LoginDefocus))
	case tcell.KeyRune:
		editing := l != nil && l.Focus != chatstate.FocusLoginButton && l.Focus != chatstate.FocusNothing
		if !editing {
			switch e.Rune() {
			case 'q', 'Q':
				r.send(events.New(events.Exit))
				return
			case 'l', 'L':
				r.send(events.New(events.ToggleLogs))
				return
			}
		}
		ev := events.New(events.InputChar)
		ev.Rune = e.Rune()
		r.send(ev)
	}
}

// dispatchChatKey applies the chat-mode global bindings, then routes
// everything else to the handler for the currently focused pane.
func (r *Reader) dispatchChatKey(e *tcell.EventKey) {
	c := r.machine.Chat
	if c == nil {
		return
	}
	if e.Key() == tcell.KeyRune {
		switch e.Rune() {
		case 'q', 'Q':
			r.send(events.New(events.Exit))
			return
		case 'l', 'L':
			r.send(events.New(events.ToggleLogs))
			return
		case 'x', 'X':
			r.send(events.New(events.Logout))
			return
		}
	}

	switch c.Focus.Kind {
	case chatstate.FocusChannels:
		r.dispatchChannelsKey(e)
	case chatstate.FocusChatHistory:
		r.dispatchHistoryKey(e)
	case chatstate.FocusChatHistorySelection:
		r.dispatchSelectionKey(e)
	case chatstate.FocusChatInput:
		r.dispatchInputKey(e)
	case chatstate.FocusUsers:
		r.dispatchUsersKey(e)
	case chatstate.FocusLogs:
		r.dispatchLogsKey(e)
	}
}

func (r *Reader) dispatchChannelsKey(e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyUp:
		r.send(events.New(events.ChannelUp))
	case tcell.KeyDown:
		r.send(events.New(events.ChannelDown))
	case tcell.KeyRight, tcell.KeyEnter:
		r.send(focusChange(events.FocusTargetHistory))
	}
}

func (r *Reader) dispatchHistoryKey(e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyUp, tcell.KeyLeft:
		r.send(events.New(events.ScrollUp))
	case tcell.KeyDown, tcell.KeyRight:
		r.send(events.New(events.ScrollDown))
	case tcell.KeyRune:
		if e.Rune() == 's' || e.Rune() == 'S' {
			r.send(focusChange(events.FocusTargetHistorySelection))
			return
		}
		// Any other character opens the input line and captures the
		// keystroke that opened it, so the user doesn't lose the first
		// character typed.
		r.send(focusChange(events.FocusTargetInput))
		ev := events.New(events.InputChar)
		ev.Rune = e.Rune()
		r.send(ev)
	}
}

func (r *Reader) dispatchSelectionKey(e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyUp:
		r.send(events.New(events.ScrollUp))
	case tcell.KeyDown:
		r.send(events.New(events.ScrollDown))
	case tcell.KeyEsc:
		r.send(focusChange(events.FocusTargetHistory))
	case tcell.KeyRune:
		if e.Rune() == 'r' || e.Rune() == 'R' {
			r.send(events.New(events.Reply))
		}
	}
}

func (r *Reader) dispatchInputKey(e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyLeft:
		if e.Modifiers()&tcell.ModCtrl != 0 {
			r.send(events.New(events.InputLeftTab))
		} else {
			r.send(events.New(events.InputLeft))
		}
	case tcell.KeyRight:
		if e.Modifiers()&tcell.ModCtrl != 0 {
			r.send(events.New(events.InputRightTab))
		} else {
			r.send(events.New(events.InputRight))
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		r.send(events.New(events.InputDelete))
	case tcell.KeyEnter:
		r.send(events.New(events.MessageSend))
	case tcell.KeyEsc, tcell.KeyUp:
		r.send(focusChange(events.FocusTargetHistory))
	case tcell.KeyRune:
		ev := events.New(events.InputChar)
		ev.Rune = e.Rune()
		r.send(ev)
	}
}

func (r *Reader) dispatchUsersKey(e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyUp:
		r.send(events.New(events.ScrollUp))
	case tcell.KeyDown:
		r.send(events.New(events.ScrollDown))
	}
}

func (r *Reader) dispatchLogsKey(e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyUp:
		r.send(events.New(events.ScrollUp))
	case tcell.KeyDown:
		r.send(events.New(events.ScrollDown))
	}
}
