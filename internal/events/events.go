// Package events defines the event taxonomy flowing between the input
// reader, connection manager, tick driver, and state machine, plus the
// bounded bus that carries them.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/blockdoth/chatger-tui/internal/wire"
)

// Kind tags an Event's payload shape.
type Kind int

const (
	Log Kind = iota
	Exit
	ToggleLogs

	ChannelUp
	ChannelDown
	ChatFocusChange
	LoginFocusChange
	LoginDefocus

	InputLeft
	InputRight
	InputLeftTab
	InputRightTab
	InputChar
	InputDelete

	MessageSend
	ScrollUp
	ScrollDown

	LoginRequest
	Logout
	LoginSuccess
	LoginFail

	HealthCheckRecv
	Disconnected

	Channels
	ChannelIDs
	Users
	UserStatusesUpdate
	UserStatusUpdate
	HistoryUpdate
	MessageSendAck
	MessageMediaAck
	Media

	Typing
	TypingExpired

	PossiblyUnhealthyConnection
	Reconnect

	FocusGained
	FocusLost
	IdleUser

	Reply
	ViewUsers
)

// ChatFocusTarget names the pane a ChatFocusChange event should move focus
// to. It lives here rather than as a chatstate.ChatFocusKind field on Event
// because events cannot import chatstate (chatstate imports events); chatstate
// translates a ChatFocusTarget into its own ChatFocusKind.
type ChatFocusTarget int

const (
	FocusTargetChannels ChatFocusTarget = iota
	FocusTargetHistory
	FocusTargetHistorySelection
	FocusTargetInput
	FocusTargetUsers
	FocusTargetLogs
)

// Event is the single envelope type flowing through the bus. Only the
// field(s) relevant to Kind are populated; everything else is the zero
// value. This mirrors a tagged union without Go generics gymnastics,
// matching how the rest of the corpus favors a flat struct with an
// enum tag over an interface hierarchy for wire-adjacent dispatch.
type Event struct {
	Kind Kind
	ID   uuid.UUID // correlation id, set by the producer; diagnostic only

	// Generic payload slots, named by what most Kinds use them for.
	Rune        rune
	Str         string
	UserID      uint64
	ChanID      uint64
	Bool        bool
	Status      wire.UserStatus
	FocusTarget ChatFocusTarget

	LoginResult  LoginResultPayload
	Channels     []wire.Channel
	ChannelIDs   []uint64
	Users        []wire.UserData
	UserStatuses []wire.UserStatusPair
	History      []wire.HistoryMessage
	MediaAck     wire.MediaAck

	Time time.Time
}

// LoginResultPayload carries the outcome of a login attempt.
type LoginResultPayload struct {
	UserID uint64
	Reason string
}

// New builds an Event of the given kind, stamping it with a fresh
// correlation id.
func New(kind Kind) Event {
	return Event{Kind: kind, ID: uuid.New(), Time: time.Now()}
}
