// Package chatstate implements the application state and the
// single update dispatch function driving the Login and Chat
// modes.
package chatstate

import (
	"time"

	"github.com/blockdoth/chatger-tui/internal/netconn"
	"github.com/blockdoth/chatger-tui/internal/wire"
)

// Field length limits enforced on Login input edits.
const (
	MaxUsernameLen = 128
	MaxPasswordLen = 1024
	MaxAddressLen  = 63
)

// TypingExpiry is the idle window after which local typing is withdrawn.
const TypingExpiry = 2 * time.Second

// IdlePromotion is the focus-lost window after which local status becomes Idle.
const IdlePromotion = 60 * time.Second

// InitialAckCounter seeds the local pending-ack id space, kept well clear
// of server-assigned ids.
const InitialAckCounter = 100_000

// GlobalState holds state shared across both modes.
type GlobalState struct {
	LogRing       []string
	LogScroll     int
	ShowLogs      bool
	ShouldQuit    bool
}

const maxLogRing = 1000

// PushLog appends a formatted log line, trimming the ring from the front.
func (g *GlobalState) PushLog(line string) {
	g.LogRing = append(g.LogRing, line)
	if len(g.LogRing) > maxLogRing {
		g.LogRing = g.LogRing[len(g.LogRing)-maxLogRing:]
	}
}

// LoginFocus is the focused field on the login screen.
type LoginFocus int

const (
	FocusUsername LoginFocus = iota
	FocusPassword
	FocusServerAddress
	FocusLoginButton
	FocusNothing
)

// LoginStatus classifies the outcome of the last login attempt.
type LoginStatus int

const (
	StatusAllFine LoginStatus = iota
	StatusFailedToLogin
	StatusIncorrectUsernameOrPassword
	StatusServerNotFound
	StatusAddressNotParsable
	StatusUnknownError
)

// LoginState is the state of the login screen.
type LoginState struct {
	Username      string
	Password      string
	ServerAddress string
	Parsed        *netconn.ResolvedAddr
	Focus         LoginFocus
	InputStatus   LoginStatus
	EnableTLS     bool
}

// ChannelStatus is the unread/read/muted marker on a channel list entry.
type ChannelStatus int

const (
	ChannelRead ChannelStatus = iota
	ChannelUnread
	ChannelMuted
)

// ChannelEntry is one row in the channel list.
type ChannelEntry struct {
	Channel           wire.Channel
	Status            ChannelStatus
	HistorySelOffset  int
}

// UserEntry is one row in the user directory.
type UserEntry struct {
	Name   string
	Status wire.UserStatus
}

// MessageStatus is the lifecycle state of a locally displayed message.
type MessageStatus int

const (
	MessageSending MessageStatus = iota
	MessageSent
	MessageFailedToSend
)

// DisplayMessage is a message rendered in a channel's history.
type DisplayMessage struct {
	MessageID  uint64
	ReplyID    uint64
	AuthorName string
	AuthorID   uint64
	Timestamp  time.Time
	Text       string
	Status     MessageStatus
}

// ChatFocus is the focused pane in chat mode. Only one of the Index/Cursor
// fields is meaningful, selected by Kind, mirroring the Rust source's
// enum-with-payload shape without a Go sum type.
type ChatFocusKind int

const (
	FocusChannels ChatFocusKind = iota
	FocusChatHistory
	FocusChatHistorySelection
	FocusChatInput
	FocusUsers
	FocusLogs
)

type ChatFocus struct {
	Kind   ChatFocusKind
	Cursor int // valid for FocusChatInput
	Index  int // valid for FocusUsers
}

// Profile is the local user's identity and status.
type Profile struct {
	ID       uint64
	Name     string
	Password string
	Status   wire.UserStatus
}

// ChatState is the state of the chat screen.
type ChatState struct {
	Focus            ChatFocus
	Channels         []ChannelEntry
	Users            map[uint64]UserEntry
	History          map[uint64][]DisplayMessage
	Inputs           map[uint64]string
	ActiveChannelIdx int
	Profile          Profile
	ScrollOffset     int
	ServerAddr       string
	EnableTLS        bool
	ConnStatus       netconn.Status

	PendingAckFIFO      []uint64
	PendingMediaFIFO    []uint64
	AckCounter          uint64

	Typing        map[uint64]map[uint64]string // channel id -> user id -> name
	IsTyping      bool
	LastKeystroke time.Time

	LastFocusLost *time.Time
	ReplyTarget   *uint64
}

// NewChatState builds a fresh ChatState for a just-completed login,
// after a successful login.
func NewChatState(profile Profile, serverAddr string, enableTLS bool) *ChatState {
	return &ChatState{
		Focus:            ChatFocus{Kind: FocusChannels},
		Channels:         nil,
		Users:            make(map[uint64]UserEntry),
		History:          make(map[uint64][]DisplayMessage),
		Inputs:           make(map[uint64]string),
		ActiveChannelIdx: 0,
		Profile:          profile,
		ServerAddr:       serverAddr,
		EnableTLS:        enableTLS,
		ConnStatus:       netconn.Connected,
		AckCounter:       InitialAckCounter,
		Typing:           make(map[uint64]map[uint64]string),
	}
}

// ActiveChannel returns the currently selected channel entry and whether one exists.
func (cs *ChatState) ActiveChannel() (*ChannelEntry, bool) {
	if cs.ActiveChannelIdx < 0 || cs.ActiveChannelIdx >= len(cs.Channels) {
		return nil, false
	}
	return &cs.Channels[cs.ActiveChannelIdx], true
}
