package chatstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/netconn"
	"github.com/blockdoth/chatger-tui/internal/wire"
)

func newTestMachine() *Machine {
	bus := events.NewBus()
	conn := netconn.New(bus)
	m := New(conn, bus)
	return m
}

func enterChat(m *Machine) {
	m.Chat = NewChatState(Profile{ID: 1, Name: "alice", Password: "pw", Status: wire.UserOnline}, "127.0.0.1:4348", false)
	m.Chat.Channels = []ChannelEntry{{Channel: wire.Channel{ID: 7, Name: "general"}}}
	m.Chat.Inputs[7] = ""
	m.Mode = ModeChat
	m.Login = nil
}

// send -> ack updates the DisplayMessage id and
// drains the pending-ack FIFO.
func TestSendThenAck(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()

	m.Chat.Inputs[7] = "hi"
	m.Chat.Focus = ChatFocus{Kind: FocusChatInput}
	m.Update(ctx, events.New(events.MessageSend))

	require.Len(t, m.Chat.PendingAckFIFO, 1)
	localID := m.Chat.PendingAckFIFO[0]
	require.Equal(t, uint64(InitialAckCounter), localID)
	require.Len(t, m.Chat.History[7], 1)
	require.Equal(t, MessageSending, m.Chat.History[7][0].Status)

	ack := events.New(events.MessageSendAck)
	ack.UserID = 42
	m.Update(ctx, ack)

	require.Empty(t, m.Chat.PendingAckFIFO)
	require.Equal(t, uint64(42), m.Chat.History[7][0].MessageID)
	require.Equal(t, MessageSent, m.Chat.History[7][0].Status)
}

// duplicate history messages are deduped by id.
func TestHistoryDedup(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()

	ev := events.New(events.HistoryUpdate)
	ev.ChanID = 7
	ev.History = []wire.HistoryMessage{
		{MessageID: 1, SentTSSecs: 1000, UserID: 1, ChannelID: 7, MessageText: "a"},
		{MessageID: 1, SentTSSecs: 1000, UserID: 1, ChannelID: 7, MessageText: "a"},
	}
	m.Update(ctx, ev)
	require.Len(t, m.Chat.History[7], 1)
}

// typing expiry fires exactly once after 2s idle.
func TestTypingExpiry(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()

	m.Chat.Focus = ChatFocus{Kind: FocusChatInput}
	m.Update(ctx, events.New(events.InputChar))
	require.True(t, m.Chat.IsTyping)

	m.Chat.LastKeystroke = time.Now().Add(-3 * time.Second)
	m.Update(ctx, events.New(events.TypingExpired))
	require.False(t, m.Chat.IsTyping)

	// A second TypingExpired with no new keystrokes is a no-op (already false).
	m.Update(ctx, events.New(events.TypingExpired))
	require.False(t, m.Chat.IsTyping)
}

// logout caches chat state and marks Sending as
// FailedToSend; login with the same identity restores it.
func TestLogoutRestoresOnRelogin(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()

	m.Chat.History[7] = append(m.Chat.History[7], DisplayMessage{MessageID: 100000, Status: MessageSending})
	m.Cache.PutLogin(LoginState{Username: "alice", Password: "pw"})

	m.Update(ctx, events.New(events.Logout))
	require.Equal(t, ModeLogin, m.Mode)
	require.Nil(t, m.Chat)

	cached, ok := m.Cache.GetChat("alice", "pw", "127.0.0.1:4348")
	require.True(t, ok)
	require.Equal(t, MessageFailedToSend, cached.History[7][0].Status)

	ev := events.New(events.LoginSuccess)
	ev.LoginResult.UserID = 1
	m.Login.Parsed = &netconn.ResolvedAddr{Addr: "127.0.0.1:4348"}
	m.Update(ctx, ev)

	require.Equal(t, ModeChat, m.Mode)
	require.Equal(t, MessageFailedToSend, m.Chat.History[7][0].Status)
}

func TestDisconnectedMarksSendingFailed(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()

	m.Chat.History[7] = append(m.Chat.History[7], DisplayMessage{MessageID: 100000, Status: MessageSending})
	m.Chat.PendingAckFIFO = []uint64{100000}

	m.Update(ctx, events.New(events.Disconnected))
	require.Equal(t, MessageFailedToSend, m.Chat.History[7][0].Status)
	require.Empty(t, m.Chat.PendingAckFIFO)
	require.Equal(t, netconn.Reconnecting, m.Chat.ConnStatus)
}

// Up/Down on the channel list only moves the active channel while
// Channels has focus.
func TestChannelNavGatedByFocus(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()
	m.Chat.Channels = append(m.Chat.Channels, ChannelEntry{Channel: wire.Channel{ID: 8, Name: "random"}})
	m.Chat.Inputs[8] = ""

	m.Chat.Focus = ChatFocus{Kind: FocusChatInput}
	m.Update(ctx, events.New(events.ChannelDown))
	require.Equal(t, 0, m.Chat.ActiveChannelIdx)

	m.Chat.Focus = ChatFocus{Kind: FocusChannels}
	m.Update(ctx, events.New(events.ChannelDown))
	require.Equal(t, 1, m.Chat.ActiveChannelIdx)
}

// A ChatFocusChange event carrying a FocusTarget moves focus to that
// pane, covering the Channels -> History -> Input chain a user walks
// through to send their first message.
func TestChatFocusChangeTransitions(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()
	require.Equal(t, FocusChannels, m.Chat.Focus.Kind)

	toHistory := events.New(events.ChatFocusChange)
	toHistory.FocusTarget = events.FocusTargetHistory
	m.Update(ctx, toHistory)
	require.Equal(t, FocusChatHistory, m.Chat.Focus.Kind)

	toInput := events.New(events.ChatFocusChange)
	toInput.FocusTarget = events.FocusTargetInput
	m.Update(ctx, toInput)
	require.Equal(t, FocusChatInput, m.Chat.Focus.Kind)

	m.Update(ctx, events.New(events.InputChar))
	require.True(t, m.Chat.IsTyping)
}

// Selection mode moves a per-channel cursor, bounded to the message
// list, and 'r' toggles reply on whichever message it lands on.
func TestSelectionMoveAndReply(t *testing.T) {
	m := newTestMachine()
	enterChat(m)
	ctx := context.Background()
	m.Chat.History[7] = []DisplayMessage{
		{MessageID: 1, Text: "a"},
		{MessageID: 2, Text: "b"},
		{MessageID: 3, Text: "c"},
	}
	m.Chat.Focus = ChatFocus{Kind: FocusChatHistorySelection}

	m.Update(ctx, events.New(events.ScrollDown))
	m.Update(ctx, events.New(events.ScrollDown))
	m.Update(ctx, events.New(events.ScrollDown)) // clamps at the last message
	require.Equal(t, 2, m.Chat.Channels[0].HistorySelOffset)

	m.Update(ctx, events.New(events.Reply))
	require.NotNil(t, m.Chat.ReplyTarget)
	require.Equal(t, uint64(3), *m.Chat.ReplyTarget)

	// Replying to the same selected message again toggles it off.
	m.Update(ctx, events.New(events.Reply))
	require.Nil(t, m.Chat.ReplyTarget)
}

func TestLoginFailClassification(t *testing.T) {
	m := newTestMachine()
	ctx := context.Background()

	ev := events.New(events.LoginFail)
	ev.LoginResult.Reason = "Incorrect username or password."
	m.Update(ctx, ev)
	require.Equal(t, StatusIncorrectUsernameOrPassword, m.Login.InputStatus)

	ev.LoginResult.Reason = "server exploded"
	m.Update(ctx, ev)
	require.Equal(t, StatusFailedToLogin, m.Login.InputStatus)
}
