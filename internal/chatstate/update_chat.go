package chatstate

import (
	"context"
	"strings"
	"time"

	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/netconn"
	"github.com/blockdoth/chatger-tui/internal/wire"
)

func (m *Machine) updateChat(ctx context.Context, ev events.Event) {
	c := m.Chat
	switch ev.Kind {
	case events.ChannelUp:
		if c.Focus.Kind == FocusChannels {
			m.cycleChannel(-1)
		}
	case events.ChannelDown:
		if c.Focus.Kind == FocusChannels {
			m.cycleChannel(1)
		}

	case events.ChatFocusChange:
		m.setChatFocus(ev.FocusTarget)

	case events.InputChar:
		if c.Focus.Kind == FocusChatInput {
			m.appendChatInput(ev.Rune)
		}
	case events.InputDelete:
		if c.Focus.Kind == FocusChatInput {
			m.backspaceChatInput()
		}
	case events.InputLeft, events.InputRight, events.InputLeftTab, events.InputRightTab:
		// cursor math lives in the view layer.

	case events.MessageSend:
		m.sendMessage()

	case events.ScrollUp:
		m.scrollUp()
	case events.ScrollDown:
		m.scrollDown()

	case events.LoginSuccess:
		// Reply to a reconnect-login: the handshake succeeded, so the
		// connection is live again.
		if c.ConnStatus == netconn.Reconnecting {
			c.ConnStatus = netconn.Connected
		}

	case events.LoginFail:
		// Reconnect-login was rejected; stay Reconnecting so the tick
		// driver's back-off keeps retrying instead of wedging the
		// connection in a state nothing will ever re-attempt.

	case events.MessageSendAck:
		m.ackMessage(ev.UserID)

	case events.MessageMediaAck:
		m.ackMedia(ev.UserID, ev.MediaAck)

	case events.HistoryUpdate:
		m.applyHistory(ev.ChanID, ev.History)

	case events.Channels:
		m.applyChannels(ev.Channels)

	case events.ChannelIDs:
		if len(ev.ChannelIDs) > 0 {
			m.Conn.SendChannels(ev.ChannelIDs)
		}

	case events.Users:
		m.applyUsers(ev.Users)

	case events.UserStatusesUpdate:
		m.applyUserStatuses(ev.UserStatuses)

	case events.UserStatusUpdate:
		m.applyUserStatus(ev.UserID, ev.Status)

	case events.HealthCheckRecv:
		m.Conn.SendHealthcheckPong()
		m.Conn.SendUserStatuses()

	case events.Logout:
		m.logout()

	case events.Disconnected:
		m.onDisconnected()

	case events.Typing:
		m.applyTyping(ev.ChanID, ev.UserID, ev.Bool)

	case events.TypingExpired:
		m.expireTyping()

	case events.PossiblyUnhealthyConnection:
		c.ConnStatus = netconn.Unhealthy

	case events.Reconnect:
		m.reconnect(ctx)

	case events.FocusGained:
		m.onFocusGained()
	case events.FocusLost:
		now := time.Now()
		c.LastFocusLost = &now
	case events.IdleUser:
		m.onIdleUser()

	case events.Reply:
		m.replySelected()

	case events.ViewUsers, events.Media:
		// No state mutation required; the view layer reads ev directly.
	}
}

// chatFocusTargetKind maps the focus-agnostic events.ChatFocusTarget a
// producer asks for onto this package's own ChatFocusKind.
var chatFocusTargetKind = map[events.ChatFocusTarget]ChatFocusKind{
	events.FocusTargetChannels:         FocusChannels,
	events.FocusTargetHistory:          FocusChatHistory,
	events.FocusTargetHistorySelection: FocusChatHistorySelection,
	events.FocusTargetInput:            FocusChatInput,
	events.FocusTargetUsers:            FocusUsers,
	events.FocusTargetLogs:             FocusLogs,
}

func (m *Machine) setChatFocus(target events.ChatFocusTarget) {
	kind, ok := chatFocusTargetKind[target]
	if !ok {
		return
	}
	m.Chat.Focus = ChatFocus{Kind: kind}
}

// scrollUp and scrollDown apply Up/Down to whichever cursor the current
// focus owns: the history scrollback position, or the selection cursor
// used to pick a message to reply to.
func (m *Machine) scrollUp() {
	c := m.Chat
	switch c.Focus.Kind {
	case FocusChatHistorySelection:
		m.moveSelection(-1)
	case FocusChatHistory:
		if c.ScrollOffset > 0 {
			c.ScrollOffset--
		}
	}
}

func (m *Machine) scrollDown() {
	c := m.Chat
	switch c.Focus.Kind {
	case FocusChatHistorySelection:
		m.moveSelection(1)
	case FocusChatHistory:
		c.ScrollOffset++
	}
}

func (m *Machine) moveSelection(delta int) {
	c := m.Chat
	active, ok := c.ActiveChannel()
	if !ok {
		return
	}
	n := len(c.History[active.Channel.ID])
	if n == 0 {
		return
	}
	active.HistorySelOffset += delta
	if active.HistorySelOffset < 0 {
		active.HistorySelOffset = 0
	}
	if active.HistorySelOffset > n-1 {
		active.HistorySelOffset = n - 1
	}
}

// replySelected toggles the reply target to whichever message the
// selection cursor currently sits on.
func (m *Machine) replySelected() {
	c := m.Chat
	active, ok := c.ActiveChannel()
	if !ok {
		return
	}
	msgs := c.History[active.Channel.ID]
	if active.HistorySelOffset < 0 || active.HistorySelOffset >= len(msgs) {
		return
	}
	m.toggleReply(msgs[active.HistorySelOffset].MessageID)
}

func (m *Machine) cycleChannel(delta int) {
	c := m.Chat
	if len(c.Channels) == 0 {
		return
	}
	if c.IsTyping {
		if active, ok := c.ActiveChannel(); ok {
			m.Conn.SendTyping(false, active.Channel.ID)
		}
		c.IsTyping = false
	}
	c.ActiveChannelIdx = ((c.ActiveChannelIdx+delta)%len(c.Channels) + len(c.Channels)) % len(c.Channels)
}

func (m *Machine) appendChatInput(r rune) {
	c := m.Chat
	active, ok := c.ActiveChannel()
	if !ok {
		return
	}
	id := active.Channel.ID
	c.Inputs[id] += string(r)
	c.IsTyping = true
	c.LastKeystroke = time.Now()
}

func (m *Machine) backspaceChatInput() {
	c := m.Chat
	active, ok := c.ActiveChannel()
	if !ok {
		return
	}
	id := active.Channel.ID
	s := c.Inputs[id]
	if s != "" {
		c.Inputs[id] = s[:len(s)-1]
	}
}

func (m *Machine) sendMessage() {
	c := m.Chat
	active, ok := c.ActiveChannel()
	if !ok {
		return
	}
	chanID := active.Channel.ID
	text := strings.TrimSpace(c.Inputs[chanID])
	if text == "" {
		return
	}

	localID := c.AckCounter
	c.AckCounter++

	var replyID uint64
	if c.ReplyTarget != nil {
		replyID = *c.ReplyTarget
	}

	msg := DisplayMessage{
		MessageID:  localID,
		ReplyID:    replyID,
		AuthorName: c.Profile.Name,
		AuthorID:   c.Profile.ID,
		Timestamp:  time.Now(),
		Text:       text,
		Status:     MessageSending,
	}
	c.History[chanID] = append(c.History[chanID], msg)
	c.PendingAckFIFO = append(c.PendingAckFIFO, localID)

	if err := m.Conn.SendMessage(chanID, replyID, nil, text); err == nil {
		c.ReplyTarget = nil
		c.Focus = ChatFocus{Kind: FocusChatInput, Cursor: 0}
		c.Inputs[chanID] = ""
	}
}

// ackMessage applies a MessageSendAck, including the
// FIFO-preserving fallback when the matching message cannot be found.
func (m *Machine) ackMessage(serverID uint64) {
	c := m.Chat
	if len(c.PendingAckFIFO) == 0 {
		return
	}
	localID := c.PendingAckFIFO[0]
	c.PendingAckFIFO = c.PendingAckFIFO[1:]

	found := false
	for chanID, msgs := range c.History {
		for i := range msgs {
			if msgs[i].MessageID == localID {
				msgs[i].MessageID = serverID
				msgs[i].Status = MessageSent
				found = true
				break
			}
		}
		if found {
			c.History[chanID] = msgs
			break
		}
	}
	if !found {
		c.PendingAckFIFO = append([]uint64{localID}, c.PendingAckFIFO...)
	}
}

// ackMedia resolves the SendMediaAck Open Question (DESIGN.md) with a
// minimal non-todo implementation mirroring ackMessage's FIFO discipline.
func (m *Machine) ackMedia(mediaID uint64, ack wire.MediaAck) {
	c := m.Chat
	if len(c.PendingMediaFIFO) == 0 {
		return
	}
	c.PendingMediaFIFO = c.PendingMediaFIFO[1:]
	_ = ack
}

func (m *Machine) applyHistory(channelID uint64, msgs []wire.HistoryMessage) {
	c := m.Chat
	existing := c.History[channelID]
	seen := make(map[uint64]bool, len(existing))
	for _, dm := range existing {
		seen[dm.MessageID] = true
	}
	for _, hm := range msgs {
		if seen[hm.MessageID] {
			continue
		}
		author := "Unknown"
		if u, ok := c.Users[hm.UserID]; ok {
			author = u.Name
		}
		existing = append(existing, DisplayMessage{
			MessageID:  hm.MessageID,
			ReplyID:    hm.ReplyID,
			AuthorName: author,
			AuthorID:   hm.UserID,
			Timestamp:  time.Unix(int64(hm.SentTSSecs), 0),
			Text:       hm.MessageText,
			Status:     MessageSent,
		})
		seen[hm.MessageID] = true
	}
	c.History[channelID] = existing
}

func (m *Machine) applyChannels(chans []wire.Channel) {
	c := m.Chat
	now := uint64(time.Now().Unix())
	for _, ch := range chans {
		c.Channels = append(c.Channels, ChannelEntry{Channel: ch, Status: ChannelRead})
		c.Inputs[ch.ID] = ""
		m.Conn.SendHistory(ch.ID, wire.AnchorFromTimestamp(now), 50)
	}
}

func (m *Machine) applyUsers(users []wire.UserData) {
	c := m.Chat
	for _, u := range users {
		c.Users[u.UserID] = UserEntry{Name: u.Username, Status: u.Status}
	}
}

func (m *Machine) applyUserStatuses(pairs []wire.UserStatusPair) {
	c := m.Chat
	var missing []uint64
	for _, p := range pairs {
		if existing, ok := c.Users[p.UserID]; ok {
			existing.Status = p.Status
			c.Users[p.UserID] = existing
		} else {
			c.Users[p.UserID] = UserEntry{Status: p.Status}
			missing = append(missing, p.UserID)
		}
	}
	if len(missing) > 0 {
		m.Conn.SendUsers(missing)
	}
}

func (m *Machine) applyUserStatus(userID uint64, status wire.UserStatus) {
	c := m.Chat
	if existing, ok := c.Users[userID]; ok {
		existing.Status = status
		c.Users[userID] = existing
	} else {
		m.Conn.SendUsers([]uint64{userID})
	}
}

func (m *Machine) logout() {
	c := m.Chat
	if cachedLogin, ok := m.Cache.GetLogin(); ok {
		for chanID, msgs := range c.History {
			for i := range msgs {
				if msgs[i].Status == MessageSending {
					msgs[i].Status = MessageFailedToSend
				}
			}
			c.History[chanID] = msgs
		}
		c.PendingAckFIFO = nil
		serverAddr := c.ServerAddr
		m.Cache.PutChat(c.Profile.Name, c.Profile.Password, serverAddr, c)

		m.Conn.Disconnect()
		login := cachedLogin
		m.Login = &login
		m.Chat = nil
		m.Mode = ModeLogin
	} else {
		m.Global.ShouldQuit = true
	}
}

func (m *Machine) onDisconnected() {
	c := m.Chat
	if c.ConnStatus == netconn.Reconnecting {
		return
	}
	for chanID, msgs := range c.History {
		for i := range msgs {
			if msgs[i].Status == MessageSending {
				msgs[i].Status = MessageFailedToSend
			}
		}
		c.History[chanID] = msgs
	}
	c.PendingAckFIFO = nil
	m.Conn.Disconnect()
	c.ConnStatus = netconn.Reconnecting
}

func (m *Machine) applyTyping(channelID, userID uint64, isTyping bool) {
	c := m.Chat
	set, ok := c.Typing[channelID]
	if !ok {
		set = make(map[uint64]string)
		c.Typing[channelID] = set
	}
	if isTyping {
		name := "Unknown"
		if u, ok := c.Users[userID]; ok {
			name = u.Name
		}
		set[userID] = name
	} else {
		delete(set, userID)
	}
}

func (m *Machine) expireTyping() {
	c := m.Chat
	if !c.IsTyping {
		return
	}
	if time.Since(c.LastKeystroke) < TypingExpiry {
		return
	}
	if active, ok := c.ActiveChannel(); ok {
		m.Conn.SendTyping(false, active.Channel.ID)
	}
	c.IsTyping = false
}

func (m *Machine) reconnect(ctx context.Context) {
	c := m.Chat
	m.Conn.Disconnect()
	c.ConnStatus = netconn.Reconnecting

	resolved, err := netconn.Resolve(c.ServerAddr)
	if err != nil {
		return
	}
	if err := m.Conn.Connect(ctx, resolved, c.EnableTLS); err != nil {
		return
	}
	if err := m.Conn.SendLogin(c.Profile.Name, c.Profile.Password); err != nil {
		return
	}
	// ConnStatus moves to Connected only once the server's LoginAck
	// arrives (see the LoginSuccess case above), not just because the
	// write succeeded.
}

func (m *Machine) onFocusGained() {
	c := m.Chat
	c.LastFocusLost = nil
	if c.Profile.Status != wire.UserOnline {
		c.Profile.Status = wire.UserOnline
		m.Conn.SendStatus(wire.UserOnline)
	}
}

func (m *Machine) onIdleUser() {
	c := m.Chat
	c.LastFocusLost = nil
	c.Profile.Status = wire.UserIdle
	m.Conn.SendStatus(wire.UserIdle)
}

func (m *Machine) toggleReply(messageID uint64) {
	c := m.Chat
	if c.ReplyTarget != nil && *c.ReplyTarget == messageID {
		c.ReplyTarget = nil
		return
	}
	id := messageID
	c.ReplyTarget = &id
}
