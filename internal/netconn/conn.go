// Package netconn implements the connection manager, the
// receiver task, and the connection state machine.
package netconn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/wire"
)

// Status is the connection state machine's current state.
type Status int

const (
	Disconnected Status = iota
	Connected
	Unhealthy
	Reconnecting
)

var (
	ErrAlreadyConnected = errors.New("netconn: already connected")
	ErrNotConnected     = errors.New("netconn: not connected")
	ErrTLSRequiresDomain = errors.New("netconn: tls requires a domain, not a literal ip")
)

// Conn manages the single TCP/TLS connection to the chatger server. The
// write half is held exclusively by callers of the Send* methods; the read
// half is owned exclusively by the receiver goroutine, so neither side
// needs to lock the net.Conn itself.
type Conn struct {
	bus *events.Bus

	mu      sync.Mutex // guards conn, status, recvCancel
	conn    net.Conn
	status  Status
	recvCancel context.CancelFunc

	// InteractedTimestamp counters: unix milliseconds,
	// single-writer in practice (receiver writes lastTransmitMs on every
	// decoded frame; the main loop writes both), read from both sides.
	lastTransmitMs   atomic.Int64
	lastReconnectMs  atomic.Int64

	// reconnectGate enforces the 5s minimum interval between reconnect
	// attempts, regardless of status.
	reconnectGate *rate.Limiter
}

// New builds a Conn that publishes decoded frames and lifecycle events onto bus.
func New(bus *events.Bus) *Conn {
	return &Conn{
		bus:           bus,
		status:        Disconnected,
		reconnectGate: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

// Status returns the current connection state.
func (c *Conn) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Conn) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// LastTransmitElapsed returns the time since the last frame was sent or received.
func (c *Conn) LastTransmitElapsed() time.Duration {
	last := c.lastTransmitMs.Load()
	if last == 0 {
		return 0
	}
	return time.Since(time.UnixMilli(last))
}

// LastReconnectElapsed returns the time since the last reconnect attempt.
func (c *Conn) LastReconnectElapsed() time.Duration {
	last := c.lastReconnectMs.Load()
	if last == 0 {
		return time.Hour // never attempted: treat as long elapsed
	}
	return time.Since(time.UnixMilli(last))
}

func (c *Conn) touchTransmit() {
	c.lastTransmitMs.Store(time.Now().UnixMilli())
}

// ReconnectAllowed reports whether the 5s back-off gate admits another
// attempt, consuming the gate's token when it does. The tick driver calls
// it last in its reconnect condition, so a token is only spent on a tick
// that goes on to fire Reconnect.
func (c *Conn) ReconnectAllowed() bool {
	return c.reconnectGate.Allow()
}

// MarkReconnectAttempt stamps the last-reconnect-attempt timestamp.
func (c *Conn) MarkReconnectAttempt() {
	c.lastReconnectMs.Store(time.Now().UnixMilli())
}

// Connect dials the server, optionally over TLS, and starts the receiver task.
func (c *Conn) Connect(ctx context.Context, addr ResolvedAddr, useTLS bool) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	if useTLS && addr.Domain == "" {
		return ErrTLSRequiresDomain
	}

	var nc net.Conn
	var err error
	if useTLS {
		dialer := &net.Dialer{}
		nc, err = tls.DialWithDialer(dialer, "tcp", addr.Addr, &tls.Config{ServerName: addr.Domain})
	} else {
		var d net.Dialer
		nc, err = d.DialContext(ctx, "tcp", addr.Addr)
	}
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	recvCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = nc
	c.status = Connected
	c.recvCancel = cancel
	c.mu.Unlock()
	c.touchTransmit()

	go c.receiveLoop(recvCtx, nc)
	return nil
}

// Disconnect drops the writer and aborts the receiver task. Idempotent.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	nc := c.conn
	cancel := c.recvCancel
	c.conn = nil
	c.recvCancel = nil
	c.status = Disconnected
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if nc != nil {
		return nc.Close()
	}
	return nil
}

// send writes a complete frame to the writer half, updating the
// last-transmit timestamp. Fails with ErrNotConnected if no writer exists.
func (c *Conn) send(frame []byte) error {
	c.mu.Lock()
	nc := c.conn
	c.mu.Unlock()
	if nc == nil {
		return ErrNotConnected
	}
	if _, err := nc.Write(frame); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	c.touchTransmit()
	return nil
}

func (c *Conn) SendLogin(username, password string) error {
	return c.send(wire.EncodeLogin(username, password))
}
func (c *Conn) SendStatus(status wire.UserStatus) error { return c.send(wire.EncodeStatus(status)) }
func (c *Conn) SendChannelsList() error                  { return c.send(wire.EncodeChannelsList()) }
func (c *Conn) SendChannels(ids []uint64) error           { return c.send(wire.EncodeChannels(ids)) }
func (c *Conn) SendUserStatuses() error                  { return c.send(wire.EncodeUserStatuses()) }
func (c *Conn) SendUsers(ids []uint64) error              { return c.send(wire.EncodeUsers(ids)) }
func (c *Conn) SendHistory(channelID uint64, anchor wire.Anchor, numBack int8) error {
	return c.send(wire.EncodeHistory(channelID, anchor, numBack))
}
func (c *Conn) SendMessage(channelID, replyID uint64, mediaIDs []uint64, text string) error {
	return c.send(wire.EncodeSendMessage(channelID, replyID, mediaIDs, text))
}
func (c *Conn) SendMedia(filename string, mt wire.MediaType, data []byte) error {
	return c.send(wire.EncodeSendMedia(filename, mt, data))
}
func (c *Conn) SendMediaRequest(mediaID uint64) error { return c.send(wire.EncodeMedia(mediaID)) }
func (c *Conn) SendTyping(isTyping bool, channelID uint64) error {
	return c.send(wire.EncodeTyping(isTyping, channelID))
}
func (c *Conn) SendHealthcheckPong() error {
	return c.send(wire.EncodeHealthcheck(wire.HealthPong))
}

// receiveLoop is the receiver task. Its only local state is
// the two stack buffers below, so an abort via ctx cancellation (from
// Disconnect) mid-read leaks nothing.
func (c *Conn) receiveLoop(ctx context.Context, nc net.Conn) {
	headerBuf := make([]byte, wire.HeaderSize)
	payloadBuf := make([]byte, wire.MaxPayload)

	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := io.ReadFull(nc, headerBuf); err != nil {
			c.onReceiveError(ctx, err)
			return
		}
		h, err := wire.DecodeHeader(headerBuf)
		if err != nil {
			c.onReceiveError(ctx, err)
			return
		}
		payload := payloadBuf[:h.Length]
		if _, err := io.ReadFull(nc, payload); err != nil {
			c.onReceiveError(ctx, err)
			return
		}
		decoded, err := wire.DecodePayload(h, payload)
		if err != nil {
			c.onReceiveError(ctx, err)
			return
		}
		c.touchTransmit()
		c.publish(ctx, decoded)
	}
}

func (c *Conn) onReceiveError(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return // aborted by Disconnect; not a protocol failure
	}
	e := events.New(events.Disconnected)
	e.Str = err.Error()
	_ = c.bus.Send(ctx, e)
}

// publish translates a decoded server payload into a bus event. Pong
// received by the client is a protocol error. Sends block briefly under
// back-pressure rather than drop acks or chat history — a dropped
// MessageSendAck or HistoryUpdate here is not re-evaluated by anything
// later, unlike the tick driver's TrySend events.
func (c *Conn) publish(ctx context.Context, decoded any) {
	switch v := decoded.(type) {
	case wire.HealthcheckPacket:
		if v.Kind == wire.HealthPong {
			c.onReceiveError(ctx, fmt.Errorf("protocol error: pong received by client"))
			return
		}
		_ = c.bus.Send(ctx, events.New(events.HealthCheckRecv))
	case wire.LoginAck:
		if v.Status == wire.StatusSuccess {
			_ = c.bus.Send(ctx, events.New(events.LoginSuccess))
		} else {
			e := events.New(events.LoginFail)
			e.LoginResult = events.LoginResultPayload{Reason: v.Error}
			_ = c.bus.Send(ctx, e)
		}
	case wire.SendMessageAck:
		e := events.New(events.MessageSendAck)
		e.UserID = v.MessageID
		_ = c.bus.Send(ctx, e)
	case wire.SendMediaAck:
		e := events.New(events.MessageMediaAck)
		e.MediaAck = wire.MediaAck{Status: v.Status, Error: v.Error}
		e.UserID = v.MediaID
		_ = c.bus.Send(ctx, e)
	case wire.ChannelListAck:
		e := events.New(events.ChannelIDs)
		e.ChannelIDs = v.IDs
		_ = c.bus.Send(ctx, e)
	case wire.ChannelsAck:
		e := events.New(events.Channels)
		e.Channels = v.Channels
		_ = c.bus.Send(ctx, e)
	case wire.HistoryAck:
		e := events.New(events.HistoryUpdate)
		e.History = v.Messages
		e.ChanID = historyChannelID(v.Messages)
		_ = c.bus.Send(ctx, e)
	case wire.UserStatusesAck:
		e := events.New(events.UserStatusesUpdate)
		e.UserStatuses = v.Pairs
		_ = c.bus.Send(ctx, e)
	case wire.UsersAck:
		e := events.New(events.Users)
		e.Users = v.Users
		_ = c.bus.Send(ctx, e)
	case wire.MediaAck:
		e := events.New(events.Media)
		e.MediaAck = v
		_ = c.bus.Send(ctx, e)
	case wire.TypingNotice:
		e := events.New(events.Typing)
		e.ChanID = v.ChannelID
		e.UserID = v.UserID
		e.Bool = v.IsTyping
		_ = c.bus.Send(ctx, e)
	case wire.UserStatusNotice:
		e := events.New(events.UserStatusUpdate)
		e.UserID = v.UserID
		e.Status = v.Status
		_ = c.bus.Send(ctx, e)
	}
}

// historyChannelID returns the channel id the batch belongs to, or 0 if empty.
func historyChannelID(msgs []wire.HistoryMessage) uint64 {
	if len(msgs) == 0 {
		return 0
	}
	return msgs[0].ChannelID
}
