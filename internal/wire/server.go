package wire

import (
	"encoding/binary"
	"fmt"
)

// Server reply payloads. Type codes are the same low-7-bit values as the
// client request codes (see client.go); the header's direction bit is what
// disambiguates request vs reply semantics for a given code, and
// DecodePayload below only decodes the reply side.

// HealthcheckPacket carries a liveness probe in either direction.
type HealthcheckPacket struct {
	Kind HealthKind
}

// LoginAck replies to a client Login request.
type LoginAck struct {
	Status ReturnStatus
	Error  string
}

// SendMessageAck replies to a client SendMessage request.
type SendMessageAck struct {
	Status    ReturnStatus
	MessageID uint64
	Error     string
}

// SendMediaAck replies to a client SendMedia request.
type SendMediaAck struct {
	Status  ReturnStatus
	MediaID uint64
	Error   string
}

// ChannelListAck replies to a client ChannelsList request with bare ids.
type ChannelListAck struct {
	Status ReturnStatus
	IDs    []uint64
	Error  string
}

// ChannelsAck replies to a client Channels request with full channel objects.
type ChannelsAck struct {
	Status   ReturnStatus
	Channels []Channel
	Error    string
}

// HistoryAck replies to a client History request.
type HistoryAck struct {
	Status   ReturnStatus
	Messages []HistoryMessage
	Error    string
}

// UserStatusesAck replies to a client UserStatuses request.
type UserStatusesAck struct {
	Status ReturnStatus
	Pairs  []UserStatusPair
	Error  string
}

// UserStatusPair is one (user id, status) tuple in a UserStatusesAck.
type UserStatusPair struct {
	UserID uint64
	Status UserStatus
}

// UsersAck replies to a client Users request.
type UsersAck struct {
	Status ReturnStatus
	Users  []UserData
	Error  string
}

// MediaAck replies to a client Media request.
type MediaAck struct {
	Status    ReturnStatus
	Filename  string
	MediaType MediaType
	Data      []byte
	Error     string
}

// TypingNotice is an unsolicited server push reporting a peer's typing state.
type TypingNotice struct {
	IsTyping  bool
	UserID    uint64
	ChannelID uint64
}

// UserStatusNotice is an unsolicited server push reporting a peer's status change.
type UserStatusNotice struct {
	Status UserStatus
	UserID uint64
}

// DecodePayload dispatches on the header's type code and decodes the
// server-originated payload, returning one of the *Ack / *Notice /
// HealthcheckPacket types above as an any. Callers type-switch on the
// result.
func DecodePayload(h Header, payload []byte) (any, error) {
	switch h.TypeCode() {
	case TypeHealthcheck:
		if len(payload) < 1 {
			return nil, fmt.Errorf("decode healthcheck: %w", ErrShortFrame)
		}
		kind := HealthKind(payload[0])
		if kind != HealthPing && kind != HealthPong {
			return nil, fmt.Errorf("decode healthcheck: %w: 0x%02x", ErrUnknownType, payload[0])
		}
		return HealthcheckPacket{Kind: kind}, nil

	case TypeLogin:
		status, errStr, err := decodeStatusAndTail(payload, false)
		if err != nil {
			return nil, fmt.Errorf("decode login ack: %w", err)
		}
		return LoginAck{Status: status, Error: errStr}, nil

	case TypeSendMessage:
		if len(payload) < 9 {
			return nil, fmt.Errorf("decode send message ack: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], false)
		if err != nil {
			return nil, fmt.Errorf("decode send message ack: %w", err)
		}
		id := binary.BigEndian.Uint64(payload[1:9])
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[9:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return SendMessageAck{Status: status, MessageID: id, Error: errStr}, nil

	case TypeSendMedia:
		if len(payload) < 9 {
			return nil, fmt.Errorf("decode send media ack: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], false)
		if err != nil {
			return nil, fmt.Errorf("decode send media ack: %w", err)
		}
		id := binary.BigEndian.Uint64(payload[1:9])
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[9:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return SendMediaAck{Status: status, MediaID: id, Error: errStr}, nil

	case TypeChannelsList:
		if len(payload) < 3 {
			return nil, fmt.Errorf("decode channel list: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], false)
		if err != nil {
			return nil, fmt.Errorf("decode channel list: %w", err)
		}
		count := int(binary.BigEndian.Uint16(payload[1:3]))
		off := 3
		ids := make([]uint64, count)
		for i := 0; i < count; i++ {
			if off+8 > len(payload) {
				return nil, fmt.Errorf("decode channel list: %w", ErrShortFrame)
			}
			ids[i] = binary.BigEndian.Uint64(payload[off : off+8])
			off += 8
		}
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return ChannelListAck{Status: status, IDs: ids, Error: errStr}, nil

	case TypeChannels:
		if len(payload) < 3 {
			return nil, fmt.Errorf("decode channels: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], false)
		if err != nil {
			return nil, fmt.Errorf("decode channels: %w", err)
		}
		count := int(binary.BigEndian.Uint16(payload[1:3]))
		off := 3
		chans := make([]Channel, count)
		for i := 0; i < count; i++ {
			ch, n, err := decodeChannel(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode channels: %w", err)
			}
			chans[i] = ch
			off += n
		}
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return ChannelsAck{Status: status, Channels: chans, Error: errStr}, nil

	case TypeHistory:
		if len(payload) < 2 {
			return nil, fmt.Errorf("decode history: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], true)
		if err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		count := int(payload[1])
		off := 2
		msgs := make([]HistoryMessage, count)
		for i := 0; i < count; i++ {
			m, n, err := decodeHistoryMessage(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode history: %w", err)
			}
			msgs[i] = m
			off += n
		}
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return HistoryAck{Status: status, Messages: msgs, Error: errStr}, nil

	case TypeUserStatuses:
		if len(payload) < 3 {
			return nil, fmt.Errorf("decode user statuses: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], false)
		if err != nil {
			return nil, fmt.Errorf("decode user statuses: %w", err)
		}
		count := int(binary.BigEndian.Uint16(payload[1:3]))
		off := 3
		pairs := make([]UserStatusPair, count)
		for i := 0; i < count; i++ {
			if off+9 > len(payload) {
				return nil, fmt.Errorf("decode user statuses: %w", ErrShortFrame)
			}
			id := binary.BigEndian.Uint64(payload[off : off+8])
			us, err := decodeUserStatus(payload[off+8])
			if err != nil {
				return nil, fmt.Errorf("decode user statuses: %w", err)
			}
			pairs[i] = UserStatusPair{UserID: id, Status: us}
			off += 9
		}
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return UserStatusesAck{Status: status, Pairs: pairs, Error: errStr}, nil

	case TypeUsers:
		if len(payload) < 2 {
			return nil, fmt.Errorf("decode users: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], false)
		if err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
		count := int(payload[1])
		off := 2
		users := make([]UserData, count)
		for i := 0; i < count; i++ {
			u, n, err := decodeUserData(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode users: %w", err)
			}
			users[i] = u
			off += n
		}
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return UsersAck{Status: status, Users: users, Error: errStr}, nil

	case TypeMedia:
		if len(payload) < 2 {
			return nil, fmt.Errorf("decode media: %w", ErrShortFrame)
		}
		status, err := decodeStatus(payload[0], false)
		if err != nil {
			return nil, fmt.Errorf("decode media: %w", err)
		}
		off := 1
		nameLen := int(payload[off])
		off++
		if off+nameLen+1+4 > len(payload) {
			return nil, fmt.Errorf("decode media: %w", ErrShortFrame)
		}
		name, err := decodeUTF8(payload[off : off+nameLen])
		if err != nil {
			return nil, fmt.Errorf("decode media: %w", err)
		}
		off += nameLen
		mt, err := decodeMediaType(payload[off])
		if err != nil {
			return nil, fmt.Errorf("decode media: %w", err)
		}
		off++
		dataLen := int(binary.BigEndian.Uint32(payload[off : off+4]))
		off += 4
		if off+dataLen > len(payload) {
			return nil, fmt.Errorf("decode media: %w", ErrShortFrame)
		}
		data := payload[off : off+dataLen]
		off += dataLen
		errStr := ""
		if status == StatusFailed {
			var err error
			errStr, err = decodeErrorString(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("decode error string: %w", err)
			}
		}
		return MediaAck{Status: status, Filename: name, MediaType: mt, Data: data, Error: errStr}, nil

	case TypeTyping:
		if len(payload) != 17 {
			return nil, fmt.Errorf("decode typing: %w", ErrShortFrame)
		}
		isTyping := payload[0] != 0
		userID := binary.BigEndian.Uint64(payload[1:9])
		channelID := binary.BigEndian.Uint64(payload[9:17])
		return TypingNotice{IsTyping: isTyping, UserID: userID, ChannelID: channelID}, nil

	case TypeStatus:
		if len(payload) != 9 {
			return nil, fmt.Errorf("decode user status: %w", ErrShortFrame)
		}
		status, err := decodeUserStatus(payload[0])
		if err != nil {
			return nil, fmt.Errorf("decode user status: %w", err)
		}
		userID := binary.BigEndian.Uint64(payload[1:9])
		return UserStatusNotice{Status: status, UserID: userID}, nil

	default:
		return nil, fmt.Errorf("decode payload: %w: 0x%02x", ErrUnknownType, h.Type)
	}
}

func decodeStatusAndTail(payload []byte, allowNotification bool) (ReturnStatus, string, error) {
	if len(payload) < 1 {
		return 0, "", ErrShortFrame
	}
	status, err := decodeStatus(payload[0], allowNotification)
	if err != nil {
		return 0, "", err
	}
	errStr := ""
	if status == StatusFailed {
		var err error
		errStr, err = decodeErrorString(payload[1:])
		if err != nil {
			return 0, "", fmt.Errorf("decode error string: %w", err)
		}
	}
	return status, errStr, nil
}
