package wire

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// ReturnStatus is the 1-byte status prefix on server reply frames.
type ReturnStatus byte

const (
	StatusSuccess      ReturnStatus = 0x00
	StatusFailed       ReturnStatus = 0x01
	StatusNotification ReturnStatus = 0x02
)

// decodeStatus parses a status byte. allowNotification must be true only for
// History replies.
func decodeStatus(b byte, allowNotification bool) (ReturnStatus, error) {
	switch ReturnStatus(b) {
	case StatusSuccess, StatusFailed:
		return ReturnStatus(b), nil
	case StatusNotification:
		if !allowNotification {
			return 0, fmt.Errorf("decode status: %w: Notification not legal here", ErrBadStatus)
		}
		return StatusNotification, nil
	default:
		return 0, fmt.Errorf("decode status: %w: 0x%02x", ErrBadStatus, b)
	}
}

// UserStatus is the 1-byte online/offline/idle/DND status.
type UserStatus byte

const (
	UserOffline     UserStatus = 0x00
	UserOnline      UserStatus = 0x01
	UserIdle        UserStatus = 0x02
	UserDoNotDisturb UserStatus = 0x03
)

func decodeUserStatus(b byte) (UserStatus, error) {
	switch UserStatus(b) {
	case UserOffline, UserOnline, UserIdle, UserDoNotDisturb:
		return UserStatus(b), nil
	default:
		return 0, fmt.Errorf("decode user status: %w: 0x%02x", ErrBadUserStatus, b)
	}
}

// MediaType is the 1-byte kind of a media attachment.
type MediaType byte

const (
	MediaRaw   MediaType = 0x00
	MediaText  MediaType = 0x01
	MediaAudio MediaType = 0x02
	MediaImage MediaType = 0x03
	MediaVideo MediaType = 0x04
)

func decodeMediaType(b byte) (MediaType, error) {
	switch MediaType(b) {
	case MediaRaw, MediaText, MediaAudio, MediaImage, MediaVideo:
		return MediaType(b), nil
	default:
		return 0, fmt.Errorf("decode media type: %w: 0x%02x", ErrBadMediaType, b)
	}
}

// Anchor selects the origin of a history query: either a Unix-seconds
// timestamp or a message id, distinguished by the top bit of an 8-byte value.
type Anchor struct {
	IsMessageID bool
	Value       uint64 // 63-bit value; top bit of the wire form carries IsMessageID
}

const anchorMSB = uint64(1) << 63

// AnchorFromTimestamp builds a timestamp-origin anchor.
func AnchorFromTimestamp(ts uint64) Anchor { return Anchor{IsMessageID: false, Value: ts &^ anchorMSB} }

// AnchorFromMessageID builds a message-id-origin anchor.
func AnchorFromMessageID(id uint64) Anchor { return Anchor{IsMessageID: true, Value: id &^ anchorMSB} }

// Encode serializes the anchor to its 8-byte wire form.
func (a Anchor) Encode() []byte {
	v := a.Value &^ anchorMSB
	if a.IsMessageID {
		v |= anchorMSB
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// decodeUTF8 validates that b is well-formed UTF-8 before it becomes a Go
// string; the server is untrusted input, so a malformed byte sequence fails
// the frame instead of being silently reinterpreted.
func decodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrUTF8
	}
	return string(b), nil
}

func decodeAnchor(b []byte) (Anchor, error) {
	if len(b) < 8 {
		return Anchor{}, fmt.Errorf("decode anchor: %w", ErrShortFrame)
	}
	v := binary.BigEndian.Uint64(b[:8])
	return Anchor{IsMessageID: v&anchorMSB != 0, Value: v &^ anchorMSB}, nil
}

// Channel describes a chat channel as sent by the server.
type Channel struct {
	ID     uint64
	Name   string
	IconID uint64
}

func decodeChannel(b []byte) (Channel, int, error) {
	if len(b) < 8 {
		return Channel{}, 0, fmt.Errorf("decode channel: %w", ErrShortFrame)
	}
	id := binary.BigEndian.Uint64(b[:8])
	off := 8
	if off >= len(b) {
		return Channel{}, 0, fmt.Errorf("decode channel: %w", ErrShortFrame)
	}
	nameLen := int(b[off])
	off++
	if off+nameLen+8 > len(b) {
		return Channel{}, 0, fmt.Errorf("decode channel: %w", ErrShortFrame)
	}
	name, err := decodeUTF8(b[off : off+nameLen])
	if err != nil {
		return Channel{}, 0, fmt.Errorf("decode channel: %w", err)
	}
	off += nameLen
	iconID := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	return Channel{ID: id, Name: name, IconID: iconID}, off, nil
}

// UserData describes a user as sent by the server.
type UserData struct {
	UserID        uint64
	Status        UserStatus
	Username      string
	ProfilePicID  uint64
	Bio           string
}

func decodeUserData(b []byte) (UserData, int, error) {
	if len(b) < 9 {
		return UserData{}, 0, fmt.Errorf("decode user: %w", ErrShortFrame)
	}
	id := binary.BigEndian.Uint64(b[:8])
	status, err := decodeUserStatus(b[8])
	if err != nil {
		return UserData{}, 0, err
	}
	off := 9
	if off >= len(b) {
		return UserData{}, 0, fmt.Errorf("decode user: %w", ErrShortFrame)
	}
	nameLen := int(b[off])
	off++
	if off+nameLen+8+2 > len(b) {
		return UserData{}, 0, fmt.Errorf("decode user: %w", ErrShortFrame)
	}
	name, err := decodeUTF8(b[off : off+nameLen])
	if err != nil {
		return UserData{}, 0, fmt.Errorf("decode user: %w", err)
	}
	off += nameLen
	picID := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	bioLen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if off+bioLen > len(b) {
		return UserData{}, 0, fmt.Errorf("decode user: %w", ErrShortFrame)
	}
	bio, err := decodeUTF8(b[off : off+bioLen])
	if err != nil {
		return UserData{}, 0, fmt.Errorf("decode user: %w", err)
	}
	off += bioLen
	return UserData{UserID: id, Status: status, Username: name, ProfilePicID: picID, Bio: bio}, off, nil
}

// HistoryMessage is a single message as returned by a History reply.
type HistoryMessage struct {
	MessageID   uint64
	SentTSSecs  uint64
	UserID      uint64
	ChannelID   uint64
	ReplyID     uint64
	MessageText string
	MediaIDs    []uint64
}

func decodeHistoryMessage(b []byte) (HistoryMessage, int, error) {
	const fixed = 8 + 8 + 8 + 8 + 8 + 2 + 1
	if len(b) < fixed {
		return HistoryMessage{}, 0, fmt.Errorf("decode history message: %w", ErrShortFrame)
	}
	off := 0
	msgID := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	ts := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	userID := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	chanID := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	replyID := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	textLen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if off+textLen+1 > len(b) {
		return HistoryMessage{}, 0, fmt.Errorf("decode history message: %w", ErrShortFrame)
	}
	text, err := decodeUTF8(b[off : off+textLen])
	if err != nil {
		return HistoryMessage{}, 0, fmt.Errorf("decode history message: %w", err)
	}
	off += textLen
	numMedia := int(b[off])
	off++
	if off+numMedia*8 > len(b) {
		return HistoryMessage{}, 0, fmt.Errorf("decode history message: %w", ErrShortFrame)
	}
	mediaIDs := make([]uint64, numMedia)
	for i := 0; i < numMedia; i++ {
		mediaIDs[i] = binary.BigEndian.Uint64(b[off : off+8])
		off += 8
	}
	return HistoryMessage{
		MessageID: msgID, SentTSSecs: ts, UserID: userID, ChannelID: chanID,
		ReplyID: replyID, MessageText: text, MediaIDs: mediaIDs,
	}, off, nil
}

// decodeErrorString reads a NUL-terminated string from the tail of b,
// present only when status == StatusFailed.
func decodeErrorString(b []byte) (string, error) {
	for i, c := range b {
		if c == 0 {
			return decodeUTF8(b[:i])
		}
	}
	return decodeUTF8(b)
}
