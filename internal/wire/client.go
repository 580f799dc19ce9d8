package wire

import "encoding/binary"

// Client packet type codes (low 7 bits; the direction bit is added by
// NewClientHeader / EncodeFrame).
const (
	TypeHealthcheck  byte = 0x00
	TypeLogin        byte = 0x01
	TypeSendMessage  byte = 0x02
	TypeSendMedia    byte = 0x03
	TypeChannelsList byte = 0x04
	TypeChannels     byte = 0x05
	TypeHistory      byte = 0x06
	TypeUserStatuses byte = 0x07
	TypeUsers        byte = 0x08
	TypeMedia        byte = 0x09
	TypeTyping       byte = 0x0A
	TypeStatus       byte = 0x0B
)

// HealthKind distinguishes a Ping from a Pong on the Healthcheck packet.
type HealthKind byte

const (
	HealthPing HealthKind = 0x00
	HealthPong HealthKind = 0x01
)

// EncodeFrame wraps a payload in a client-direction header and returns the
// full wire frame.
func EncodeFrame(typeCode byte, payload []byte) []byte {
	h := NewClientHeader(typeCode, len(payload))
	return append(h.Encode(), payload...)
}

// EncodeHealthcheck builds a Healthcheck frame (always a Pong in practice;
// the client never originates a Ping, only replies to one).
func EncodeHealthcheck(kind HealthKind) []byte {
	return EncodeFrame(TypeHealthcheck, []byte{byte(kind)})
}

// EncodeLogin builds a Login frame: username NUL-joined with password.
func EncodeLogin(username, password string) []byte {
	payload := make([]byte, 0, len(username)+1+len(password))
	payload = append(payload, username...)
	payload = append(payload, 0)
	payload = append(payload, password...)
	return EncodeFrame(TypeLogin, payload)
}

// EncodeSendMessage builds a SendMessage frame.
func EncodeSendMessage(channelID, replyID uint64, mediaIDs []uint64, text string) []byte {
	payload := make([]byte, 0, 8+8+1+len(mediaIDs)*8+len(text))
	payload = binary.BigEndian.AppendUint64(payload, channelID)
	payload = binary.BigEndian.AppendUint64(payload, replyID)
	payload = append(payload, byte(len(mediaIDs)))
	for _, id := range mediaIDs {
		payload = binary.BigEndian.AppendUint64(payload, id)
	}
	payload = append(payload, text...)
	return EncodeFrame(TypeSendMessage, payload)
}

// EncodeSendMedia builds a SendMedia frame.
func EncodeSendMedia(filename string, mediaType MediaType, data []byte) []byte {
	payload := make([]byte, 0, 4+len(filename)+1+4+len(data))
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(filename)))
	payload = append(payload, filename...)
	payload = append(payload, byte(mediaType))
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(data)))
	payload = append(payload, data...)
	return EncodeFrame(TypeSendMedia, payload)
}

// EncodeChannelsList builds an (empty) ChannelsList request frame.
func EncodeChannelsList() []byte { return EncodeFrame(TypeChannelsList, nil) }

// EncodeChannels builds a Channels request frame for the given channel ids.
func EncodeChannels(ids []uint64) []byte {
	payload := make([]byte, 0, 2+len(ids)*8)
	payload = binary.BigEndian.AppendUint16(payload, uint16(len(ids)))
	for _, id := range ids {
		payload = binary.BigEndian.AppendUint64(payload, id)
	}
	return EncodeFrame(TypeChannels, payload)
}

// EncodeHistory builds a History request frame.
func EncodeHistory(channelID uint64, anchor Anchor, numMessagesBack int8) []byte {
	payload := make([]byte, 0, 17)
	payload = binary.BigEndian.AppendUint64(payload, channelID)
	payload = append(payload, anchor.Encode()...)
	payload = append(payload, byte(numMessagesBack))
	return EncodeFrame(TypeHistory, payload)
}

// EncodeUserStatuses builds an (empty) UserStatuses request frame.
func EncodeUserStatuses() []byte { return EncodeFrame(TypeUserStatuses, nil) }

// EncodeUsers builds a Users request frame for the given user ids.
func EncodeUsers(ids []uint64) []byte {
	payload := make([]byte, 0, 1+len(ids)*8)
	payload = append(payload, byte(len(ids)))
	for _, id := range ids {
		payload = binary.BigEndian.AppendUint64(payload, id)
	}
	return EncodeFrame(TypeUsers, payload)
}

// EncodeMedia builds a Media request frame for a single media id.
func EncodeMedia(mediaID uint64) []byte {
	payload := binary.BigEndian.AppendUint64(nil, mediaID)
	return EncodeFrame(TypeMedia, payload)
}

// EncodeTyping builds a Typing frame.
func EncodeTyping(isTyping bool, channelID uint64) []byte {
	payload := make([]byte, 0, 9)
	if isTyping {
		payload = append(payload, 1)
	} else {
		payload = append(payload, 0)
	}
	payload = binary.BigEndian.AppendUint64(payload, channelID)
	return EncodeFrame(TypeTyping, payload)
}

// EncodeStatus builds a Status frame.
func EncodeStatus(status UserStatus) []byte {
	return EncodeFrame(TypeStatus, []byte{byte(status)})
}
