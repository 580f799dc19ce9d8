package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientHeaderRejectedByDecode(t *testing.T) {
	h := NewClientHeader(TypeLogin, 8)
	enc := h.Encode()
	require.Len(t, enc, HeaderSize)

	// The frame carries the client direction bit, so a client-side decode
	// (which only accepts server-originated frames) must reject it.
	_, err := DecodeHeader(enc)
	require.ErrorIs(t, err, ErrWrongDirection)
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	b := []byte{'X', 'H', 'T', 'G', Version, TypeLogin, 0, 0, 0, 0}
	_, err := DecodeHeader(b)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeHeaderUnknownVersion(t *testing.T) {
	b := []byte{'C', 'H', 'T', 'G', 0x02, TypeLogin, 0, 0, 0, 0}
	_, err := DecodeHeader(b)
	require.ErrorIs(t, err, ErrUnknownVersion)
}

func TestDecodeHeaderOversize(t *testing.T) {
	b := []byte{'C', 'H', 'T', 'G', Version, TypeLogin, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := DecodeHeader(b)
	require.ErrorIs(t, err, ErrOversizeFrame)
}

// LoginAck Success after a Login request.
func TestLoginHandshakeScenario(t *testing.T) {
	loginFrame := EncodeLogin("alice", "pw")
	require.Equal(t, []byte{'C', 'H', 'T', 'G', Version, TypeLogin | 0x80}, loginFrame[:6])

	ackBytes := []byte{'C', 'H', 'T', 'G', 0x01, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00}
	h, err := DecodeHeader(ackBytes[:HeaderSize])
	require.NoError(t, err)
	require.Equal(t, TypeLogin, h.TypeCode())

	payload, err := DecodePayload(h, ackBytes[HeaderSize:])
	require.NoError(t, err)
	ack, ok := payload.(LoginAck)
	require.True(t, ok)
	require.Equal(t, StatusSuccess, ack.Status)
	require.Empty(t, ack.Error)

	listFrame := EncodeChannelsList()
	require.Equal(t, []byte{'C', 'H', 'T', 'G', Version, TypeChannelsList | 0x80, 0x00, 0x00, 0x00, 0x00}, listFrame)
}

// Send -> Ack with the server-assigned id.
func TestSendMessageAckScenario(t *testing.T) {
	frame := EncodeSendMessage(7, 0, nil, "hi")
	require.Equal(t, uint64(7), bigEndianUint64(frame[HeaderSize:HeaderSize+8]))

	ackPayload := append([]byte{byte(StatusSuccess)}, bigEndianBytes(42)...)
	h := Header{Version: Version, Type: TypeSendMessage, Length: uint32(len(ackPayload))}
	decoded, err := DecodePayload(h, ackPayload)
	require.NoError(t, err)
	ack := decoded.(SendMessageAck)
	require.Equal(t, StatusSuccess, ack.Status)
	require.Equal(t, uint64(42), ack.MessageID)
}

func TestAnchorRoundTrip(t *testing.T) {
	ts := AnchorFromTimestamp(1700000000)
	got, err := decodeAnchor(ts.Encode())
	require.NoError(t, err)
	require.Equal(t, ts, got)

	id := AnchorFromMessageID(123456)
	got, err = decodeAnchor(id.Encode())
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestChannelsAckRoundTrip(t *testing.T) {
	payload := []byte{byte(StatusSuccess), 0x00, 0x01}
	payload = append(payload, bigEndianBytes(5)...)
	payload = append(payload, byte(len("General")))
	payload = append(payload, "General"...)
	payload = append(payload, bigEndianBytes(0)...)

	h := Header{Version: Version, Type: TypeChannels}
	decoded, err := DecodePayload(h, payload)
	require.NoError(t, err)
	ack := decoded.(ChannelsAck)
	require.Len(t, ack.Channels, 1)
	require.Equal(t, Channel{ID: 5, Name: "General", IconID: 0}, ack.Channels[0])
}

func TestHistoryNotificationTreatedLikeSuccess(t *testing.T) {
	payload := []byte{byte(StatusNotification), 0x00}
	h := Header{Version: Version, Type: TypeHistory}
	decoded, err := DecodePayload(h, payload)
	require.NoError(t, err)
	ack := decoded.(HistoryAck)
	require.Equal(t, StatusNotification, ack.Status)
	require.Empty(t, ack.Messages)
}

func TestDecodeOversizeFrameRejected(t *testing.T) {
	_, err := DecodeHeader([]byte{'C', 'H', 'T', 'G', Version, 0x00, 0xFF, 0xFF, 0xFF, 0xFF})
	require.ErrorIs(t, err, ErrOversizeFrame)
}

func bigEndianUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func bigEndianBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
