// Package wire implements the chatger binary wire protocol: frame
// header encoding/decoding and the client/server payload codecs.
package wire

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of a frame header in bytes.
const HeaderSize = 10

// MaxFrame is the largest frame (header+payload) the codec will accept.
const MaxFrame = 16 * 1024

// MaxPayload is the largest payload a single frame may carry.
const MaxPayload = MaxFrame - HeaderSize

// Version is the only wire protocol version this codec understands.
const Version = 0x01

var magic = [4]byte{'C', 'H', 'T', 'G'}

// directionClient is the high bit of the packet-type byte: set on frames
// the client sends, clear on frames the server sends.
const directionClient = 0x80

// Header is the fixed 10-byte frame prefix.
type Header struct {
	Version byte
	Type    byte // includes the direction bit
	Length  uint32
}

// FromServer reports whether this header's type code was sent by the server.
func (h Header) FromServer() bool { return h.Type&directionClient == 0 }

// FromClient reports whether this header's type code marks a client-originated packet.
func (h Header) FromClient() bool { return h.Type&directionClient != 0 }

// TypeCode returns the 7-bit type code with the direction bit stripped.
func (h Header) TypeCode() byte { return h.Type &^ directionClient }

// Encode serializes the header to its 10-byte wire form.
func (h Header) Encode() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], magic[:])
	b[4] = h.Version
	b[5] = h.Type
	binary.BigEndian.PutUint32(b[6:10], h.Length)
	return b
}

// DecodeHeader parses a 10-byte buffer into a Header. It is the client-side
// decode path, so it expects server-originated frames and rejects a header
// whose direction bit marks a client-originated packet via ErrWrongDirection.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, fmt.Errorf("decode header: %w", ErrShortFrame)
	}
	if b[0] != magic[0] || b[1] != magic[1] || b[2] != magic[2] || b[3] != magic[3] {
		return Header{}, fmt.Errorf("decode header: %w", ErrBadMagic)
	}
	h := Header{
		Version: b[4],
		Type:    b[5],
		Length:  binary.BigEndian.Uint32(b[6:10]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("decode header: %w: %d", ErrUnknownVersion, h.Version)
	}
	if h.Length > MaxPayload {
		return Header{}, fmt.Errorf("decode header: %w: %d", ErrOversizeFrame, h.Length)
	}
	// A client receives only server-originated frames; anything with the
	// client direction bit set reached us over a connection that should
	// never echo our own packets back.
	if h.FromClient() {
		return Header{}, fmt.Errorf("decode header: %w", ErrWrongDirection)
	}
	return h, nil
}

// NewClientHeader builds a header for an outbound client packet.
func NewClientHeader(typeCode byte, length int) Header {
	return Header{Version: Version, Type: typeCode | directionClient, Length: uint32(length)}
}
