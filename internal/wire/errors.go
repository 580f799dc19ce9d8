package wire

import "errors"

// Codec failure modes. Every decode path that can fail
// returns one of these, wrapped with additional context via fmt.Errorf.
var (
	ErrShortFrame     = errors.New("wire: short frame")
	ErrBadMagic       = errors.New("wire: bad magic")
	ErrUnknownVersion = errors.New("wire: unknown version")
	ErrUnknownType    = errors.New("wire: unknown packet type")
	ErrBadStatus      = errors.New("wire: bad return status")
	ErrBadUserStatus  = errors.New("wire: bad user status")
	ErrBadMediaType   = errors.New("wire: bad media type")
	ErrUTF8           = errors.New("wire: invalid utf8")
	ErrOversizeFrame  = errors.New("wire: oversize frame")
	ErrWrongDirection = errors.New("wire: wrong packet direction")
)
