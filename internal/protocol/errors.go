package protocol

import (
	"github.com/danmuck/quasselwire/internal/protocol/frame"
	"github.com/danmuck/quasselwire/internal/protocol/variant"
	"github.com/danmuck/quasselwire/internal/protocol/wire"
)

var (
	ErrTruncated              = wire.ErrTruncated
	ErrUnknownTypeTag         = variant.ErrUnknownTypeTag
	ErrUnknownUserType        = variant.ErrUnknownUserType
	ErrUnsupportedVariantKind = variant.ErrUnsupportedVariantKind
	ErrTooDeep                = variant.ErrTooDeep
	ErrMalformedString        = variant.ErrMalformedString
	ErrShortHeader            = frame.ErrShortHeader
	ErrPayloadTooLarge        = frame.ErrPayloadTooLarge
	ErrTrailingBytes          = frame.ErrTrailingBytes
)

type (
	UnknownTypeTagError  = variant.UnknownTypeTagError
	UnknownUserTypeError = variant.UnknownUserTypeError
	MalformedStringError = variant.MalformedStringError
)
