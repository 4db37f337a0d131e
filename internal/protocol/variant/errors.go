package variant

import (
	"errors"
	"fmt"

	"github.com/danmuck/quasselwire/internal/protocol/wire"
)

var (
	ErrTruncated              = wire.ErrTruncated
	ErrUnknownTypeTag         = errors.New("variant: unknown type tag")
	ErrUnknownUserType        = errors.New("variant: unknown user type")
	ErrUnsupportedVariantKind = errors.New("variant: unsupported variant kind")
	ErrTooDeep                = errors.New("variant: nesting too deep")
	ErrMalformedString        = errors.New("variant: malformed string")
)

// UnknownTypeTagError reports a type id outside the catalog.
type UnknownTypeTagError struct {
	Tag uint32
}

func (e UnknownTypeTagError) Error() string {
	return fmt.Sprintf("variant: unknown type tag %d", e.Tag)
}

func (e UnknownTypeTagError) Unwrap() error { return ErrUnknownTypeTag }

// UnknownUserTypeError reports a user type name missing from the registry.
type UnknownUserTypeError struct {
	Name string
}

func (e UnknownUserTypeError) Error() string {
	return fmt.Sprintf("variant: unknown user type %q", e.Name)
}

func (e UnknownUserTypeError) Unwrap() error { return ErrUnknownUserType }

// MalformedStringError reports text that cannot be transcoded between UTF-8
// and UTF-16 without loss. Offset is relative to the string payload.
type MalformedStringError struct {
	Offset int
	Reason string
}

func (e MalformedStringError) Error() string {
	return fmt.Sprintf("variant: malformed string at byte %d: %s", e.Offset, e.Reason)
}

func (e MalformedStringError) Unwrap() error { return ErrMalformedString }

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedVariantKind, fmt.Sprintf(format, args...))
}
