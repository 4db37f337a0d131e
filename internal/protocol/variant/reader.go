package variant

import (
	"bytes"
	"fmt"

	"github.com/danmuck/quasselwire/internal/protocol/wire"
)

// Smallest possible encodings, used to reject counts the remaining input
// cannot hold before anything is allocated.
const (
	minVariantSize  = 4 + 1
	minMapEntrySize = 4 + minVariantSize
	minStringSize   = 4
)

// Limits bounds decoder resource use on untrusted input.
type Limits struct {
	MaxDepth int
}

func DefaultLimits() Limits {
	return Limits{MaxDepth: 64}
}

// Reader decodes variants from a caller-owned buffer. A Reader is used by
// one goroutine at a time; the Registry it consults may be shared.
type Reader struct {
	in       *wire.Reader
	registry *Registry
	limits   Limits
	depth    int
}

func NewReader(b []byte, registry *Registry, limits Limits) *Reader {
	return &Reader{in: wire.NewReader(b), registry: registry, limits: limits}
}

// Remaining reports the number of unread bytes.
func (r *Reader) Remaining() int {
	return r.in.Remaining()
}

// Offset reports the cursor position from the start of the buffer.
func (r *Reader) Offset() int {
	return r.in.Offset()
}

// ReadVariant reads one header and its payload. On error the cursor is left
// where it was before the call.
func (r *Reader) ReadVariant() (Value, error) {
	start := r.in.Offset()
	v, err := r.readVariant()
	if err != nil {
		r.in.Rewind(start)
		return Value{}, err
	}
	return v, nil
}

func (r *Reader) readVariant() (Value, error) {
	tag, err := r.in.PeekUint32()
	if err != nil {
		return Value{}, err
	}
	t := Type(tag)
	if !t.Known() {
		return Value{}, UnknownTypeTagError{Tag: tag}
	}
	if _, err := r.in.ReadUint32(); err != nil {
		return Value{}, err
	}
	flag, err := r.in.ReadUint8()
	if err != nil {
		return Value{}, err
	}
	v, err := r.readPayload(t)
	if err != nil {
		return Value{}, err
	}
	v.Null = flag != 0
	return v, nil
}

func (r *Reader) readPayload(t Type) (Value, error) {
	v := Value{Type: t}
	var err error
	switch t {
	case TypeInvalid:
		// null QString placeholder
		_, err = r.in.ReadBytes()
	case TypeBool:
		v.Bool, err = r.ReadBool()
	case TypeChar:
		var n int8
		n, err = r.in.ReadInt8()
		v.Int = int64(n)
	case TypeShort:
		var n int16
		n, err = r.in.ReadInt16()
		v.Int = int64(n)
	case TypeInt:
		var n int32
		n, err = r.in.ReadInt32()
		v.Int = int64(n)
	case TypeLongLong:
		v.Int, err = r.in.ReadInt64()
	case TypeUChar:
		var n uint8
		n, err = r.in.ReadUint8()
		v.Uint = uint64(n)
	case TypeUShort:
		var n uint16
		n, err = r.in.ReadUint16()
		v.Uint = uint64(n)
	case TypeUInt:
		var n uint32
		n, err = r.in.ReadUint32()
		v.Uint = uint64(n)
	case TypeULongLong:
		v.Uint, err = r.in.ReadUint64()
	case TypeString:
		v.String, err = r.ReadString()
	case TypeStringList:
		v.Strings, err = r.ReadStringList()
	case TypeByteArray:
		v.Bytes, err = r.ReadByteArray()
	case TypeVariantList:
		v.List, err = r.ReadVariantList()
	case TypeVariantMap:
		v.Map, err = r.ReadVariantMap()
	case TypeUserType:
		v.User, err = r.readUser()
	default:
		err = UnknownTypeTagError{Tag: uint32(t)}
	}
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func (r *Reader) readUser() (*UserValue, error) {
	raw, err := r.in.ReadBytes()
	if err != nil {
		return nil, err
	}
	name := string(bytes.TrimSuffix(raw, []byte{0}))
	data, err := r.ReadUserTypeByName(name)
	if err != nil {
		return nil, err
	}
	return &UserValue{Name: name, Data: data}, nil
}

// ReadUserTypeByName decodes a user-type payload that is not preceded by a
// header or name, as used by records nesting other records.
func (r *Reader) ReadUserTypeByName(name string) (any, error) {
	decode, ok := r.registry.Lookup(name)
	if !ok {
		return nil, UnknownUserTypeError{Name: name}
	}
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()
	data, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("user type %q: %w", name, err)
	}
	return data, nil
}

// ReadVariantList reads a count and that many variants. No header.
func (r *Reader) ReadVariantList() ([]Value, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()
	n, err := r.readCount(minVariantSize)
	if err != nil {
		return nil, err
	}
	items := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		item, err := r.readVariant()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadVariantMap reads a count and that many UTF-8 keyed variants. No header.
func (r *Reader) ReadVariantMap() (map[string]Value, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()
	n, err := r.readCount(minMapEntrySize)
	if err != nil {
		return nil, err
	}
	pairs := make(map[string]Value, n)
	for i := 0; i < n; i++ {
		key, err := r.in.ReadBytes()
		if err != nil {
			return nil, err
		}
		value, err := r.readVariant()
		if err != nil {
			return nil, err
		}
		pairs[string(key)] = value
	}
	return pairs, nil
}

// ReadStringList reads a count and that many QString payloads.
func (r *Reader) ReadStringList() ([]string, error) {
	n, err := r.readCount(minStringSize)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Reader) readCount(minEntry int) (int, error) {
	n, err := r.in.ReadUint32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minEntry) > uint64(r.in.Remaining()) {
		return 0, ErrTruncated
	}
	return int(n), nil
}

// ReadString reads a UTF-16BE QString payload. A null string reads as "".
func (r *Reader) ReadString() (string, error) {
	b, err := r.in.ReadBytes()
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	return decodeUTF16(b)
}

// ReadByteArray reads a length-prefixed byte array. A null array reads as nil.
func (r *Reader) ReadByteArray() ([]byte, error) {
	return r.in.ReadBytes()
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.in.ReadUint8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) ReadUChar() (uint8, error)   { return r.in.ReadUint8() }
func (r *Reader) ReadUShort() (uint16, error) { return r.in.ReadUint16() }
func (r *Reader) ReadUInt() (uint32, error)   { return r.in.ReadUint32() }
func (r *Reader) ReadInt() (int32, error)     { return r.in.ReadInt32() }

func (r *Reader) enter() error {
	if r.limits.MaxDepth > 0 && r.depth >= r.limits.MaxDepth {
		return ErrTooDeep
	}
	r.depth++
	return nil
}

func (r *Reader) leave() {
	r.depth--
}
