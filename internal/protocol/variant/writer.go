package variant

import (
	"fmt"
	"math"
	"sort"

	"github.com/danmuck/quasselwire/internal/protocol/wire"
)

// UserMarshaler is implemented by records that can be written as a user
// type. MarshalUserType writes the payload only; the header and name are
// written by the Writer.
type UserMarshaler interface {
	UserTypeName() string
	MarshalUserType(w *Writer) error
}

// Writer encodes variants into an in-memory buffer.
type Writer struct {
	out      wire.Writer
	maxDepth int
	depth    int
}

// NewWriter returns a Writer that refuses to nest deeper than
// limits.MaxDepth, mirroring the Reader built with the same limits.
func NewWriter(limits Limits) *Writer {
	return &Writer{maxDepth: limits.MaxDepth}
}

func (w *Writer) Bytes() []byte {
	return w.out.Bytes()
}

// EncodeVariantList encodes items as one QVariantList variant, header
// included, preserving their order.
func EncodeVariantList(items []Value, limits Limits) ([]byte, error) {
	w := NewWriter(limits)
	w.WriteHeader(TypeVariantList, false)
	if err := w.WriteVariantList(items); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeVariantMap encodes pairs as one QVariantMap variant, header
// included. Keys are written in ascending order.
func EncodeVariantMap(pairs map[string]Value, limits Limits) ([]byte, error) {
	w := NewWriter(limits)
	w.WriteHeader(TypeVariantMap, false)
	if err := w.WriteVariantMap(pairs); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteHeader writes the type id and null flag that precede every variant.
func (w *Writer) WriteHeader(t Type, null bool) {
	w.out.WriteUint32(uint32(t))
	if null {
		w.out.WriteUint8(1)
	} else {
		w.out.WriteUint8(0)
	}
}

// WriteVariant writes v including its header.
func (w *Writer) WriteVariant(v Value) error {
	if !v.Type.Known() {
		return unsupported("type %s", v.Type)
	}
	w.WriteHeader(v.Type, v.Null || v.Type == TypeInvalid)
	return w.writePayload(v)
}

func (w *Writer) writePayload(v Value) error {
	if v.Type.signed() {
		return w.writeSigned(v.Type, v.Int)
	}
	if v.Type.unsigned() {
		return w.writeUnsigned(v.Type, v.Uint)
	}
	switch v.Type {
	case TypeInvalid:
		w.out.WriteNullBytes()
	case TypeBool:
		w.WriteBool(v.Bool)
	case TypeString:
		if v.Null && v.String == "" {
			w.out.WriteNullBytes()
			return nil
		}
		return w.WriteString(v.String)
	case TypeStringList:
		w.out.WriteUint32(uint32(len(v.Strings)))
		for _, s := range v.Strings {
			if err := w.WriteString(s); err != nil {
				return err
			}
		}
	case TypeByteArray:
		if v.Null && v.Bytes == nil {
			w.out.WriteNullBytes()
			return nil
		}
		w.WriteByteArray(v.Bytes)
	case TypeVariantList:
		return w.WriteVariantList(v.List)
	case TypeVariantMap:
		return w.WriteVariantMap(v.Map)
	case TypeUserType:
		return w.writeUser(v.User)
	default:
		return unsupported("type %s", v.Type)
	}
	return nil
}

func (w *Writer) writeSigned(t Type, v int64) error {
	switch t {
	case TypeChar:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return unsupported("%d overflows %s", v, t)
		}
		w.out.WriteInt8(int8(v))
	case TypeShort:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return unsupported("%d overflows %s", v, t)
		}
		w.out.WriteInt16(int16(v))
	case TypeInt:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return unsupported("%d overflows %s", v, t)
		}
		w.out.WriteInt32(int32(v))
	default:
		w.out.WriteInt64(v)
	}
	return nil
}

func (w *Writer) writeUnsigned(t Type, v uint64) error {
	switch t {
	case TypeUChar:
		if v > math.MaxUint8 {
			return unsupported("%d overflows %s", v, t)
		}
		w.out.WriteUint8(uint8(v))
	case TypeUShort:
		if v > math.MaxUint16 {
			return unsupported("%d overflows %s", v, t)
		}
		w.out.WriteUint16(uint16(v))
	case TypeUInt:
		if v > math.MaxUint32 {
			return unsupported("%d overflows %s", v, t)
		}
		w.out.WriteUint32(uint32(v))
	default:
		w.out.WriteUint64(v)
	}
	return nil
}

// WriteVariantList writes a count followed by each item. No header.
func (w *Writer) WriteVariantList(items []Value) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.leave()
	w.out.WriteUint32(uint32(len(items)))
	for i, item := range items {
		if err := w.WriteVariant(item); err != nil {
			return fmt.Errorf("list[%d]: %w", i, err)
		}
	}
	return nil
}

// WriteVariantMap writes a count followed by UTF-8 keys and their values.
// No header.
func (w *Writer) WriteVariantMap(pairs map[string]Value) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.leave()
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.out.WriteUint32(uint32(len(keys)))
	for _, k := range keys {
		w.out.WriteBytes([]byte(k))
		if err := w.WriteVariant(pairs[k]); err != nil {
			return fmt.Errorf("map[%q]: %w", k, err)
		}
	}
	return nil
}

func (w *Writer) writeUser(u *UserValue) error {
	if u == nil {
		return unsupported("user type without value")
	}
	m, ok := u.Data.(UserMarshaler)
	if !ok {
		return unsupported("user type %q has no encoder", u.Name)
	}
	name := u.Name
	if name == "" {
		name = m.UserTypeName()
	}
	w.WriteUserTypeName(name)
	if err := w.enter(); err != nil {
		return err
	}
	defer w.leave()
	return m.MarshalUserType(w)
}

// WriteUserTypeName writes a user type name as a NUL terminated byte array.
func (w *Writer) WriteUserTypeName(name string) {
	b := make([]byte, 0, len(name)+1)
	b = append(b, name...)
	w.out.WriteBytes(append(b, 0))
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.out.WriteUint8(1)
		return
	}
	w.out.WriteUint8(0)
}

func (w *Writer) WriteUChar(v uint8)   { w.out.WriteUint8(v) }
func (w *Writer) WriteUShort(v uint16) { w.out.WriteUint16(v) }
func (w *Writer) WriteUInt(v uint32)   { w.out.WriteUint32(v) }
func (w *Writer) WriteInt(v int32)     { w.out.WriteInt32(v) }

func (w *Writer) WriteByteArray(b []byte) {
	w.out.WriteBytes(b)
}

// WriteString writes s as a UTF-16BE QString payload.
func (w *Writer) WriteString(s string) error {
	b, err := encodeUTF16(s)
	if err != nil {
		return err
	}
	w.out.WriteBytes(b)
	return nil
}

func (w *Writer) enter() error {
	if w.maxDepth > 0 && w.depth >= w.maxDepth {
		return ErrTooDeep
	}
	w.depth++
	return nil
}

func (w *Writer) leave() {
	w.depth--
}
