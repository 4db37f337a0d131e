package variant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// From converts a native Go value into a Value. Integers keep their width;
// plain int picks int or qlonglong by magnitude. Types with no datastream
// representation fail with ErrUnsupportedVariantKind.
func From(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Value:
		if v == nil {
			return Null(), nil
		}
		return *v, nil
	case UserMarshaler:
		return User(v), nil
	case bool:
		return Bool(v), nil
	case int8:
		return Char(v), nil
	case int16:
		return Short(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return LongLong(v), nil
	case int:
		return fromInt64(int64(v)), nil
	case uint8:
		return UChar(v), nil
	case uint16:
		return UShort(v), nil
	case uint32:
		return UInt(v), nil
	case uint64:
		return ULongLong(v), nil
	case uint:
		if uint64(v) <= math.MaxUint32 {
			return UInt(uint32(v)), nil
		}
		return ULongLong(uint64(v)), nil
	case json.Number:
		return fromNumber(v)
	case string:
		return String(v), nil
	case []byte:
		return ByteArray(v), nil
	case []string:
		return StringList(v), nil
	case []Value:
		return List(v...), nil
	case []any:
		items := make([]Value, 0, len(v))
		for i, item := range v {
			conv, err := From(item)
			if err != nil {
				return Value{}, wrapPath(strconv.Itoa(i), err)
			}
			items = append(items, conv)
		}
		return List(items...), nil
	case map[string]Value:
		return Map(v), nil
	case map[string]any:
		pairs := make(map[string]Value, len(v))
		for k, item := range v {
			conv, err := From(item)
			if err != nil {
				return Value{}, wrapPath(strconv.Quote(k), err)
			}
			pairs[k] = conv
		}
		return Map(pairs), nil
	default:
		return Value{}, unsupported("%T", x)
	}
}

func fromInt64(n int64) Value {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return Int(int32(n))
	}
	return LongLong(n)
}

func fromNumber(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return fromInt64(i), nil
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return ULongLong(u), nil
	}
	return Value{}, unsupported("number %s", n.String())
}

func wrapPath(elem string, err error) error {
	return fmt.Errorf("[%s]: %w", elem, err)
}
