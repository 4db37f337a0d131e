// Package render turns decoded variant trees into plain Go values and
// serializes them for humans and tooling.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/shamaton/msgpack/v2"

	"github.com/danmuck/quasselwire/internal/protocol"
	"github.com/danmuck/quasselwire/internal/protocol/variant"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatCBOR    Format = "cbor"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatMsgpack, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("render: unknown format %q", raw)
	}
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMsgpack:
		return "application/msgpack"
	case FormatCBOR:
		return "application/cbor"
	default:
		return "application/json"
	}
}

// UserRecord is how a user-type value appears in plain output.
type UserRecord struct {
	Type  string `json:"userType" msgpack:"userType" cbor:"userType"`
	Value any    `json:"value" msgpack:"value" cbor:"value"`
}

// Plain converts v to nil, bool, int64, uint64, string, []byte, []string,
// []any, map[string]any or UserRecord. Records holding variant maps are
// converted recursively.
func Plain(v variant.Value) any {
	switch v.Type {
	case variant.TypeInvalid:
		return nil
	case variant.TypeBool:
		return v.Bool
	case variant.TypeChar, variant.TypeShort, variant.TypeInt, variant.TypeLongLong:
		return v.Int
	case variant.TypeUChar, variant.TypeUShort, variant.TypeUInt, variant.TypeULongLong:
		return v.Uint
	case variant.TypeString:
		return v.String
	case variant.TypeStringList:
		return v.Strings
	case variant.TypeByteArray:
		return v.Bytes
	case variant.TypeVariantList:
		items := make([]any, 0, len(v.List))
		for _, item := range v.List {
			items = append(items, Plain(item))
		}
		return items
	case variant.TypeVariantMap:
		return plainMap(v.Map)
	case variant.TypeUserType:
		if v.User == nil {
			return nil
		}
		return UserRecord{Type: v.User.Name, Value: plainUser(v.User.Data)}
	}
	return nil
}

func plainMap(m map[string]variant.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = Plain(item)
	}
	return out
}

func plainUser(data any) any {
	switch d := data.(type) {
	case protocol.Identity:
		return plainMap(d)
	case protocol.NetworkServer:
		return plainMap(d)
	case protocol.NetworkID:
		return uint32(d)
	case protocol.IdentityID:
		return uint32(d)
	case protocol.BufferID:
		return uint32(d)
	case protocol.MsgID:
		return uint32(d)
	case variant.Value:
		return Plain(d)
	default:
		return data
	}
}

// Marshal serializes the plain form of v.
func Marshal(format Format, v variant.Value) ([]byte, error) {
	plain := Plain(v)
	switch format {
	case FormatJSON, "":
		return json.Marshal(plain)
	case FormatMsgpack:
		return msgpack.Marshal(plain)
	case FormatCBOR:
		return cbor.Marshal(plain)
	default:
		return nil, fmt.Errorf("render: unknown format %q", format)
	}
}
