package protocol

import (
	"fmt"
	"math"
	"time"

	"github.com/danmuck/quasselwire/internal/protocol/variant"
)

// User type names as they appear on the wire.
const (
	UserTypeNetworkID     = "NetworkId"
	UserTypeIdentity      = "Identity"
	UserTypeIdentityID    = "IdentityId"
	UserTypeBufferInfo    = "BufferInfo"
	UserTypeNetworkServer = "Network::Server"
	UserTypeBufferID      = "BufferId"
	UserTypeMessage       = "Message"
	UserTypeMsgID         = "MsgId"
)

type (
	NetworkID  uint32
	IdentityID uint32
	BufferID   uint32
	MsgID      uint32
)

// Identity and NetworkServer travel as plain variant maps.
type (
	Identity      map[string]variant.Value
	NetworkServer map[string]variant.Value
)

// BufferInfo describes one buffer (channel, query or status window).
type BufferInfo struct {
	ID      uint32 `json:"id" msgpack:"id"`
	Network uint32 `json:"network" msgpack:"network"`
	Type    uint16 `json:"type" msgpack:"type"`
	Group   uint32 `json:"group" msgpack:"group"`
	Name    []byte `json:"name" msgpack:"name"`
}

// Message is one backlog or live chat line.
type Message struct {
	ID         uint32     `json:"id" msgpack:"id"`
	Timestamp  time.Time  `json:"timestamp" msgpack:"timestamp"`
	Type       uint32     `json:"type" msgpack:"type"`
	Flags      uint8      `json:"flags" msgpack:"flags"`
	BufferInfo BufferInfo `json:"bufferInfo" msgpack:"bufferInfo"`
	Sender     []byte     `json:"sender" msgpack:"sender"`
	Content    []byte     `json:"content" msgpack:"content"`
}

// KnownUserTypes returns the decoders for the records a core sends during
// session init, network init and backlog replay.
func KnownUserTypes() []variant.UserType {
	return []variant.UserType{
		{Name: UserTypeNetworkID, Decode: decodeID(func(v uint32) any { return NetworkID(v) })},
		{Name: UserTypeIdentity, Decode: decodeMap(func(m map[string]variant.Value) any { return Identity(m) })},
		{Name: UserTypeIdentityID, Decode: decodeID(func(v uint32) any { return IdentityID(v) })},
		{Name: UserTypeBufferInfo, Decode: decodeBufferInfo},
		{Name: UserTypeNetworkServer, Decode: decodeMap(func(m map[string]variant.Value) any { return NetworkServer(m) })},
		{Name: UserTypeBufferID, Decode: decodeID(func(v uint32) any { return BufferID(v) })},
		{Name: UserTypeMessage, Decode: decodeMessage},
		{Name: UserTypeMsgID, Decode: decodeID(func(v uint32) any { return MsgID(v) })},
	}
}

func decodeID(wrap func(uint32) any) variant.DecodeFunc {
	return func(r *variant.Reader) (any, error) {
		v, err := r.ReadUInt()
		if err != nil {
			return nil, err
		}
		return wrap(v), nil
	}
}

func decodeMap(wrap func(map[string]variant.Value) any) variant.DecodeFunc {
	return func(r *variant.Reader) (any, error) {
		m, err := r.ReadVariantMap()
		if err != nil {
			return nil, err
		}
		return wrap(m), nil
	}
}

func decodeBufferInfo(r *variant.Reader) (any, error) {
	var (
		info BufferInfo
		err  error
	)
	if info.ID, err = r.ReadUInt(); err != nil {
		return nil, err
	}
	if info.Network, err = r.ReadUInt(); err != nil {
		return nil, err
	}
	if info.Type, err = r.ReadUShort(); err != nil {
		return nil, err
	}
	if info.Group, err = r.ReadUInt(); err != nil {
		return nil, err
	}
	if info.Name, err = r.ReadByteArray(); err != nil {
		return nil, err
	}
	return info, nil
}

func decodeMessage(r *variant.Reader) (any, error) {
	var (
		msg Message
		err error
	)
	if msg.ID, err = r.ReadUInt(); err != nil {
		return nil, err
	}
	secs, err := r.ReadUInt()
	if err != nil {
		return nil, err
	}
	msg.Timestamp = timestampFromEpoch(secs)
	if msg.Type, err = r.ReadUInt(); err != nil {
		return nil, err
	}
	if msg.Flags, err = r.ReadUChar(); err != nil {
		return nil, err
	}
	nested, err := r.ReadUserTypeByName(UserTypeBufferInfo)
	if err != nil {
		return nil, err
	}
	info, ok := nested.(BufferInfo)
	if !ok {
		return nil, fmt.Errorf("protocol: %s decoded as %T", UserTypeBufferInfo, nested)
	}
	msg.BufferInfo = info
	if msg.Sender, err = r.ReadByteArray(); err != nil {
		return nil, err
	}
	if msg.Content, err = r.ReadByteArray(); err != nil {
		return nil, err
	}
	return msg, nil
}

// timestampFromEpoch converts wire seconds to an absolute UTC time without
// consulting the local clock or zone.
func timestampFromEpoch(secs uint32) time.Time {
	return time.Unix(int64(secs), 0).UTC()
}

func (NetworkID) UserTypeName() string  { return UserTypeNetworkID }
func (IdentityID) UserTypeName() string { return UserTypeIdentityID }
func (BufferID) UserTypeName() string   { return UserTypeBufferID }
func (MsgID) UserTypeName() string      { return UserTypeMsgID }

func (id NetworkID) MarshalUserType(w *variant.Writer) error {
	w.WriteUInt(uint32(id))
	return nil
}

func (id IdentityID) MarshalUserType(w *variant.Writer) error {
	w.WriteUInt(uint32(id))
	return nil
}

func (id BufferID) MarshalUserType(w *variant.Writer) error {
	w.WriteUInt(uint32(id))
	return nil
}

func (id MsgID) MarshalUserType(w *variant.Writer) error {
	w.WriteUInt(uint32(id))
	return nil
}

func (Identity) UserTypeName() string { return UserTypeIdentity }

func (i Identity) MarshalUserType(w *variant.Writer) error {
	return w.WriteVariantMap(i)
}

func (NetworkServer) UserTypeName() string { return UserTypeNetworkServer }

func (s NetworkServer) MarshalUserType(w *variant.Writer) error {
	return w.WriteVariantMap(s)
}

func (BufferInfo) UserTypeName() string { return UserTypeBufferInfo }

func (b BufferInfo) MarshalUserType(w *variant.Writer) error {
	w.WriteUInt(b.ID)
	w.WriteUInt(b.Network)
	w.WriteUShort(b.Type)
	w.WriteUInt(b.Group)
	w.WriteByteArray(b.Name)
	return nil
}

func (Message) UserTypeName() string { return UserTypeMessage }

// MarshalUserType writes m in wire order. Timestamps outside the uint32
// epoch range cannot be represented.
func (m Message) MarshalUserType(w *variant.Writer) error {
	secs := m.Timestamp.Unix()
	if secs < 0 || secs > math.MaxUint32 {
		return fmt.Errorf("%w: message timestamp %s out of range", ErrUnsupportedVariantKind, m.Timestamp)
	}
	w.WriteUInt(m.ID)
	w.WriteUInt(uint32(secs))
	w.WriteUInt(m.Type)
	w.WriteUChar(m.Flags)
	if err := m.BufferInfo.MarshalUserType(w); err != nil {
		return err
	}
	w.WriteByteArray(m.Sender)
	w.WriteByteArray(m.Content)
	return nil
}
