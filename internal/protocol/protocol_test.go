package protocol

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/danmuck/quasselwire/internal/protocol/variant"
	"github.com/danmuck/quasselwire/internal/protocol/wire"
	"github.com/danmuck/quasselwire/internal/testutil/testlog"
)

func newTestProtocol(t *testing.T, opts ...Option) *Protocol {
	t.Helper()
	testlog.Start(t)
	return New(append([]Option{WithLogger(testlog.Logger(t))}, opts...)...)
}

func bufferInfoPayload(name string) []byte {
	var w wire.Writer
	w.WriteUint32(uint32(variant.TypeUserType))
	w.WriteUint8(0)
	w.WriteBytes([]byte(name + "\x00"))
	w.WriteUint32(7)
	w.WriteUint32(1)
	w.WriteUint16(2)
	w.WriteUint32(0)
	w.WriteBytes([]byte("#test"))
	return w.Bytes()
}

func TestReadVariantBufferInfoDispatch(t *testing.T) {
	p := newTestProtocol(t)
	v, err := p.ReadVariant(bufferInfoPayload(UserTypeBufferInfo))
	if err != nil {
		t.Fatalf("read variant: %v", err)
	}
	name, data, ok := v.UserData()
	if !ok || name != UserTypeBufferInfo {
		t.Fatalf("expected BufferInfo user value, got %+v", v)
	}
	want := BufferInfo{ID: 7, Network: 1, Type: 2, Group: 0, Name: []byte("#test")}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("buffer info mismatch (-want +got):\n%s", diff)
	}
}

func TestReadVariantMessageNestsBufferInfo(t *testing.T) {
	p := newTestProtocol(t)
	var w wire.Writer
	w.WriteUint32(uint32(variant.TypeUserType))
	w.WriteUint8(0)
	w.WriteBytes([]byte("Message\x00"))
	w.WriteUint32(42)         // id
	w.WriteUint32(1700000000) // timestamp
	w.WriteUint32(1)          // type
	w.WriteUint8(0x02)        // flags
	w.WriteUint32(7)
	w.WriteUint32(1)
	w.WriteUint16(2)
	w.WriteUint32(0)
	w.WriteBytes([]byte("#test"))
	w.WriteBytes([]byte("nick!user@host"))
	w.WriteBytes([]byte("hello"))

	v, err := p.ReadVariant(w.Bytes())
	if err != nil {
		t.Fatalf("read variant: %v", err)
	}
	_, data, _ := v.UserData()
	msg, ok := data.(Message)
	if !ok {
		t.Fatalf("expected Message, got %T", data)
	}
	want := Message{
		ID:         42,
		Timestamp:  time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		Type:       1,
		Flags:      0x02,
		BufferInfo: BufferInfo{ID: 7, Network: 1, Type: 2, Name: []byte("#test")},
		Sender:     []byte("nick!user@host"),
		Content:    []byte("hello"),
	}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
	if msg.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp not in UTC: %v", msg.Timestamp.Location())
	}
}

func TestWriteVariantMapFramedEndToEnd(t *testing.T) {
	p := newTestProtocol(t)
	in := map[string]variant.Value{"a": variant.Int(1), "b": variant.String("x")}
	encoded, err := p.WriteVariantMap(in)
	if err != nil {
		t.Fatalf("write map: %v", err)
	}
	packet, err := p.WritePacket(encoded)
	if err != nil {
		t.Fatalf("write packet: %v", err)
	}
	if len(packet) != 4+len(encoded) || binary.BigEndian.Uint32(packet) != uint32(len(encoded)) {
		t.Fatalf("bad framing: %x", packet[:4])
	}

	payload, rest, err := p.ReadPacket(packet)
	if err != nil || len(rest) != 0 {
		t.Fatalf("read packet: rest=%d err=%v", len(rest), err)
	}
	got, err := p.ReadVariant(payload)
	if err != nil {
		t.Fatalf("read variant: %v", err)
	}
	if diff := cmp.Diff(variant.Map(in), got); diff != "" {
		t.Fatalf("map mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	p := newTestProtocol(t)
	info := BufferInfo{ID: 3, Network: 9, Type: 2, Group: 1, Name: []byte("#quassel")}
	items := []variant.Value{
		variant.User(NetworkID(1)),
		variant.User(IdentityID(2)),
		variant.User(BufferID(3)),
		variant.User(MsgID(4)),
		variant.User(info),
		variant.User(Identity{"identityName": variant.String("default")}),
		variant.User(NetworkServer{"Host": variant.String("irc.example.org"), "Port": variant.UInt(6697)}),
		variant.User(Message{
			ID:         10,
			Timestamp:  time.Unix(1600000000, 0).UTC(),
			Type:       4,
			BufferInfo: info,
			Sender:     []byte("me"),
			Content:    []byte("waves"),
		}),
	}
	encoded, err := p.WriteVariantList(items)
	if err != nil {
		t.Fatalf("write list: %v", err)
	}
	got, err := p.ReadVariant(encoded)
	if err != nil {
		t.Fatalf("read variant: %v", err)
	}
	if diff := cmp.Diff(variant.List(items...), got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadVariantUnknownUserType(t *testing.T) {
	p := newTestProtocol(t)
	_, err := p.ReadVariant(bufferInfoPayload("ChannelInfo"))
	var userErr UnknownUserTypeError
	if !errors.As(err, &userErr) || userErr.Name != "ChannelInfo" {
		t.Fatalf("expected UnknownUserTypeError, got %v", err)
	}
}

func TestReadVariantUnknownTag(t *testing.T) {
	p := newTestProtocol(t)
	_, err := p.ReadVariant([]byte{0, 0, 0, 200, 0})
	if !errors.Is(err, ErrUnknownTypeTag) {
		t.Fatalf("expected ErrUnknownTypeTag, got %v", err)
	}
}

func TestReadVariantTruncatedRecord(t *testing.T) {
	p := newTestProtocol(t)
	buf := bufferInfoPayload(UserTypeBufferInfo)
	_, err := p.ReadVariant(buf[:len(buf)-2])
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestRegistryExtensionAndOverrides(t *testing.T) {
	type channel struct{ Name []byte }
	decodeChannel := func(r *variant.Reader) (any, error) {
		name, err := r.ReadByteArray()
		return channel{Name: name}, err
	}
	p := newTestProtocol(t, WithUserTypes(variant.UserType{Name: "ChannelInfo", Decode: decodeChannel}))

	var w wire.Writer
	w.WriteUint32(uint32(variant.TypeUserType))
	w.WriteUint8(0)
	w.WriteBytes([]byte("ChannelInfo\x00"))
	w.WriteBytes([]byte("#go"))
	v, err := p.ReadVariant(w.Bytes())
	if err != nil {
		t.Fatalf("read extended type: %v", err)
	}
	if _, data, _ := v.UserData(); cmp.Diff(channel{Name: []byte("#go")}, data) != "" {
		t.Fatalf("unexpected channel decode: %#v", data)
	}

	called := false
	override := variant.UserType{Name: UserTypeBufferInfo, Decode: func(r *variant.Reader) (any, error) {
		called = true
		return decodeBufferInfo(r)
	}}
	if _, err := p.ReadVariantWith(bufferInfoPayload(UserTypeBufferInfo), override); err != nil {
		t.Fatalf("read with override: %v", err)
	}
	if !called {
		t.Fatalf("override not used")
	}
	called = false
	if _, err := p.ReadVariant(bufferInfoPayload(UserTypeBufferInfo)); err != nil || called {
		t.Fatalf("override leaked into protocol registry (called=%v err=%v)", called, err)
	}
}

func TestKnownUserTypes(t *testing.T) {
	p := newTestProtocol(t)
	want := []string{"BufferId", "BufferInfo", "Identity", "IdentityId", "Message", "MsgId", "Network::Server", "NetworkId"}
	if diff := cmp.Diff(want, p.UserTypes()); diff != "" {
		t.Fatalf("user types mismatch (-want +got):\n%s", diff)
	}
}

func TestConstantsCatalog(t *testing.T) {
	if Magic != 0x42b33f00 || TypeListEnd != 0x80000000 {
		t.Fatalf("magic/list end constants changed")
	}
	if ProtocolDatastream.String() != "datastream" || FeatureCompression.String() != "compression" {
		t.Fatalf("unexpected names: %s %s", ProtocolDatastream, FeatureCompression)
	}
	if RequestHeartBeatReply != 6 || RequestRPCCall.String() != "RpcCall" {
		t.Fatalf("unexpected request kinds")
	}
}

func TestConfiguredDepthLimitAppliesToEncode(t *testing.T) {
	tree := variant.Int(1)
	for i := 0; i < 100; i++ {
		tree = variant.List(tree)
	}

	if _, err := newTestProtocol(t).WriteVariantList([]variant.Value{tree}); !errors.Is(err, variant.ErrTooDeep) {
		t.Fatalf("default limits: expected ErrTooDeep, got %v", err)
	}

	limits := variant.Limits{MaxDepth: 200}
	p := newTestProtocol(t, WithLimits(limits))
	encoded, err := p.WriteVariantList([]variant.Value{tree})
	if err != nil {
		t.Fatalf("write with raised limit: %v", err)
	}
	decoded, err := p.ReadVariant(encoded)
	if err != nil {
		t.Fatalf("read with raised limit: %v", err)
	}
	if diff := cmp.Diff(variant.List(tree), decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("deep tree mismatch (-want +got):\n%s", diff)
	}

	r := variant.NewReader(encoded, p.Registry(), limits)
	if _, err := r.ReadVariant(); err != nil || r.Remaining() != 0 {
		t.Fatalf("collaborator reader: remaining=%d err=%v", r.Remaining(), err)
	}
}
