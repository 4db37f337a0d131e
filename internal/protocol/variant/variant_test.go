package variant

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/danmuck/quasselwire/internal/protocol/wire"
)

type point struct {
	X uint32
	Y uint32
}

func (point) UserTypeName() string { return "Point" }

func (p point) MarshalUserType(w *Writer) error {
	w.WriteUInt(p.X)
	w.WriteUInt(p.Y)
	return nil
}

func decodePoint(r *Reader) (any, error) {
	x, err := r.ReadUInt()
	if err != nil {
		return nil, err
	}
	y, err := r.ReadUInt()
	if err != nil {
		return nil, err
	}
	return point{X: x, Y: y}, nil
}

var testRegistry = NewRegistry(UserType{Name: "Point", Decode: decodePoint})

func decodeOne(t *testing.T, b []byte) Value {
	t.Helper()
	r := NewReader(b, testRegistry, DefaultLimits())
	v, err := r.ReadVariant()
	if err != nil {
		t.Fatalf("read variant: %v", err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected all input consumed, remaining=%d", r.Remaining())
	}
	return v
}

func TestRoundTripAllKinds(t *testing.T) {
	tree := Map(map[string]Value{
		"null":    Null(),
		"bool":    Bool(true),
		"char":    Char(-7),
		"short":   Short(-300),
		"int":     Int(-70000),
		"long":    LongLong(-1 << 40),
		"uchar":   UChar(200),
		"ushort":  UShort(65000),
		"uint":    UInt(4000000000),
		"ulong":   ULongLong(1 << 63),
		"string":  String("grüße ☃"),
		"strings": StringList([]string{"a", "", "ü"}),
		"bytes":   ByteArray([]byte{0x00, 0xFF, 0x10}),
		"list":    List(Int(1), String("two"), List(Bool(false))),
		"point":   User(point{X: 3, Y: 4}),
	})

	encoded, err := EncodeVariantList([]Value{tree}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := decodeOne(t, encoded)
	want := List(tree)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestListOrderPreserved(t *testing.T) {
	encoded, err := EncodeVariantList([]Value{String("a"), String("b"), String("c")}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := decodeOne(t, encoded)
	var order []string
	for _, item := range got.List {
		order = append(order, item.String)
	}
	if strings.Join(order, ",") != "a,b,c" {
		t.Fatalf("order=%v", order)
	}
}

func TestVariantMapWireLayout(t *testing.T) {
	encoded, err := EncodeVariantMap(map[string]Value{"b": Bool(true), "a": Int(1)}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		0, 0, 0, 8, 0, // QVariantMap header
		0, 0, 0, 2, // count
		0, 0, 0, 1, 'a', 0, 0, 0, 2, 0, 0, 0, 0, 1,
		0, 0, 0, 1, 'b', 0, 0, 0, 1, 0, 1,
	}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("encoded=%x\nwant=%x", encoded, want)
	}
}

func TestStringIsUTF16BigEndian(t *testing.T) {
	w := NewWriter(DefaultLimits())
	if err := w.WriteVariant(String("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{0, 0, 0, 10, 0, 0, 0, 0, 4, 0, 'h', 0, 'i'}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("encoded=%x want=%x", w.Bytes(), want)
	}
}

func TestNullStringAndByteArray(t *testing.T) {
	// QString null flag set, null length sentinel
	buf := []byte{0, 0, 0, 10, 1, 0xFF, 0xFF, 0xFF, 0xFF}
	v := decodeOne(t, buf)
	if v.Type != TypeString || !v.Null || v.String != "" {
		t.Fatalf("unexpected null string decode: %+v", v)
	}
	w := NewWriter(DefaultLimits())
	if err := w.WriteVariant(v); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(w.Bytes(), buf) {
		t.Fatalf("null string re-encoded as %x", w.Bytes())
	}

	ba := decodeOne(t, []byte{0, 0, 0, 12, 1, 0xFF, 0xFF, 0xFF, 0xFF})
	if ba.Type != TypeByteArray || ba.Bytes != nil {
		t.Fatalf("expected nil bytes for null QByteArray, got %#v", ba.Bytes)
	}
}

func TestMalformedStringRejected(t *testing.T) {
	cases := map[string][]byte{
		"odd length":         {0, 0, 0, 10, 0, 0, 0, 0, 3, 0, 'A', 0},
		"lone high":          {0, 0, 0, 10, 0, 0, 0, 0, 2, 0xD8, 0x00},
		"high then non-low":  {0, 0, 0, 10, 0, 0, 0, 0, 4, 0xD8, 0x00, 0, 'A'},
		"lone low":           {0, 0, 0, 10, 0, 0, 0, 0, 2, 0xDC, 0x00},
		"string list member": {0, 0, 0, 11, 0, 0, 0, 0, 1, 0, 0, 0, 1, 'x'},
	}
	for name, buf := range cases {
		r := NewReader(buf, nil, DefaultLimits())
		v, err := r.ReadVariant()
		if !errors.Is(err, ErrMalformedString) {
			t.Fatalf("%s: expected ErrMalformedString, got %q %v", name, v.String, err)
		}
		if r.Offset() != 0 {
			t.Fatalf("%s: cursor moved to %d", name, r.Offset())
		}
	}

	_, err := EncodeVariantList([]Value{String("a\xffb")}, DefaultLimits())
	var strErr MalformedStringError
	if !errors.As(err, &strErr) || strErr.Offset != 1 {
		t.Fatalf("expected MalformedStringError at 1, got %v", err)
	}
	if _, err := EncodeVariantList([]Value{StringList([]string{"ok", "\xc3"})}, DefaultLimits()); !errors.Is(err, ErrMalformedString) {
		t.Fatalf("string list: expected ErrMalformedString, got %v", err)
	}
}

func TestSurrogatePairRoundTrip(t *testing.T) {
	w := NewWriter(DefaultLimits())
	if err := w.WriteVariant(String("a\U0001F600")); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{0, 0, 0, 10, 0, 0, 0, 0, 6, 0, 'a', 0xD8, 0x3D, 0xDE, 0x00}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("encoded=%x want=%x", w.Bytes(), want)
	}
	if got := decodeOne(t, w.Bytes()); got.String != "a\U0001F600" {
		t.Fatalf("decoded %q", got.String)
	}
}

func TestUnknownTypeTagConsumesNothing(t *testing.T) {
	buf := []byte{0, 0, 0, 99, 0, 1, 2, 3}
	r := NewReader(buf, testRegistry, DefaultLimits())
	_, err := r.ReadVariant()
	var tagErr UnknownTypeTagError
	if !errors.As(err, &tagErr) || tagErr.Tag != 99 {
		t.Fatalf("expected UnknownTypeTagError{99}, got %v", err)
	}
	if !errors.Is(err, ErrUnknownTypeTag) {
		t.Fatalf("expected errors.Is ErrUnknownTypeTag")
	}
	if r.Offset() != 0 {
		t.Fatalf("cursor moved to %d", r.Offset())
	}
}

func TestUnknownUserTypeDoesNotInvokeDecoder(t *testing.T) {
	calls := 0
	reg := NewRegistry(UserType{Name: "Known", Decode: func(r *Reader) (any, error) {
		calls++
		return nil, nil
	}})
	w := NewWriter(DefaultLimits())
	w.WriteHeader(TypeUserType, false)
	w.WriteUserTypeName("Other")
	w.WriteUInt(1)

	_, err := NewReader(w.Bytes(), reg, DefaultLimits()).ReadVariant()
	var userErr UnknownUserTypeError
	if !errors.As(err, &userErr) || userErr.Name != "Other" {
		t.Fatalf("expected UnknownUserTypeError{Other}, got %v", err)
	}
	if !errors.Is(err, ErrUnknownUserType) {
		t.Fatalf("expected errors.Is ErrUnknownUserType")
	}
	if calls != 0 {
		t.Fatalf("decode routine invoked %d times", calls)
	}
}

func TestUserTypeNameWithoutTerminator(t *testing.T) {
	var raw wire.Writer
	raw.WriteUint32(uint32(TypeUserType))
	raw.WriteUint8(0)
	raw.WriteBytes([]byte("Point"))
	raw.WriteUint32(1)
	raw.WriteUint32(2)

	v := decodeOne(t, raw.Bytes())
	name, data, ok := v.UserData()
	if !ok || name != "Point" || data != (point{X: 1, Y: 2}) {
		t.Fatalf("unexpected user value: %q %#v", name, data)
	}
}

func TestTruncatedByteArray(t *testing.T) {
	buf := []byte{0, 0, 0, 12, 0, 0, 0, 0, 9, 'a', 'b'}
	_, err := NewReader(buf, nil, DefaultLimits()).ReadVariant()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestOversizedCountRejected(t *testing.T) {
	buf := []byte{0, 0, 0, 9, 0, 0xFF, 0xFF, 0xFF, 0xF0, 0, 0, 0, 1, 0}
	_, err := NewReader(buf, nil, DefaultLimits()).ReadVariant()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDepthLimit(t *testing.T) {
	v := Int(1)
	for i := 0; i < 10; i++ {
		v = List(v)
	}
	w := NewWriter(DefaultLimits())
	if err := w.WriteVariant(v); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := NewReader(w.Bytes(), nil, Limits{MaxDepth: 4}).ReadVariant()
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
	if _, err := NewReader(w.Bytes(), nil, DefaultLimits()).ReadVariant(); err != nil {
		t.Fatalf("default limits: %v", err)
	}
}

func TestWriterRejectsUnsupportedKinds(t *testing.T) {
	cases := map[string]Value{
		"unknown type":   {Type: Type(99)},
		"overflow":       {Type: TypeUChar, Uint: 300},
		"user no codec":  {Type: TypeUserType, User: &UserValue{Name: "X", Data: 42}},
		"user nil value": {Type: TypeUserType},
	}
	for name, v := range cases {
		if _, err := EncodeVariantList([]Value{v}, DefaultLimits()); !errors.Is(err, ErrUnsupportedVariantKind) {
			t.Fatalf("%s: expected ErrUnsupportedVariantKind, got %v", name, err)
		}
	}
}

func TestFromNativeValues(t *testing.T) {
	var decoded any
	dec := json.NewDecoder(strings.NewReader(`{"a": 1, "b": "x", "c": [true, 5000000000]}`))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("json: %v", err)
	}
	got, err := From(decoded)
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	want := Map(map[string]Value{
		"a": Int(1),
		"b": String("x"),
		"c": List(Bool(true), LongLong(5000000000)),
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := From(map[string]any{"f": 1.5}); !errors.Is(err, ErrUnsupportedVariantKind) {
		t.Fatalf("expected ErrUnsupportedVariantKind for float, got %v", err)
	}
}

func TestRegistryOverlay(t *testing.T) {
	base := NewRegistry(UserType{Name: "B", Decode: decodePoint}, UserType{Name: "A", Decode: decodePoint})
	extended := base.With(UserType{Name: "C", Decode: decodePoint}, UserType{Name: "", Decode: decodePoint})
	if got := strings.Join(extended.Names(), ","); got != "A,B,C" {
		t.Fatalf("names=%s", got)
	}
	if _, ok := base.Lookup("C"); ok {
		t.Fatalf("overlay mutated base registry")
	}
	var nilReg *Registry
	if _, ok := nilReg.Lookup("A"); ok || nilReg.Len() != 0 {
		t.Fatalf("nil registry should be empty")
	}
}
