package variant

// Value is one decoded or to-be-encoded variant. Type selects which of the
// payload fields is meaningful:
//
//   - Bool for TypeBool
//   - Int for TypeInt, TypeLongLong, TypeShort, TypeChar
//   - Uint for TypeUInt, TypeULongLong, TypeUShort, TypeUChar
//   - String for TypeString
//   - Bytes for TypeByteArray
//   - Strings for TypeStringList
//   - List for TypeVariantList
//   - Map for TypeVariantMap
//   - User for TypeUserType
type Value struct {
	Type    Type
	Null    bool
	Bool    bool
	Int     int64
	Uint    uint64
	String  string
	Bytes   []byte
	Strings []string
	List    []Value
	Map     map[string]Value
	User    *UserValue
}

// UserValue is a named application record. Data holds whatever the
// registered decode routine produced.
type UserValue struct {
	Name string
	Data any
}

func Null() Value                 { return Value{Type: TypeInvalid, Null: true} }
func Bool(v bool) Value           { return Value{Type: TypeBool, Bool: v} }
func Char(v int8) Value           { return Value{Type: TypeChar, Int: int64(v)} }
func Short(v int16) Value         { return Value{Type: TypeShort, Int: int64(v)} }
func Int(v int32) Value           { return Value{Type: TypeInt, Int: int64(v)} }
func LongLong(v int64) Value      { return Value{Type: TypeLongLong, Int: v} }
func UChar(v uint8) Value         { return Value{Type: TypeUChar, Uint: uint64(v)} }
func UShort(v uint16) Value       { return Value{Type: TypeUShort, Uint: uint64(v)} }
func UInt(v uint32) Value         { return Value{Type: TypeUInt, Uint: uint64(v)} }
func ULongLong(v uint64) Value    { return Value{Type: TypeULongLong, Uint: v} }
func String(v string) Value       { return Value{Type: TypeString, String: v} }
func ByteArray(v []byte) Value    { return Value{Type: TypeByteArray, Bytes: v} }
func StringList(v []string) Value { return Value{Type: TypeStringList, Strings: v} }
func List(items ...Value) Value   { return Value{Type: TypeVariantList, List: items} }

func Map(pairs map[string]Value) Value {
	return Value{Type: TypeVariantMap, Map: pairs}
}

// User wraps a record that knows how to encode itself.
func User(m UserMarshaler) Value {
	return Value{Type: TypeUserType, User: &UserValue{Name: m.UserTypeName(), Data: m}}
}

// IsNull reports whether v is the invalid variant.
func (v Value) IsNull() bool {
	return v.Type == TypeInvalid
}

// UserData returns the decoded record of a user-type value.
func (v Value) UserData() (string, any, bool) {
	if v.Type != TypeUserType || v.User == nil {
		return "", nil, false
	}
	return v.User.Name, v.User.Data, true
}
