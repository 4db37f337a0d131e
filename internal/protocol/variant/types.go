package variant

import "fmt"

// Type is a datastream type id. Values follow the Qt4 QMetaType ids that
// Quassel puts on the wire.
type Type uint32

const (
	TypeInvalid     Type = 0
	TypeBool        Type = 1
	TypeInt         Type = 2
	TypeUInt        Type = 3
	TypeLongLong    Type = 4
	TypeULongLong   Type = 5
	TypeVariantMap  Type = 8
	TypeVariantList Type = 9
	TypeString      Type = 10
	TypeStringList  Type = 11
	TypeByteArray   Type = 12
	TypeUserType    Type = 127
	TypeShort       Type = 130
	TypeChar        Type = 131
	TypeUShort      Type = 133
	TypeUChar       Type = 134
)

var typeNames = map[Type]string{
	TypeInvalid:     "Invalid",
	TypeBool:        "bool",
	TypeInt:         "int",
	TypeUInt:        "uint",
	TypeLongLong:    "qlonglong",
	TypeULongLong:   "qulonglong",
	TypeVariantMap:  "QVariantMap",
	TypeVariantList: "QVariantList",
	TypeString:      "QString",
	TypeStringList:  "QStringList",
	TypeByteArray:   "QByteArray",
	TypeUserType:    "UserType",
	TypeShort:       "short",
	TypeChar:        "char",
	TypeUShort:      "ushort",
	TypeUChar:       "uchar",
}

// Known reports whether t is part of the closed type catalog.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// Types returns the catalog in ascending id order.
func Types() []Type {
	return []Type{
		TypeInvalid, TypeBool, TypeInt, TypeUInt, TypeLongLong, TypeULongLong,
		TypeVariantMap, TypeVariantList, TypeString, TypeStringList, TypeByteArray,
		TypeUserType, TypeShort, TypeChar, TypeUShort, TypeUChar,
	}
}

func (t Type) signed() bool {
	switch t {
	case TypeInt, TypeLongLong, TypeShort, TypeChar:
		return true
	}
	return false
}

func (t Type) unsigned() bool {
	switch t {
	case TypeUInt, TypeULongLong, TypeUShort, TypeUChar:
		return true
	}
	return false
}
