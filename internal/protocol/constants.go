package protocol

import "fmt"

// Magic opens the client probe during connection setup.
const Magic uint32 = 0x42b33f00

// ProtocolType identifies a wire protocol during negotiation.
type ProtocolType uint8

const (
	ProtocolInternal   ProtocolType = 0x00
	ProtocolLegacy     ProtocolType = 0x01
	ProtocolDatastream ProtocolType = 0x02
)

// TypeListEnd marks the last entry of the protocol type list.
const TypeListEnd uint32 = 0x80000000

// Feature is a connection feature bit.
type Feature uint8

const (
	FeatureEncryption  Feature = 0x01
	FeatureCompression Feature = 0x02
)

// RequestType is the first element of a signal proxy message.
type RequestType int32

const (
	RequestInvalid        RequestType = 0
	RequestSync           RequestType = 1
	RequestRPCCall        RequestType = 2
	RequestInitRequest    RequestType = 3
	RequestInitData       RequestType = 4
	RequestHeartBeat      RequestType = 5
	RequestHeartBeatReply RequestType = 6
)

func (p ProtocolType) String() string {
	switch p {
	case ProtocolInternal:
		return "internal"
	case ProtocolLegacy:
		return "legacy"
	case ProtocolDatastream:
		return "datastream"
	}
	return fmt.Sprintf("ProtocolType(%d)", uint8(p))
}

func (f Feature) String() string {
	switch f {
	case FeatureEncryption:
		return "encryption"
	case FeatureCompression:
		return "compression"
	}
	return fmt.Sprintf("Feature(%#x)", uint8(f))
}

func (r RequestType) String() string {
	switch r {
	case RequestInvalid:
		return "Invalid"
	case RequestSync:
		return "Sync"
	case RequestRPCCall:
		return "RpcCall"
	case RequestInitRequest:
		return "InitRequest"
	case RequestInitData:
		return "InitData"
	case RequestHeartBeat:
		return "HeartBeat"
	case RequestHeartBeatReply:
		return "HeartBeatReply"
	}
	return fmt.Sprintf("RequestType(%d)", int32(r))
}
