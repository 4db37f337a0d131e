// Package frame implements the packet framing of the Quassel datastream
// protocol: a uint32 big-endian payload length followed by the payload.
package frame

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/danmuck/quasselwire/internal/protocol/wire"
)

const HeaderLen = 4

var (
	ErrShortHeader     = errors.New("frame: short length prefix")
	ErrTruncated       = wire.ErrTruncated
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrTrailingBytes   = errors.New("frame: trailing bytes after frame")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 16 * 1024 * 1024,
	}
}

// Encode returns the length prefix followed by payload. payload is not
// modified. Payloads whose length does not fit the uint32 prefix fail with
// ErrPayloadTooLarge.
func Encode(payload []byte) ([]byte, error) {
	prefix, err := lengthPrefix(len(payload))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, HeaderLen+len(payload))
	buf = append(buf, prefix[:]...)
	return append(buf, payload...), nil
}

func lengthPrefix(n int) ([HeaderLen]byte, error) {
	var prefix [HeaderLen]byte
	if uint64(n) > math.MaxUint32 {
		return prefix, ErrPayloadTooLarge
	}
	binary.BigEndian.PutUint32(prefix[:], uint32(n))
	return prefix, nil
}

// Split takes one frame off the front of a complete buffer. It does not
// reassemble: an incomplete frame is ErrShortHeader or ErrTruncated.
func Split(buf []byte) (payload, rest []byte, err error) {
	if len(buf) < HeaderLen {
		return nil, buf, ErrShortHeader
	}
	n := binary.BigEndian.Uint32(buf[:HeaderLen])
	if uint64(n) > uint64(len(buf)-HeaderLen) {
		return nil, buf, ErrTruncated
	}
	end := HeaderLen + int(n)
	return buf[HeaderLen:end], buf[end:], nil
}

// ReadFrame reads one frame from r. io.EOF is returned unchanged when r is
// exhausted at a frame boundary.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [HeaderLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}
	n := uint64(binary.BigEndian.Uint32(prefix[:]))
	if limits.MaxPayloadBytes > 0 && n > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrTruncated
			}
			return nil, err
		}
	}
	return payload, nil
}

func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if limits.MaxPayloadBytes > 0 && uint64(len(payload)) > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	prefix, err := lengthPrefix(len(payload))
	if err != nil {
		return err
	}
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = w.Write(payload)
	return err
}
