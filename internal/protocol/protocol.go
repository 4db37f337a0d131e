package protocol

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/quasselwire/internal/protocol/frame"
	"github.com/danmuck/quasselwire/internal/protocol/variant"
)

// Protocol encodes and decodes datastream packets. It holds no connection
// state; one Protocol may serve any number of goroutines.
type Protocol struct {
	registry *variant.Registry
	limits   variant.Limits
	logger   zerolog.Logger
}

type Option func(*Protocol)

// WithUserTypes registers additional user types. Entries replace the
// built-in decoder of the same name.
func WithUserTypes(types ...variant.UserType) Option {
	return func(p *Protocol) {
		p.registry = p.registry.With(types...)
	}
}

func WithLimits(limits variant.Limits) Option {
	return func(p *Protocol) {
		p.limits = limits
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Protocol) {
		p.logger = logger
	}
}

// New builds a Protocol whose registry is seeded with KnownUserTypes.
func New(opts ...Option) *Protocol {
	p := &Protocol{
		registry: variant.NewRegistry(KnownUserTypes()...),
		limits:   variant.DefaultLimits(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger.Debug().
		Int("user_types", p.registry.Len()).
		Int("max_depth", p.limits.MaxDepth).
		Msg("protocol.New")
	return p
}

// Registry exposes the user type registry for collaborators that decode
// with their own reader.
func (p *Protocol) Registry() *variant.Registry {
	return p.registry
}

// UserTypes lists the registered user type names in sorted order.
func (p *Protocol) UserTypes() []string {
	return p.registry.Names()
}

// WriteVariantList encodes items as a QVariantList variant. The result is not
// framed.
func (p *Protocol) WriteVariantList(items []variant.Value) ([]byte, error) {
	return variant.EncodeVariantList(items, p.limits)
}

// WriteVariantMap encodes pairs as a QVariantMap variant. The result is not
// framed.
func (p *Protocol) WriteVariantMap(pairs map[string]variant.Value) ([]byte, error) {
	return variant.EncodeVariantMap(pairs, p.limits)
}

// WritePacket prefixes payload with its uint32 big-endian length. No
// compression or encryption is applied.
func (p *Protocol) WritePacket(payload []byte) ([]byte, error) {
	return frame.Encode(payload)
}

// ReadPacket strips one length prefix from a complete buffer.
func (p *Protocol) ReadPacket(buf []byte) (payload, rest []byte, err error) {
	return frame.Split(buf)
}

// ReadVariant decodes the single variant at the start of an unframed
// payload.
func (p *Protocol) ReadVariant(payload []byte) (variant.Value, error) {
	return p.readVariant(payload, p.registry)
}

// ReadVariantWith decodes like ReadVariant with overrides layered over the
// registry for this call only.
func (p *Protocol) ReadVariantWith(payload []byte, overrides ...variant.UserType) (variant.Value, error) {
	if len(overrides) == 0 {
		return p.readVariant(payload, p.registry)
	}
	return p.readVariant(payload, p.registry.With(overrides...))
}

func (p *Protocol) readVariant(payload []byte, registry *variant.Registry) (variant.Value, error) {
	r := variant.NewReader(payload, registry, p.limits)
	v, err := r.ReadVariant()
	if err != nil {
		return variant.Value{}, err
	}
	if rest := r.Remaining(); rest > 0 {
		p.logger.Trace().
			Int("payload_bytes", len(payload)).
			Int("trailing_bytes", rest).
			Msg("protocol.ReadVariant trailing bytes ignored")
	}
	return v, nil
}
