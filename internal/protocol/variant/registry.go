package variant

import "sort"

// DecodeFunc consumes exactly one user-type payload from r.
type DecodeFunc func(r *Reader) (any, error)

// UserType binds a wire type name to its decode routine.
type UserType struct {
	Name   string
	Decode DecodeFunc
}

// Registry maps user type names to decode routines. It is immutable once
// built and safe for concurrent use.
type Registry struct {
	entries map[string]DecodeFunc
}

// NewRegistry builds a registry. Later entries replace earlier ones with the
// same name; entries with an empty name or nil routine are skipped.
func NewRegistry(types ...UserType) *Registry {
	reg := &Registry{entries: make(map[string]DecodeFunc, len(types))}
	for _, ut := range types {
		if ut.Name == "" || ut.Decode == nil {
			continue
		}
		reg.entries[ut.Name] = ut.Decode
	}
	return reg
}

// With returns a new registry holding r's entries overlaid with types.
func (r *Registry) With(types ...UserType) *Registry {
	merged := make([]UserType, 0, r.Len()+len(types))
	if r != nil {
		for name, fn := range r.entries {
			merged = append(merged, UserType{Name: name, Decode: fn})
		}
	}
	merged = append(merged, types...)
	return NewRegistry(merged...)
}

func (r *Registry) Lookup(name string) (DecodeFunc, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.entries[name]
	return fn, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
