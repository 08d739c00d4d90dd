package codec

import "sync"

// Registry holds the available decoders, addressable by name or by
// DICOM transfer syntax UID. Registration is additive; the registry is
// never part of decode state.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Decoder
	byUID  map[string]Decoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Decoder),
		byUID:  make(map[string]Decoder),
	}
}

var defaultRegistry = NewRegistry()

// Register adds a decoder to the default registry.
func Register(d Decoder) {
	defaultRegistry.Register(d)
}

// Get retrieves a decoder from the default registry by name.
func Get(name string) (Decoder, error) {
	return defaultRegistry.Get(name)
}

// GetByUID retrieves a decoder from the default registry by transfer
// syntax UID.
func GetByUID(uid string) (Decoder, error) {
	return defaultRegistry.GetByUID(uid)
}

// List returns all decoders in the default registry.
func List() []Decoder {
	return defaultRegistry.List()
}

// Register adds a decoder under both its name and its UID.
func (r *Registry) Register(d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[d.Name()] = d
	r.byUID[d.UID()] = d
}

// Get retrieves a decoder by name.
func (r *Registry) Get(name string) (Decoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return nil, ErrCodecNotFound
	}
	return d, nil
}

// GetByUID retrieves a decoder by transfer syntax UID.
func (r *Registry) GetByUID(uid string) (Decoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byUID[uid]
	if !ok {
		return nil, ErrCodecNotFound
	}
	return d, nil
}

// List returns the registered decoders in no particular order.
func (r *Registry) List() []Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[Decoder]bool, len(r.byName))
	out := make([]Decoder, 0, len(r.byName))
	for _, d := range r.byName {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, d := range r.byUID {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
