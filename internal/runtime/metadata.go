package runtime

// metadataKey identifies one stored entry: a target value (by identity),
// an optional property key (empty string for type-level metadata), and
// the metadata key itself (spec §4.7 "Reflection metadata").
type metadataKey struct {
	target      interface{}
	propertyKey string
	metaKey     string
}

// MetadataRegistry is the process-wide singleton reflection metadata
// store (spec §5 names it alongside the timer Clock and EventEmitter
// listener maps as one of the runtime's few pieces of shared state).
type MetadataRegistry struct {
	entries map[metadataKey]interface{}
	// order preserves per-(target,propertyKey) insertion order so
	// GetKeys returns metadata keys in definition order.
	order map[ownerKey][]string
}

type ownerKey struct {
	target      interface{}
	propertyKey string
}

// Metadata is the single shared registry instance compiled programs read
// and write through the `Reflect` built-in.
var Metadata = NewMetadataRegistry()

func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{
		entries: map[metadataKey]interface{}{},
		order:   map[ownerKey][]string{},
	}
}

// Define attaches metaKey=value to target (and optionally one of its
// properties), overwriting any prior value for the same key.
func (r *MetadataRegistry) Define(metaKey string, value interface{}, target interface{}, propertyKey string) {
	k := metadataKey{target: target, propertyKey: propertyKey, metaKey: metaKey}
	if _, exists := r.entries[k]; !exists {
		ok := ownerKey{target: target, propertyKey: propertyKey}
		r.order[ok] = append(r.order[ok], metaKey)
	}
	r.entries[k] = value
}

// HasOwn reports whether metaKey is defined directly on target/propertyKey.
func (r *MetadataRegistry) HasOwn(metaKey string, target interface{}, propertyKey string) bool {
	_, ok := r.entries[metadataKey{target: target, propertyKey: propertyKey, metaKey: metaKey}]
	return ok
}

// Has reports whether metaKey is defined on target/propertyKey or
// inherited from a prototype chain; this subset has no prototype chain
// for metadata purposes, so Has is equivalent to HasOwn.
func (r *MetadataRegistry) Has(metaKey string, target interface{}, propertyKey string) bool {
	return r.HasOwn(metaKey, target, propertyKey)
}

// GetOwn returns the value defined directly, or (nil, false) if absent.
func (r *MetadataRegistry) GetOwn(metaKey string, target interface{}, propertyKey string) (interface{}, bool) {
	v, ok := r.entries[metadataKey{target: target, propertyKey: propertyKey, metaKey: metaKey}]
	return v, ok
}

// Get returns the value for metaKey, searching only target/propertyKey
// itself (no prototype chain in this subset).
func (r *MetadataRegistry) Get(metaKey string, target interface{}, propertyKey string) (interface{}, bool) {
	return r.GetOwn(metaKey, target, propertyKey)
}

// Delete removes metaKey from target/propertyKey, reporting whether it
// was present.
func (r *MetadataRegistry) Delete(metaKey string, target interface{}, propertyKey string) bool {
	k := metadataKey{target: target, propertyKey: propertyKey, metaKey: metaKey}
	if _, ok := r.entries[k]; !ok {
		return false
	}
	delete(r.entries, k)
	ok := ownerKey{target: target, propertyKey: propertyKey}
	keys := r.order[ok]
	for i, mk := range keys {
		if mk == metaKey {
			r.order[ok] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	return true
}

// GetKeys returns every metadata key defined on target/propertyKey, in
// definition order.
func (r *MetadataRegistry) GetKeys(target interface{}, propertyKey string) []string {
	ok := ownerKey{target: target, propertyKey: propertyKey}
	out := make([]string, len(r.order[ok]))
	copy(out, r.order[ok])
	return out
}
