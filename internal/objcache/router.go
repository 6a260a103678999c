package objcache

// Router matches inbound signals against registered objects and applies
// the filtered handlers to the cache.
type Router struct {
	cache        Setter
	byPath       map[string][]Object
	interfaceSub []Object
}

// NewRouter creates a router that updates c.
func NewRouter(c Setter) *Router {
	return &Router{
		cache:  c,
		byPath: make(map[string][]Object),
	}
}

// Subscribe registers obj for both properties-changed signals on its path
// and interfaces-added signals naming its path.
func (r *Router) Subscribe(obj Object) {
	for _, o := range r.byPath[obj.Path] {
		if o == obj {
			return
		}
	}
	r.byPath[obj.Path] = append(r.byPath[obj.Path], obj)
	r.interfaceSub = append(r.interfaceSub, obj)
}

// PropertiesChanged applies a signal emitted by the object at path and
// returns how many registered objects were updated.
func (r *Router) PropertiesChanged(path string, msg PropertiesChangedMsg) int {
	updated := 0
	for _, obj := range r.byPath[path] {
		if PropertiesChanged(msg, obj, r.cache) {
			updated++
		}
	}
	return updated
}

// InterfacesAdded applies an interfaces-added signal and returns how many
// registered objects were updated.
func (r *Router) InterfacesAdded(msg InterfacesAddedMsg) int {
	updated := 0
	for _, obj := range r.interfaceSub {
		if InterfacesAdded(msg, obj, r.cache) {
			updated++
		}
	}
	return updated
}
