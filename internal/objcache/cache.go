// Package objcache holds the last known value of every watched object
// property and notifies watchers when a property is set.
//
// The cache is owned by the event loop goroutine and is not safe for
// concurrent use.
package objcache

// Object names one property of one interface on one object path.
type Object struct {
	Path      string
	Interface string
	Property  string
}

// Setter is the property-update half of the cache, used by signal handlers.
type Setter interface {
	SetProperty(path, intf, prop string, value any)
}

// Cache stores property values keyed by path, interface and property.
type Cache struct {
	objects  map[string]map[string]map[string]any
	watchers map[Object][]func(any)
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		objects:  make(map[string]map[string]map[string]any),
		watchers: make(map[Object][]func(any)),
	}
}

// SetProperty stores value and runs every watcher registered for the
// property, in registration order. Watchers run even when the value is
// unchanged: each update is a new reading.
func (c *Cache) SetProperty(path, intf, prop string, value any) {
	intfs, ok := c.objects[path]
	if !ok {
		intfs = make(map[string]map[string]any)
		c.objects[path] = intfs
	}
	props, ok := intfs[intf]
	if !ok {
		props = make(map[string]any)
		intfs[intf] = props
	}
	props[prop] = value

	for _, fn := range c.watchers[Object{Path: path, Interface: intf, Property: prop}] {
		fn(value)
	}
}

// Property returns the cached value, if any.
func (c *Cache) Property(path, intf, prop string) (any, bool) {
	v, ok := c.objects[path][intf][prop]
	return v, ok
}

// Watch registers fn to run on every update of obj.
func (c *Cache) Watch(obj Object, fn func(any)) {
	c.watchers[obj] = append(c.watchers[obj], fn)
}

// Float returns a numeric cached property as float64.
func (c *Cache) Float(path, intf, prop string) (float64, bool) {
	v, ok := c.Property(path, intf, prop)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// ToFloat converts the numeric property types carried by signals to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}
