package objcache

// PropertiesChangedMsg is the body of a properties-changed signal emitted by
// one object: the interface and the changed properties.
type PropertiesChangedMsg struct {
	Interface  string         `cbor:"interface" json:"interface"`
	Properties map[string]any `cbor:"properties" json:"properties"`
}

// InterfacesAddedMsg is the body of an interfaces-added signal: the object
// path and, per interface, its properties.
type InterfacesAddedMsg struct {
	Path       string                    `cbor:"path" json:"path"`
	Interfaces map[string]map[string]any `cbor:"interfaces" json:"interfaces"`
}

// PropertiesChanged updates the cache with obj's property when msg carries
// it. It returns true only when the cache was updated.
func PropertiesChanged(msg PropertiesChangedMsg, obj Object, c Setter) bool {
	if msg.Interface != obj.Interface {
		return false
	}

	value, ok := msg.Properties[obj.Property]
	if !ok {
		return false
	}

	c.SetProperty(obj.Path, obj.Interface, obj.Property, value)
	return true
}

// InterfacesAdded updates the cache with obj's property when msg adds it.
// It returns true only when the cache was updated.
func InterfacesAdded(msg InterfacesAddedMsg, obj Object, c Setter) bool {
	if msg.Path != obj.Path {
		return false
	}

	props, ok := msg.Interfaces[obj.Interface]
	if !ok {
		return false
	}

	value, ok := props[obj.Property]
	if !ok {
		return false
	}

	c.SetProperty(obj.Path, obj.Interface, obj.Property, value)
	return true
}
