package presence

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/mutker/fanmon/internal/errors"
	"gopkg.in/yaml.v3"
)

// FanDeclaration is one entry of the presence document.
type FanDeclaration struct {
	Name    string         `yaml:"name"`
	Path    string         `yaml:"path"`
	Methods []MethodConfig `yaml:"methods"`
	RPolicy MethodConfig   `yaml:"rpolicy"`
}

// MethodConfig holds the fields of one method or policy entry. Which fields
// are required depends on its type.
type MethodConfig map[string]any

// Type returns the lower-cased type discriminator.
func (c MethodConfig) Type() (string, bool) {
	t, ok := c["type"].(string)
	if !ok || t == "" {
		return "", false
	}
	return strings.ToLower(t), true
}

// String returns a required string field.
func (c MethodConfig) String(key string) (string, error) {
	v, ok := c[key]
	if !ok {
		return "", errors.New().WithData(ErrMissingField, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.New().WithData(ErrInvalidField, key)
	}
	return s, nil
}

// Strings returns a required non-empty list of strings.
func (c MethodConfig) Strings(key string) ([]string, error) {
	v, ok := c[key]
	if !ok {
		return nil, errors.New().WithData(ErrMissingField, key)
	}
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, errors.New().WithData(ErrInvalidField, key)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, errors.New().WithData(ErrInvalidField, key)
		}
		out = append(out, s)
	}
	return out, nil
}

// Uint returns a required non-negative integer field.
func (c MethodConfig) Uint(key string) (uint, error) {
	v, ok := c[key]
	if !ok {
		return 0, errors.New().WithData(ErrMissingField, key)
	}
	return toUint(key, v)
}

// UintOr returns an optional non-negative integer field.
func (c MethodConfig) UintOr(key string, def uint) (uint, error) {
	v, ok := c[key]
	if !ok {
		return def, nil
	}
	return toUint(key, v)
}

func toUint(key string, v any) (uint, error) {
	switch n := v.(type) {
	case int:
		if n >= 0 {
			return uint(n), nil
		}
	case uint64:
		return uint(n), nil
	case float64:
		if n >= 0 && n == float64(uint(n)) {
			return uint(n), nil
		}
	}
	return 0, errors.New().WithData(ErrInvalidField, key)
}

// LoadDocument reads a presence document.
func LoadDocument(path string) ([]FanDeclaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New().Wrap(ErrReadDocument, err)
	}
	return ParseDocument(data)
}

// ParseDocument parses a presence document: an ordered list of fans. JSON
// documents parse as well.
func ParseDocument(data []byte) ([]FanDeclaration, error) {
	errFactory := errors.New()

	var decls []FanDeclaration
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return nil, errFactory.Wrap(ErrParseDocument, err)
	}

	for i, d := range decls {
		switch {
		case d.Name == "":
			return nil, errFactory.WithData(ErrMissingName, fmt.Sprintf("fan %d", i))
		case d.Path == "":
			return nil, errFactory.WithData(ErrMissingPath, d.Name)
		case len(d.Methods) == 0:
			return nil, errFactory.WithData(ErrMissingMethods, d.Name)
		case d.RPolicy == nil:
			return nil, errFactory.WithData(ErrMissingPolicy, d.Name)
		}
	}

	return decls, nil
}
