package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	// ErrUnknownType is returned for models or type names that were never registered.
	ErrUnknownType = errors.New("model: unknown type")
	// ErrInvalidType is returned when a type cannot be registered.
	ErrInvalidType = errors.New("model: invalid type")
)

// Extractor derives Metadata from a model instance. It must be a pure
// function of the instance: two calls on an unmodified model return equal
// metadata.
type Extractor func(m any) (Metadata, error)

// Codec converts models to and from their stored bytes.
type Codec interface {
	Marshal(m any) ([]byte, error)
	Unmarshal(data []byte, m any) error
}

// JSONCodec stores models as JSON.
type JSONCodec struct{}

func (JSONCodec) Marshal(m any) ([]byte, error)      { return json.Marshal(m) }
func (JSONCodec) Unmarshal(data []byte, m any) error { return json.Unmarshal(data, m) }

type entry struct {
	name    string
	typ     reflect.Type
	extract Extractor
}

// Registry maps Go types to type names and metadata extractors. It is safe
// for concurrent use and is normally populated once at startup.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*entry
	byName map[string]*entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*entry),
		byName: make(map[string]*entry),
	}
}

// Register associates the dynamic type of prototype with name and extract.
// Names must be non-empty and free of '/' and NUL bytes since they become
// part of store keys.
func (r *Registry) Register(name string, prototype any, extract Extractor) error {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidType, name)
	}
	if prototype == nil || extract == nil {
		return fmt.Errorf("%w: %q needs a prototype and an extractor", ErrInvalidType, name)
	}
	t := reflect.TypeOf(prototype)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: name %q already registered", ErrInvalidType, name)
	}
	if e, exists := r.byType[t]; exists {
		return fmt.Errorf("%w: %s already registered as %q", ErrInvalidType, t, e.name)
	}
	e := &entry{name: name, typ: t, extract: extract}
	r.byType[t] = e
	r.byName[name] = e
	return nil
}

// Register is the typed form of Registry.Register.
func Register[T any](r *Registry, name string, extract func(T) Metadata) error {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	if t.Kind() == reflect.Interface {
		return fmt.Errorf("%w: %q cannot be an interface type", ErrInvalidType, name)
	}
	return r.Register(name, reflect.Zero(t).Interface(), func(m any) (Metadata, error) {
		v, ok := m.(T)
		if !ok {
			return Metadata{}, fmt.Errorf("%w: %T is not %s", ErrUnknownType, m, t)
		}
		return extract(v), nil
	})
}

func (r *Registry) lookup(m any) (*entry, error) {
	r.mu.RLock()
	e, ok := r.byType[reflect.TypeOf(m)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
	return e, nil
}

// TypeName returns the registered name for the model's type.
func (r *Registry) TypeName(m any) (string, error) {
	e, err := r.lookup(m)
	if err != nil {
		return "", err
	}
	return e.name, nil
}

// Describe returns the type name and metadata of m.
func (r *Registry) Describe(m any) (string, Metadata, error) {
	e, err := r.lookup(m)
	if err != nil {
		return "", Metadata{}, err
	}
	md, err := e.extract(m)
	if err != nil {
		return "", Metadata{}, err
	}
	return e.name, md, nil
}

// Known reports whether name is registered.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// Decode allocates a fresh instance of the named type and unmarshals data
// into it. Pointer types come back as a new pointer, value types as a value.
func (r *Registry) Decode(name string, data []byte, codec Codec) (any, error) {
	r.mu.RLock()
	e, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	if e.typ.Kind() == reflect.Pointer {
		ptr := reflect.New(e.typ.Elem())
		if err := codec.Unmarshal(data, ptr.Interface()); err != nil {
			return nil, err
		}
		return ptr.Interface(), nil
	}
	ptr := reflect.New(e.typ)
	if err := codec.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
