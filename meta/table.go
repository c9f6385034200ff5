package meta

import (
	"fmt"
	"strings"
	"sync"
)

// Resolver looks up types and methods by their full names.
type Resolver interface {
	Type(name string) (*Type, error)
	Method(name string) (*Method, error)
}

// Table is an in-memory Resolver. It is safe for concurrent use.
type Table struct {
	mux     sync.RWMutex
	types   map[string]*Type
	methods map[string]*Method
}

// NewTable returns a Table pre-populated with the built-in types.
func NewTable() *Table {
	t := &Table{types: map[string]*Type{}, methods: map[string]*Method{}}
	for _, b := range builtins {
		t.types[b.FullName()] = b
	}
	return t
}

// AddType registers typ under its full name.
func (t *Table) AddType(typ *Type) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.types[typ.FullName()] = typ
}

// AddMethod registers m under its owner-qualified name, "Type::Name".
func (t *Table) AddMethod(m *Method) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.methods[methodKey(m)] = m
}

func (t *Table) Type(name string) (*Type, error) {
	t.mux.RLock()
	defer t.mux.RUnlock()
	if typ, ok := t.types[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("type %q not found", name)
}

func (t *Table) Method(name string) (*Method, error) {
	t.mux.RLock()
	defer t.mux.RUnlock()
	if m, ok := t.methods[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("method %q not found", name)
}

func methodKey(m *Method) string {
	if m.DeclaringType == nil {
		return m.Name
	}
	return m.DeclaringType.FullName() + "::" + m.Name
}

// LookupType resolves name through r. Names may carry the array, pointer
// and byref suffixes FullName produces, e.g. "System.Byte[]&".
func LookupType(r Resolver, name string) (*Type, error) {
	switch {
	case strings.HasSuffix(name, "[]"):
		elem, err := LookupType(r, strings.TrimSuffix(name, "[]"))
		if err != nil {
			return nil, err
		}
		return ArrayOf(elem), nil
	case strings.HasSuffix(name, "*"):
		elem, err := LookupType(r, strings.TrimSuffix(name, "*"))
		if err != nil {
			return nil, err
		}
		return PointerTo(elem), nil
	case strings.HasSuffix(name, "&"):
		elem, err := LookupType(r, strings.TrimSuffix(name, "&"))
		if err != nil {
			return nil, err
		}
		return ByRefTo(elem), nil
	}
	return r.Type(name)
}

// LookupField resolves a field named "Type::Name" through r.
func LookupField(r Resolver, name string) (*Field, error) {
	i := strings.LastIndex(name, "::")
	if i < 0 {
		return nil, fmt.Errorf("field %q is not qualified by its type", name)
	}
	t, err := LookupType(r, name[:i])
	if err != nil {
		return nil, err
	}
	for _, f := range t.Fields {
		if f.Name == name[i+2:] {
			return f, nil
		}
	}
	return nil, fmt.Errorf("field %q not found", name)
}
