// Package program loads the TOML description of the types and methods to
// compile. A description looks like:
//
//	arch = "x86"
//
//	[[type]]
//	namespace = "Kernel"
//	name = "Port"
//	kind = "class"
//
//	  [[type.field]]
//	  name = "Number"
//	  type = "System.UInt16"
//
//	[[method]]
//	type = "Kernel.Port"
//	name = "Read"
//	return = "System.Byte"
//	body = """
//	IL_0000: ldarg.0
//	IL_0001: ldfld Kernel.Port::Number
//	IL_0006: conv.u1
//	IL_0007: ret
//	"""
package program

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/platform"
	"github.com/atomixos/ilc/meta"
)

// Program is a loaded description.
type Program struct {
	// Architecture is empty unless the description selects one.
	Architecture string
	// Parallelism is zero unless the description sets it.
	Parallelism int
	Runtime     platform.RuntimeSymbols
	Table       *meta.Table
	// Bodies are the methods with a body, in declaration order.
	Bodies []*il.Body
}

type description struct {
	Arch        string         `toml:"arch"`
	Parallelism int            `toml:"parallelism"`
	Runtime     runtimeSymbols `toml:"runtime"`
	Types       []typeDecl     `toml:"type"`
	Methods     []methodDecl   `toml:"method"`
}

type runtimeSymbols struct {
	Allocate         string `toml:"allocate"`
	NewArray         string `toml:"new_array"`
	IsInstance       string `toml:"is_instance"`
	CastClass        string `toml:"cast_class"`
	CurrentException string `toml:"current_exception"`
}

type typeDecl struct {
	Namespace string      `toml:"namespace"`
	Name      string      `toml:"name"`
	Kind      string      `toml:"kind"`
	Base      string      `toml:"base"`
	Elem      string      `toml:"elem"`
	Size      int         `toml:"size"`
	Fields    []fieldDecl `toml:"field"`
}

type fieldDecl struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Static bool   `toml:"static"`
}

type methodDecl struct {
	Type        string       `toml:"type"`
	Name        string       `toml:"name"`
	Params      []string     `toml:"params"`
	Return      string       `toml:"return"`
	Static      bool         `toml:"static"`
	Virtual     bool         `toml:"virtual"`
	Slot        int          `toml:"slot"`
	Convention  string       `toml:"convention"`
	NoException bool         `toml:"noexception"`
	Locals      []string     `toml:"locals"`
	InitLocals  bool         `toml:"initlocals"`
	Clauses     []clauseDecl `toml:"clause"`
	Body        string       `toml:"body"`
}

type clauseDecl struct {
	Kind         string `toml:"kind"`
	TryStart     int    `toml:"try_start"`
	TryEnd       int    `toml:"try_end"`
	HandlerStart int    `toml:"handler_start"`
	HandlerEnd   int    `toml:"handler_end"`
	Catch        string `toml:"catch"`
}

var typeKinds = map[string]meta.Kind{
	"class":     meta.KindClass,
	"interface": meta.KindInterface,
	"valuetype": meta.KindValueType,
	"enum":      meta.KindEnum,
}

var clauseKinds = map[string]meta.ClauseKind{
	"catch":   meta.ClauseCatch,
	"finally": meta.ClauseFinally,
	"fault":   meta.ClauseFault,
	"filter":  meta.ClauseFilter,
}

// LoadFile loads the description at path.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	return Load(data)
}

// Load parses a description. Types may refer to each other in any order;
// method bodies may call any declared method.
func Load(data []byte) (*Program, error) {
	var d description
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}

	p := &Program{
		Architecture: d.Arch,
		Parallelism:  d.Parallelism,
		Runtime: platform.RuntimeSymbols{
			Allocate:         d.Runtime.Allocate,
			NewArray:         d.Runtime.NewArray,
			IsInstance:       d.Runtime.IsInstance,
			CastClass:        d.Runtime.CastClass,
			CurrentException: d.Runtime.CurrentException,
		},
		Table: meta.NewTable(),
	}

	types, err := p.declareTypes(d.Types)
	if err != nil {
		return nil, err
	}
	for i := range d.Types {
		if err := p.defineType(types[i], &d.Types[i]); err != nil {
			return nil, fmt.Errorf("type %s: %w", types[i].FullName(), err)
		}
	}

	methods := make([]*meta.Method, len(d.Methods))
	for i := range d.Methods {
		if methods[i], err = p.declareMethod(&d.Methods[i]); err != nil {
			return nil, fmt.Errorf("method %s: %w", d.Methods[i].Name, err)
		}
	}
	for i, m := range methods {
		if d.Methods[i].Body == "" {
			continue
		}
		body, err := il.ParseBody(m, d.Methods[i].Body, p.Table)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.FullName(), err)
		}
		p.Bodies = append(p.Bodies, body)
	}
	return p, nil
}

// declareTypes registers every type by name so that definitions can refer
// to types declared later.
func (p *Program) declareTypes(decls []typeDecl) ([]*meta.Type, error) {
	ret := make([]*meta.Type, len(decls))
	for i := range decls {
		d := &decls[i]
		kind, ok := typeKinds[d.Kind]
		if !ok {
			return nil, fmt.Errorf("type %s: unknown kind %q", d.Name, d.Kind)
		}
		ret[i] = &meta.Type{Kind: kind, Namespace: d.Namespace, Name: d.Name, Size: d.Size}
		if _, err := p.Table.Type(ret[i].FullName()); err == nil {
			return nil, fmt.Errorf("type %s: declared twice", ret[i].FullName())
		}
		p.Table.AddType(ret[i])
	}
	return ret, nil
}

func (p *Program) defineType(t *meta.Type, d *typeDecl) (err error) {
	if d.Base != "" {
		if t.Base, err = meta.LookupType(p.Table, d.Base); err != nil {
			return
		}
	}
	if d.Elem != "" {
		if t.Elem, err = meta.LookupType(p.Table, d.Elem); err != nil {
			return
		}
	}
	for _, fd := range d.Fields {
		f := &meta.Field{Name: fd.Name, DeclaringType: t, IsStatic: fd.Static}
		if f.Type, err = meta.LookupType(p.Table, fd.Type); err != nil {
			return fmt.Errorf("field %s: %w", fd.Name, err)
		}
		t.Fields = append(t.Fields, f)
	}
	return
}

func (p *Program) declareMethod(d *methodDecl) (*meta.Method, error) {
	m := &meta.Method{
		Name:       d.Name,
		IsStatic:   d.Static,
		IsVirtual:  d.Virtual,
		VTableSlot: d.Slot,
		InitLocals: d.InitLocals,
	}
	if d.NoException {
		m.Attributes |= meta.AttributeNoException
	}

	var err error
	if d.Type != "" {
		if m.DeclaringType, err = meta.LookupType(p.Table, d.Type); err != nil {
			return nil, err
		}
	}
	if m.CallingConvention, err = meta.ParseCallingConvention(d.Convention); err != nil {
		return nil, err
	}
	if d.Return != "" {
		if m.Return, err = meta.LookupType(p.Table, d.Return); err != nil {
			return nil, err
		}
	}
	if m.Params, err = p.lookupTypes(d.Params); err != nil {
		return nil, err
	}
	if m.Locals, err = p.lookupTypes(d.Locals); err != nil {
		return nil, err
	}
	for _, cd := range d.Clauses {
		c, err := p.clause(&cd)
		if err != nil {
			return nil, err
		}
		m.Clauses = append(m.Clauses, c)
	}

	if m.IsVirtual {
		if m.DeclaringType == nil || m.IsStatic {
			return nil, fmt.Errorf("virtual methods must be instance methods of a type")
		}
		setSlot(m.DeclaringType, m)
	}
	p.Table.AddMethod(m)
	return m, nil
}

// setSlot places the virtual method m in its vtable slot.
func setSlot(t *meta.Type, m *meta.Method) {
	for len(t.Methods) <= m.VTableSlot {
		t.Methods = append(t.Methods, nil)
	}
	t.Methods[m.VTableSlot] = m
}

func (p *Program) lookupTypes(names []string) ([]*meta.Type, error) {
	var ret []*meta.Type
	for _, n := range names {
		t, err := meta.LookupType(p.Table, n)
		if err != nil {
			return nil, err
		}
		ret = append(ret, t)
	}
	return ret, nil
}

func (p *Program) clause(d *clauseDecl) (meta.ExceptionClause, error) {
	kind, ok := clauseKinds[d.Kind]
	if !ok {
		return meta.ExceptionClause{}, fmt.Errorf("unknown clause kind %q", d.Kind)
	}
	c := meta.ExceptionClause{
		Kind:         kind,
		TryStart:     d.TryStart,
		TryEnd:       d.TryEnd,
		HandlerStart: d.HandlerStart,
		HandlerEnd:   d.HandlerEnd,
	}
	if d.Catch != "" {
		t, err := meta.LookupType(p.Table, d.Catch)
		if err != nil {
			return c, err
		}
		c.CatchType = t
	}
	return c, nil
}
