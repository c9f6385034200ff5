package meta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestType_FullName(t *testing.T) {
	port := &Type{Kind: KindClass, Namespace: "Kernel", Name: "Port"}
	tests := []struct {
		typ *Type
		exp string
	}{
		{typ: Int32, exp: "System.Int32"},
		{typ: port, exp: "Kernel.Port"},
		{typ: ArrayOf(Byte), exp: "System.Byte[]"},
		{typ: PointerTo(UInt16), exp: "System.UInt16*"},
		{typ: ByRefTo(port), exp: "Kernel.Port&"},
		{typ: ArrayOf(ArrayOf(Int32)), exp: "System.Int32[][]"},
		{typ: &Type{Kind: KindValueType, Name: "Global"}, exp: "Global"},
		{typ: nil, exp: "<nil>"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.exp, func(t *testing.T) {
			require.Equal(t, tc.exp, tc.typ.FullName())
		})
	}
}

func TestType_IsValueType(t *testing.T) {
	for _, typ := range []*Type{Int32, Double, Boolean, IntPtr, PointerTo(Byte), {Kind: KindValueType}} {
		require.True(t, typ.IsValueType(), typ.Kind.String())
	}
	for _, typ := range []*Type{Void, String, Object, ArrayOf(Int32), {Kind: KindInterface}} {
		require.False(t, typ.IsValueType(), typ.Kind.String())
	}
	require.True(t, Void.IsVoid())
	require.True(t, (*Type)(nil).IsVoid())
	require.False(t, Int32.IsVoid())
}

func TestKind(t *testing.T) {
	require.Equal(t, "native int", KindIntPtr.String())
	require.Equal(t, "unknown", Kind(200).String())
	require.True(t, KindFloat64.IsFloat())
	require.False(t, KindInt64.IsFloat())
	require.True(t, KindArray.IsReference())
	require.False(t, KindByRef.IsReference())
}

func TestType_InstanceFields(t *testing.T) {
	port := &Type{Kind: KindClass, Namespace: "Kernel", Name: "Port"}
	number := &Field{Name: "Number", Type: UInt16, DeclaringType: port}
	count := &Field{Name: "Count", Type: Int32, DeclaringType: port, IsStatic: true}
	value := &Field{Name: "Value", Type: Int32, DeclaringType: port}
	port.Fields = []*Field{number, count, value}

	require.Equal(t, []*Field{number, value}, port.InstanceFields())
	require.Equal(t, "Kernel.Port::Count", count.String())
	require.Equal(t, "Kernel.Port::Count", count.Symbol())
	require.Equal(t, "Kernel.Port", port.Symbol())
}

func TestMethod_FullName(t *testing.T) {
	math := &Type{Kind: KindClass, Namespace: "Kernel", Name: "Math"}
	m := &Method{Name: "Add", DeclaringType: math, Params: []*Type{Int32, Int32}, Return: Int32, IsStatic: true}
	require.Equal(t, "System.Int32 Kernel.Math::Add(System.Int32,System.Int32)", m.FullName())
	require.Equal(t, "System.Int32_Kernel.Math::Add(System.Int32_System.Int32)", m.Symbol())

	free := &Method{Name: "Halt"}
	require.Equal(t, "System.Void Halt()", free.String())
	require.Equal(t, Void, free.ReturnType())
	require.True(t, free.HasThis())
	require.False(t, free.NoException())

	free.Attributes = AttributeNoException
	require.True(t, free.NoException())
}

func TestParseCallingConvention(t *testing.T) {
	for _, c := range []CallingConvention{
		CallingConventionDefault, CallingConventionWinapi, CallingConventionCdecl,
		CallingConventionStdCall, CallingConventionThisCall, CallingConventionFastCall,
	} {
		actual, err := ParseCallingConvention(c.String())
		require.NoError(t, err)
		require.Equal(t, c, actual)
	}

	actual, err := ParseCallingConvention("StdCall")
	require.NoError(t, err)
	require.Equal(t, CallingConventionStdCall, actual)

	_, err = ParseCallingConvention("vectorcall")
	require.EqualError(t, err, `unknown calling convention "vectorcall"`)
	require.Equal(t, "callingconvention(9)", CallingConvention(9).String())
}

func TestExceptionClause_Contains(t *testing.T) {
	c := &ExceptionClause{Kind: ClauseCatch, TryStart: 2, TryEnd: 8}
	require.False(t, c.Contains(1))
	require.True(t, c.Contains(2))
	require.True(t, c.Contains(7))
	require.False(t, c.Contains(8))
	require.Equal(t, "finally", ClauseFinally.String())
}

func TestTable(t *testing.T) {
	table := NewTable()

	typ, err := table.Type("System.Int32")
	require.NoError(t, err)
	require.Equal(t, Int32, typ)

	_, err = table.Type("Kernel.Port")
	require.EqualError(t, err, `type "Kernel.Port" not found`)

	port := &Type{Kind: KindClass, Namespace: "Kernel", Name: "Port"}
	table.AddType(port)
	typ, err = table.Type("Kernel.Port")
	require.NoError(t, err)
	require.Equal(t, port, typ)

	read := &Method{Name: "Read", DeclaringType: port, Return: Byte}
	table.AddMethod(read)
	m, err := table.Method("Kernel.Port::Read")
	require.NoError(t, err)
	require.Equal(t, read, m)

	_, err = table.Method("Kernel.Port::Write")
	require.EqualError(t, err, `method "Kernel.Port::Write" not found`)
}

func TestLookupType(t *testing.T) {
	table := NewTable()
	typ, err := LookupType(table, "System.Int32[]&")
	require.NoError(t, err)
	require.Equal(t, KindByRef, typ.Kind)
	require.Equal(t, KindArray, typ.Elem.Kind)
	require.Equal(t, Int32, typ.Elem.Elem)

	typ, err = LookupType(table, "System.Byte*")
	require.NoError(t, err)
	require.Equal(t, "System.Byte*", typ.FullName())

	_, err = LookupType(table, "Kernel.Pin[]")
	require.EqualError(t, err, `type "Kernel.Pin" not found`)
}

func TestLookupField(t *testing.T) {
	table := NewTable()
	port := &Type{Kind: KindClass, Namespace: "Kernel", Name: "Port"}
	number := &Field{Name: "Number", Type: UInt16, DeclaringType: port}
	port.Fields = []*Field{number}
	table.AddType(port)

	f, err := LookupField(table, "Kernel.Port::Number")
	require.NoError(t, err)
	require.Equal(t, number, f)

	_, err = LookupField(table, "Kernel.Pin::Number")
	require.EqualError(t, err, `type "Kernel.Pin" not found`)
}
