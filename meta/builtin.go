package meta

// Built-in types of the core library. Their identity is shared, so compare by
// Kind rather than by pointer when the type may come from a resolver.
var (
	Void    = &Type{Kind: KindVoid, Namespace: "System", Name: "Void"}
	Boolean = &Type{Kind: KindBoolean, Namespace: "System", Name: "Boolean"}
	Char    = &Type{Kind: KindChar, Namespace: "System", Name: "Char"}
	SByte   = &Type{Kind: KindInt8, Namespace: "System", Name: "SByte"}
	Byte    = &Type{Kind: KindUInt8, Namespace: "System", Name: "Byte"}
	Int16   = &Type{Kind: KindInt16, Namespace: "System", Name: "Int16"}
	UInt16  = &Type{Kind: KindUInt16, Namespace: "System", Name: "UInt16"}
	Int32   = &Type{Kind: KindInt32, Namespace: "System", Name: "Int32"}
	UInt32  = &Type{Kind: KindUInt32, Namespace: "System", Name: "UInt32"}
	Int64   = &Type{Kind: KindInt64, Namespace: "System", Name: "Int64"}
	UInt64  = &Type{Kind: KindUInt64, Namespace: "System", Name: "UInt64"}
	Single  = &Type{Kind: KindFloat32, Namespace: "System", Name: "Single"}
	Double  = &Type{Kind: KindFloat64, Namespace: "System", Name: "Double"}
	IntPtr  = &Type{Kind: KindIntPtr, Namespace: "System", Name: "IntPtr"}
	UIntPtr = &Type{Kind: KindUIntPtr, Namespace: "System", Name: "UIntPtr"}
	String  = &Type{Kind: KindString, Namespace: "System", Name: "String"}
	Object  = &Type{Kind: KindObject, Namespace: "System", Name: "Object"}
)

var builtins = []*Type{Void, Boolean, Char, SByte, Byte, Int16, UInt16, Int32, UInt32,
	Int64, UInt64, Single, Double, IntPtr, UIntPtr, String, Object}

// ArrayOf returns the single-dimension zero-based array type of elem.
func ArrayOf(elem *Type) *Type {
	return &Type{Kind: KindArray, Elem: elem}
}

// PointerTo returns the unmanaged pointer type of elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: KindPointer, Elem: elem}
}

// ByRefTo returns the managed reference type of elem.
func ByRefTo(elem *Type) *Type {
	return &Type{Kind: KindByRef, Elem: elem}
}
