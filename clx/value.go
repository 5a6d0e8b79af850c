// Package clx decodes the self-describing binary metadata encoding (known
// as CLX Lite) found inside the attribute, text and experiment chunks of
// ND2 files.
//
// A decoded buffer is a tree of Value. The set of Value implementations is
// closed: Bool, Int, UInt, Float, String, Bytes, Array and *Object. Consumers
// switch on the concrete type or use the As* helpers, which centralise the
// shape checks.
package clx

import (
	"github.com/Velocidex/ordereddict"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindUInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindBool:   "bool",
	KindInt:    "int",
	KindUInt:   "uint",
	KindFloat:  "float",
	KindString: "string",
	KindBytes:  "bytes",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if k <= 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// Value is a node of a decoded tree.
type Value interface {
	Kind() Kind
}

type (
	// Bool is a boolean record.
	Bool bool
	// Int holds signed 32 and 64-bit records.
	Int int64
	// UInt holds unsigned 32 and 64-bit records and pointers.
	UInt uint64
	// Float is a 64-bit floating point record.
	Float float64
	// String is a null-terminated UTF-16 string record.
	String string
	// Bytes is an opaque byte array record.
	Bytes []byte
	// Array is an ordered list of values. Containers whose children are
	// index-named (i0000000000, i0000000001, ...) or unnamed decode to an
	// Array.
	Array []Value
)

func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (UInt) Kind() Kind   { return KindUInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (Bytes) Kind() Kind  { return KindBytes }
func (Array) Kind() Kind  { return KindArray }

// Object is a container of named values. Names keep their insertion order.
// Setting an existing name replaces its value (last write wins).
type Object struct {
	dict *ordereddict.Dict
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{dict: ordereddict.NewDict()}
}

func (o *Object) Kind() Kind { return KindObject }

// Set stores v under name and returns o.
func (o *Object) Set(name string, v Value) *Object {
	o.dict.Set(name, v)
	return o
}

// Get returns the value stored under name.
func (o *Object) Get(name string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.dict.Get(name)
	if !ok {
		return nil, false
	}
	value, ok := v.(Value)
	return value, ok
}

// Has reports whether name is present.
func (o *Object) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// Keys returns the names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.dict.Keys()
}

// Len returns the number of names.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.dict.Len()
}

// MarshalJSON writes the object with its names in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	return o.dict.MarshalJSON()
}

// Uint returns the named value as an unsigned integer.
func (o *Object) Uint(name string) (uint64, bool) {
	v, ok := o.Get(name)
	if !ok {
		return 0, false
	}
	return AsUint(v)
}

// Float returns the named value as a float, converting integers.
func (o *Object) Float(name string) (float64, bool) {
	v, ok := o.Get(name)
	if !ok {
		return 0, false
	}
	return AsFloat(v)
}

// Bool returns the named value as a boolean, converting integers.
func (o *Object) Bool(name string) (bool, bool) {
	v, ok := o.Get(name)
	if !ok {
		return false, false
	}
	return AsBool(v)
}

// Text returns the named value if it is a String.
func (o *Object) Text(name string) (string, bool) {
	v, ok := o.Get(name)
	if !ok {
		return "", false
	}
	return AsString(v)
}

// Object returns the named value if it is an Object.
func (o *Object) Object(name string) (*Object, bool) {
	v, ok := o.Get(name)
	if !ok {
		return nil, false
	}
	return AsObject(v)
}
