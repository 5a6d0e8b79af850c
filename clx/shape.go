package clx

import (
	"bytes"
	"math"
	"sort"
	"strconv"
)

// AsObject returns v as an Object.
func AsObject(v Value) (*Object, bool) {
	o, ok := v.(*Object)
	return o, ok && o != nil
}

// AsArray returns v as an Array.
func AsArray(v Value) (Array, bool) {
	a, ok := v.(Array)
	return a, ok
}

// AsString returns v as a string.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// AsUint returns v as an unsigned integer. Negative integers are rejected.
func AsUint(v Value) (uint64, bool) {
	switch t := v.(type) {
	case UInt:
		return uint64(t), true
	case Int:
		if t < 0 {
			return 0, false
		}
		return uint64(t), true
	default:
		return 0, false
	}
}

// AsInt returns v as a signed integer.
func AsInt(v Value) (int64, bool) {
	switch t := v.(type) {
	case Int:
		return int64(t), true
	case UInt:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	default:
		return 0, false
	}
}

// AsFloat returns v as a float. Integers are converted.
func AsFloat(v Value) (float64, bool) {
	switch t := v.(type) {
	case Float:
		return float64(t), true
	case UInt:
		return float64(t), true
	case Int:
		return float64(t), true
	default:
		return 0, false
	}
}

// AsBool returns v as a boolean. Integers are true when non-zero.
func AsBool(v Value) (bool, bool) {
	switch t := v.(type) {
	case Bool:
		return bool(t), true
	case UInt:
		return t != 0, true
	case Int:
		return t != 0, true
	default:
		return false, false
	}
}

// Elements returns the members of a sequence-like value: the elements of
// an Array, or the values of an Object in sorted name order.
func Elements(v Value) []Value {
	switch t := v.(type) {
	case Array:
		return t
	case *Object:
		keys := SortedKeys(t)
		values := make([]Value, 0, len(keys))
		for _, k := range keys {
			e, _ := t.Get(k)
			values = append(values, e)
		}
		return values
	default:
		return nil
	}
}

// SortedKeys returns the names of o sorted so that index names
// (i0000000002 < i0000000010) come out in numeric order.
func SortedKeys(o *Object) []string {
	keys := append([]string(nil), o.Keys()...)
	sort.SliceStable(keys, func(i, j int) bool {
		a, aok := IndexOf(keys[i])
		b, bok := IndexOf(keys[j])
		if aok && bok {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

// IndexOf parses an index name of the form i0000000000.
func IndexOf(name string) (int, bool) {
	if len(name) != indexNameLength || name[0] != 'i' {
		return 0, false
	}
	n, err := strconv.ParseUint(name[1:], 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Equal reports whether a and b are structurally equal trees.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Bool, Int, UInt, String:
		return a == b
	case Float:
		y := b.(Float)
		return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y := b.(*Object)
		xk, yk := x.Keys(), y.Keys()
		if len(xk) != len(yk) {
			return false
		}
		for i, k := range xk {
			if yk[i] != k {
				return false
			}
			xv, _ := x.Get(k)
			yv, _ := y.Get(k)
			if !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
