package comparator

import (
	"encoding/json"
	"math"
	"strings"
)

// Kind tags one node of a parsed output value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Value is the tagged representation an output string is parsed into before
// structural comparison. It keeps the comparison policy total: every JSON
// document maps onto exactly one tree of these nodes.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Str    string
	Array  []Value
	Object map[string]Value
}

// parseJSON parses s into a Value tree. The whole input must be a single
// valid JSON document.
func parseJSON(s string) (Value, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, false
	}
	// Trailing garbage after the document means s is not JSON.
	if dec.More() {
		return Value{}, false
	}
	return fromDecoded(raw), true
}

func fromDecoded(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Value{Kind: Null}
	case bool:
		return Value{Kind: Bool, Bool: v}
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{Kind: String, Str: v.String()}
		}
		return Value{Kind: Number, Number: f}
	case string:
		return Value{Kind: String, Str: v}
	case []interface{}:
		arr := make([]Value, len(v))
		for i, elem := range v {
			arr[i] = fromDecoded(elem)
		}
		return Value{Kind: Array, Array: arr}
	case map[string]interface{}:
		obj := make(map[string]Value, len(v))
		for key, elem := range v {
			obj[key] = fromDecoded(elem)
		}
		return Value{Kind: Object, Object: obj}
	default:
		return Value{Kind: Null}
	}
}

// equal compares two value trees. Object key order is irrelevant, array
// element order is significant, numbers compare within epsilon.
func equal(a, b Value, epsilon float64) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Null:
		return true
	case Bool:
		return a.Bool == b.Bool
	case Number:
		return math.Abs(a.Number-b.Number) <= epsilon
	case String:
		return a.Str == b.Str
	case Array:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !equal(a.Array[i], b.Array[i], epsilon) {
				return false
			}
		}
		return true
	case Object:
		if len(a.Object) != len(b.Object) {
			return false
		}
		for key, av := range a.Object {
			bv, ok := b.Object[key]
			if !ok || !equal(av, bv, epsilon) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
