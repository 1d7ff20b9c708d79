// Package anyvalue adapts cty values to the recursive scalar, struct and array
// payloads carried by workspace variables.
package anyvalue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// IsEmpty reports whether v carries no type at all (the zero cty.Value).
func IsEmpty(v cty.Value) bool {
	return v.Type() == cty.NilType
}

// Equal compares two values structurally. Empty values are equal only to
// each other.
func Equal(a, b cty.Value) bool {
	if IsEmpty(a) || IsEmpty(b) {
		return IsEmpty(a) && IsEmpty(b)
	}
	return a.RawEquals(b)
}

// ToGo converts a cty.Value into plain Go values (string, float64, bool,
// map[string]any, []any).
func ToGo(val cty.Value) (any, error) {
	if IsEmpty(val) || !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			goVal, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = goVal
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			goVal, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, goVal)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

// FromGo converts plain Go values back into a cty.Value.
func FromGo(data any) (cty.Value, error) {
	if data == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	switch v := data.(type) {
	case string:
		return cty.StringVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case bool:
		return cty.BoolVal(v), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(v))
		for key, val := range v {
			ctyVal, err := FromGo(val)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[key] = ctyVal
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		elems := make([]cty.Value, 0, len(v))
		for _, val := range v {
			ctyVal, err := FromGo(val)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, ctyVal)
		}
		return cty.TupleVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported type for conversion to cty.Value: %T", v)
	}
}

// ParseLiteral reads text typed by a user as a value of type ty. Primitive
// types accept their bare textual form; everything else is read as JSON.
func ParseLiteral(ty cty.Type, text string) (cty.Value, error) {
	text = strings.TrimSpace(text)
	switch ty {
	case cty.String:
		return cty.StringVal(text), nil
	case cty.Number:
		return cty.ParseNumberVal(text)
	case cty.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	}
	if ty == cty.DynamicPseudoType || ty == cty.NilType {
		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return cty.StringVal(text), nil
		}
		return FromGo(decoded)
	}
	return ctyjson.Unmarshal([]byte(text), ty)
}

// Coerce converts v to ty, the way a typed workspace variable accepts a new
// value.
func Coerce(v cty.Value, ty cty.Type) (cty.Value, error) {
	if ty == cty.NilType || ty == cty.DynamicPseudoType {
		return v, nil
	}
	return convert.Convert(v, ty)
}

// Format renders v for humans: strings unquoted, everything else as JSON.
func Format(v cty.Value) string {
	if IsEmpty(v) {
		return ""
	}
	if v.IsNull() {
		return "null"
	}
	if v.Type() == cty.String && v.IsKnown() {
		return v.AsString()
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}

// Encoded is the self-describing wire form of a value.
type Encoded struct {
	Type  json.RawMessage `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Encode marshals v together with its type.
func Encode(v cty.Value) (Encoded, error) {
	if IsEmpty(v) {
		return Encoded{}, nil
	}
	tb, err := ctyjson.MarshalType(v.Type())
	if err != nil {
		return Encoded{}, fmt.Errorf("marshal type: %w", err)
	}
	vb, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return Encoded{}, fmt.Errorf("marshal value: %w", err)
	}
	return Encoded{Type: tb, Value: vb}, nil
}

// Decode is the inverse of Encode.
func Decode(e Encoded) (cty.Value, error) {
	if len(e.Type) == 0 {
		return cty.NilVal, nil
	}
	ty, err := ctyjson.UnmarshalType(e.Type)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unmarshal type: %w", err)
	}
	v, err := ctyjson.Unmarshal(e.Value, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}
