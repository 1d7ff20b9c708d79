package anyvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, Equal(cty.NilVal, cty.NilVal))
	assert.False(t, Equal(cty.NilVal, cty.StringVal("")))
	assert.True(t, Equal(cty.NumberIntVal(42), cty.NumberIntVal(42)))
	assert.False(t, Equal(cty.NumberIntVal(42), cty.NumberIntVal(43)))
	assert.True(t, Equal(
		cty.ObjectVal(map[string]cty.Value{"a": cty.True}),
		cty.ObjectVal(map[string]cty.Value{"a": cty.True}),
	))
}

func TestGoRoundTrip(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"name":  "pump",
		"speed": 12.5,
		"on":    true,
		"tags":  []any{"a", "b"},
	}
	v, err := FromGo(in)
	require.NoError(t, err)

	out, err := ToGo(v)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestParseLiteral(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ty   cty.Type
		text string
		want cty.Value
	}{
		{"string", cty.String, " abc ", cty.StringVal("abc")},
		{"number", cty.Number, "42", cty.NumberIntVal(42)},
		{"bool", cty.Bool, "true", cty.True},
		{"list", cty.List(cty.Number), "[1,2]", cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})},
		{"dynamic falls back to string", cty.DynamicPseudoType, "hello", cty.StringVal("hello")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLiteral(tc.ty, tc.text)
			require.NoError(t, err)
			require.True(t, Equal(tc.want, got), "got %#v", got)
		})
	}

	_, err := ParseLiteral(cty.Number, "not-a-number")
	require.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	v := cty.ObjectVal(map[string]cty.Value{
		"value": cty.NumberIntVal(7),
		"items": cty.ListVal([]cty.Value{cty.StringVal("x")}),
	})
	enc, err := Encode(v)
	require.NoError(t, err)

	got, err := Decode(enc)
	require.NoError(t, err)
	require.True(t, Equal(v, got))

	empty, err := Decode(Encoded{})
	require.NoError(t, err)
	require.True(t, IsEmpty(empty))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", Format(cty.StringVal("abc")))
	assert.Equal(t, "42", Format(cty.NumberIntVal(42)))
	assert.Equal(t, "null", Format(cty.NullVal(cty.String)))
	assert.Equal(t, "", Format(cty.NilVal))
}
