package qs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNodeObjectOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("b", NewString("1"))
	obj.Set("a", NewString("2"))
	obj.Set("b", NewString("3"))

	assert.Equal(t, []string{"b", "a"}, obj.Keys())
	v, ok := obj.Get("b")
	require.True(t, ok)
	assert.Equal(t, "3", v.Text())
	assert.Equal(t, 2, obj.Len())
}

func TestNodeSetIndexGrowsWithHoles(t *testing.T) {
	arr := NewArray()
	arr.SetIndex(3, NewString("x"))
	assert.Equal(t, 4, arr.Len())
	assert.Nil(t, arr.Index(0))
	assert.Nil(t, arr.Index(9))
	assert.Equal(t, "x", arr.Index(3).Text())
}

func TestNodeKinds(t *testing.T) {
	var missing *Node
	assert.Equal(t, Undefined, missing.Kind())
	assert.Equal(t, "", missing.Text())
	assert.True(t, NewNull().IsNull())
	assert.Equal(t, "true", NewBool(true).Text())
	assert.True(t, NewBool(true).Bool())
	assert.Equal(t, "object", Object.String())
	assert.Panics(t, func() { NewString("x").Set("a", NewNull()) })
	assert.Panics(t, func() { NewObject().Append(NewNull()) })
}

func TestNodeEqual(t *testing.T) {
	x := NewObject()
	x.Set("a", NewString("1"))
	x.Set("b", NewArray(nil, NewString("2")))
	y := NewObject()
	y.Set("b", NewArray(nil, NewString("2")))
	y.Set("a", NewString("1"))
	assert.True(t, x.Equal(y), "key order is not significant")

	z := NewObject()
	z.Set("a", NewString("1"))
	z.Set("b", NewArray(NewNull(), NewString("2")))
	assert.False(t, x.Equal(z), "holes differ from nulls")
}

func TestNodeJSON(t *testing.T) {
	got, err := Parse("z=1&a[]=x&a[3]=y&n", WithAllowSparse(true), WithStrictNullHandling(true))
	require.NoError(t, err)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":["x",null,null,"y"],"n":null}`, string(b))
	assert.Equal(t, string(b), got.String())

	var back Node
	require.NoError(t, json.Unmarshal([]byte(`{"z":1.50,"a":[true,null,{"k":"v"}],"e":{}}`), &back))
	assert.Equal(t, []string{"z", "a", "e"}, back.Keys())
	z, _ := back.Get("z")
	assert.Equal(t, "1.50", z.Text())
	assert.Equal(t, m{"z": "1.50", "a": a{true, nil, m{"k": "v"}}, "e": m{}}, back.Interface())

	assert.Error(t, json.Unmarshal([]byte(`{"a":`), &back))
	assert.Error(t, back.UnmarshalJSON([]byte(`{"a":"b"} junk`)))
	assert.Error(t, back.UnmarshalJSON([]byte(`{"a":"b"}{}`)))
	assert.NoError(t, back.UnmarshalJSON([]byte(" {\"a\":\"b\"}\n")))
}

func TestNodeYAML(t *testing.T) {
	got, err := Parse("b=true&a[]=x&a[]=&c")
	require.NoError(t, err)

	out, err := yaml.Marshal(got)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, map[string]any{"b": "true", "a": []any{"x", ""}, "c": ""}, back)

	var order yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &order))
	mapping := order.Content[0]
	assert.Equal(t, "b", mapping.Content[0].Value)
	assert.Equal(t, "a", mapping.Content[2].Value)
}

func TestNodeUnmarshalYAML(t *testing.T) {
	var n Node
	require.NoError(t, yaml.Unmarshal([]byte("z: 1.50\na:\n  - true\n  - ~\n  - k: v\nb: &x [p]\nc: *x\n"), &n))
	assert.Equal(t, []string{"z", "a", "b", "c"}, n.Keys())
	assert.Equal(t, m{"z": "1.50", "a": a{true, nil, m{"k": "v"}}, "b": a{"p"}, "c": a{"p"}}, n.Interface())

	assert.Error(t, yaml.Unmarshal([]byte("? [a]\n: b\n"), &n))
}

func TestFromInterface(t *testing.T) {
	n, err := FromInterface(map[string]any{
		"b": 1,
		"a": []any{true, nil, 2.5},
		"c": map[string]string{"x": "y"},
		"d": []string{"p"},
		"e": uint8(7),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, n.Keys())
	assert.Equal(t, m{
		"a": a{true, nil, "2.5"},
		"b": "1",
		"c": m{"x": "y"},
		"d": a{"p"},
		"e": "7",
	}, n.Interface())

	_, err = FromInterface(map[int]string{1: "a"})
	assert.Error(t, err)
	_, err = FromInterface(make(chan int))
	assert.Error(t, err)
}

func TestCompact(t *testing.T) {
	inner := NewArray(nil, NewString("b"), nil)
	root := NewObject()
	root.Set("a", NewArray(nil, inner, nil, NewString("c")))

	out := Compact(root)
	assert.Same(t, root, out)
	assert.Equal(t, m{"a": a{a{"b"}, "c"}}, out.Interface())
}

func TestMerge(t *testing.T) {
	o := DefaultOptions
	cases := []struct {
		name           string
		target, source *Node
		want           any
	}{
		{"falsy source", NewString("a"), NewString(""), "a"},
		{"scalar onto scalar", NewString("a"), NewString("b"), a{"a", "b"}},
		{"scalar onto array", NewArray(NewString("a")), NewString("b"), a{"a", "b"}},
		{"scalar onto object", mustNode(t, m{"x": "y"}), NewString("k"), m{"x": "y", "k": true}},
		{"array onto scalar", NewString("a"), NewArray(NewString("b")), a{"a", "b"}},
		{"object onto scalar", NewString("a"), mustNode(t, m{"k": "v"}), a{"a", m{"k": "v"}}},
		{"array onto array", mustNode(t, a{m{"x": "1"}}), mustNode(t, a{m{"y": "2"}, "z"}),
			a{m{"x": "1", "y": "2"}, "z"}},
		{"scalars at same index", mustNode(t, a{"p"}), mustNode(t, a{"q"}), a{"p", "q"}},
		{"object onto array", mustNode(t, a{"p"}), mustNode(t, m{"k": "v"}), m{"0": "p", "k": "v"}},
		{"object onto object", mustNode(t, m{"a": m{"b": "1"}}), mustNode(t, m{"a": m{"c": "2"}}),
			m{"a": m{"b": "1", "c": "2"}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, merge(c.target, c.source, &o).Interface())
		})
	}
}
