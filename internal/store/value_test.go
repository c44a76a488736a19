// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/propgraph/internal/store"
)

func TestValue_Text(t *testing.T) {
	tests := []struct {
		name   string
		value  store.Value
		want   string
		wantOK bool
	}{
		{"string", store.String("v1"), "v1", true},
		{"integer", store.Int(30), "30", true},
		{"fraction", store.Number(2.5), "2.5", true},
		{"large integer", store.Number(1e21), "1000000000000000000000", true},
		{"negative", store.Number(-0.125), "-0.125", true},
		{"true", store.Bool(true), "true", true},
		{"false", store.Bool(false), "false", true},
		{"null", store.Null(), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Text()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want store.Value
	}{
		{"nil", nil, store.Null()},
		{"string", "x", store.String("x")},
		{"bool", true, store.Bool(true)},
		{"int", 7, store.Int(7)},
		{"uint8", uint8(7), store.Int(7)},
		{"float32", float32(0.5), store.Number(0.5)},
		{"json number", json.Number("12.5"), store.Number(12.5)},
		{"value", store.Bool(false), store.Bool(false)},
		{"slice", []int{1, 2}, store.String("[1,2]")},
		{"map", map[string]int{"a": 1}, store.String(`{"a":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.ValueOf(tt.in)
			assert.True(t, tt.want.Equal(got), "want %v (%s), got %v (%s)", tt.want, tt.want.Kind(), got, got.Kind())
		})
	}
}

func TestProperties_JSON(t *testing.T) {
	var p store.Properties
	require.NoError(t, json.Unmarshal([]byte(`{"s":"v","n":30,"b":true,"z":null,"o":{"a": [1, 2]}}`), &p))

	assert.Equal(t, store.KindString, p["s"].Kind())
	assert.Equal(t, store.KindNumber, p["n"].Kind())
	assert.Equal(t, store.KindBool, p["b"].Kind())
	assert.True(t, p["z"].IsNull())
	assert.Equal(t, `{"a":[1,2]}`, p["o"].String())

	raw, err := json.Marshal(store.Properties{"n": store.Int(30), "z": store.Null()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":30,"z":null}`, string(raw))
}

func TestValue_MarshalRejectsNaN(t *testing.T) {
	_, err := json.Marshal(store.Number(math.NaN()))
	require.Error(t, err)
}

func TestProperties_KeysAndMap(t *testing.T) {
	p := store.PropertiesOf(map[string]any{"b": 1, "a": "x", "c": nil})
	assert.Equal(t, []string{"a", "b", "c"}, p.Keys())
	assert.Equal(t, map[string]any{"a": "x", "b": float64(1), "c": nil}, p.Map())
	assert.True(t, p.Equal(store.Properties{"a": store.String("x"), "b": store.Int(1), "c": store.Null()}))
	assert.False(t, p.Equal(store.Properties{"a": store.String("x")}))
}
