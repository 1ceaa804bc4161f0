package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type owner struct {
	Name string `json:"name"`
}

type item struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	Note  *string  `json:"note"`
	Owner owner    `json:"owner"`
	Tags  []string `json:"tags,omitempty"`
}

func TestStructToMap(t *testing.T) {
	m, err := StructToMap(item{ID: 7, Title: "Report", Owner: owner{Name: "ann"}, Tags: []string{"a"}})
	require.NoError(t, err)

	assert.Equal(t, float64(7), m["id"])
	assert.Equal(t, "Report", m["title"])
	assert.Nil(t, m["note"])
	assert.Contains(t, m, "note")
	assert.Equal(t, json.RawMessage(`{"name":"ann"}`), m["owner"])
	assert.Equal(t, []any{"a"}, m["tags"])
}

func TestStructToMap_Pointer(t *testing.T) {
	m, err := StructToMap(&item{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, float64(1), m["id"])
	assert.NotContains(t, m, "tags")
}

func TestStructToMap_Invalid(t *testing.T) {
	var nilItem *item
	_, err := StructToMap(nilItem)
	assert.Error(t, err)

	_, err = StructToMap(42)
	assert.Error(t, err)

	var nothing any
	_, err = StructToMap(nothing)
	assert.Error(t, err)
}

func TestMapToStruct(t *testing.T) {
	note := "urgent"
	original := item{ID: 3, Title: "Plan", Note: &note, Owner: owner{Name: "bob"}}

	m, err := StructToMap(original)
	require.NoError(t, err)
	back, err := MapToStruct[item](m)
	require.NoError(t, err)
	assert.Equal(t, original, back)

	ptr, err := MapToStruct[*item](m)
	require.NoError(t, err)
	assert.Equal(t, original, *ptr)
}

func TestMapToStruct_Invalid(t *testing.T) {
	_, err := MapToStruct[item](nil)
	assert.Error(t, err)

	_, err = MapToStruct[int](map[string]any{"a": 1})
	assert.Error(t, err)

	_, err = MapToStruct[item](map[string]any{"id": "not a number"})
	assert.Error(t, err)
}
