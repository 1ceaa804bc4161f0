// Package utils converts between typed structs and the generic maps the
// console's views operate on.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// StructToMap converts a struct, or a pointer to one, into a map keyed by its
// JSON field names. Values take their JSON-decoded form: numbers become
// float64, nil pointers become nil, and nested objects are kept as
// json.RawMessage so they pass through unchanged.
func StructToMap[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToMap: failed to marshal record: %w", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("StructToMap: failed to unmarshal record: %w", err)
	}

	for key, v := range decoded {
		nested, ok := v.(map[string]any)
		if !ok {
			continue
		}
		raw, err := json.Marshal(nested)
		if err != nil {
			return nil, fmt.Errorf("StructToMap: failed to re-marshal field %q: %w", key, err)
		}
		decoded[key] = json.RawMessage(raw)
	}
	return decoded, nil
}

// MapToStruct is the inverse of StructToMap. T must be a struct type or a
// pointer to one.
func MapToStruct[T any](input map[string]any) (T, error) {
	var zero T
	if input == nil {
		return zero, fmt.Errorf("MapToStruct: input map cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("MapToStruct: type must be a struct or a pointer to a struct")
	}

	data, err := json.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to marshal map: %w", err)
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to unmarshal into %s: %w", typ.Name(), err)
	}
	return result, nil
}
