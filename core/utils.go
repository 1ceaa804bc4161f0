package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToFloat64 converts a value of various numeric types to a float64. Numeric
// strings are parsed as well. The boolean reports whether the conversion
// succeeded.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type intKind int

const (
	intNone intKind = iota
	intSigned
	intUnsigned
)

type integer struct {
	signed   int64
	unsigned uint64
}

// integerOf returns v as an exact integer when it holds one. json.Number
// counts when it parses as an int64.
func integerOf(v any) (integer, intKind) {
	switch val := v.(type) {
	case int:
		return integer{signed: int64(val)}, intSigned
	case int8:
		return integer{signed: int64(val)}, intSigned
	case int16:
		return integer{signed: int64(val)}, intSigned
	case int32:
		return integer{signed: int64(val)}, intSigned
	case int64:
		return integer{signed: val}, intSigned
	case uint:
		return integer{unsigned: uint64(val)}, intUnsigned
	case uint8:
		return integer{unsigned: uint64(val)}, intUnsigned
	case uint16:
		return integer{unsigned: uint64(val)}, intUnsigned
	case uint32:
		return integer{unsigned: uint64(val)}, intUnsigned
	case uint64:
		return integer{unsigned: val}, intUnsigned
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return integer{signed: i}, intSigned
		}
	}
	return integer{}, intNone
}

// IsNumber reports whether v holds a Go numeric value or a json.Number.
// Strings never count, even when they look numeric.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}

// Stringify returns the display form of a field value: nil becomes the empty
// string, numbers use their shortest decimal form (30, 1.5) and everything
// else falls back to fmt.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
