package metadata

import (
	"fmt"
	"math"
)

// ElementType is the ECMA-335 type code stored with constants and attribute arguments.
type ElementType byte

const (
	ElementBoolean ElementType = 0x02
	ElementChar    ElementType = 0x03
	ElementI1      ElementType = 0x04
	ElementU1      ElementType = 0x05
	ElementI2      ElementType = 0x06
	ElementU2      ElementType = 0x07
	ElementI4      ElementType = 0x08
	ElementU4      ElementType = 0x09
	ElementI8      ElementType = 0x0a
	ElementU8      ElementType = 0x0b
	ElementR4      ElementType = 0x0c
	ElementR8      ElementType = 0x0d
	ElementString  ElementType = 0x0e
	ElementClass   ElementType = 0x12
)

// Char is a UTF-16 code unit constant, kept apart from uint16.
type Char uint16

var elementTypeNames = map[ElementType]string{
	ElementBoolean: "bool",
	ElementChar:    "char",
	ElementI1:      "int8",
	ElementU1:      "uint8",
	ElementI2:      "int16",
	ElementU2:      "uint16",
	ElementI4:      "int32",
	ElementU4:      "uint32",
	ElementI8:      "int64",
	ElementU8:      "uint64",
	ElementR4:      "float32",
	ElementR8:      "float64",
	ElementString:  "string",
	ElementClass:   "nullref",
}

func (this ElementType) String() string {
	if name, ok := elementTypeNames[this]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(this))
}

func ParseElementType(name string) (ElementType, bool) {
	for et, it := range elementTypeNames {
		if it == name {
			return et, true
		}
	}
	return 0, false
}

// ElementTypeOf maps a constant value to its element type. nil is a null reference.
func ElementTypeOf(value interface{}) (ElementType, error) {
	switch value.(type) {
	case nil:
		return ElementClass, nil
	case bool:
		return ElementBoolean, nil
	case Char:
		return ElementChar, nil
	case int8:
		return ElementI1, nil
	case uint8:
		return ElementU1, nil
	case int16:
		return ElementI2, nil
	case uint16:
		return ElementU2, nil
	case int32:
		return ElementI4, nil
	case uint32:
		return ElementU4, nil
	case int64:
		return ElementI8, nil
	case uint64:
		return ElementU8, nil
	case float32:
		return ElementR4, nil
	case float64:
		return ElementR8, nil
	case string:
		return ElementString, nil
	}
	return 0, fmt.Errorf("unsupported constant type %T", value)
}

// ConvertConstant narrows a loosely typed value (as decoded from text formats) to the
// Go type of the element type.
func ConvertConstant(et ElementType, value interface{}) (interface{}, error) {
	switch et {
	case ElementClass:
		if value != nil {
			return nil, fmt.Errorf("nullref constant with value %v", value)
		}
		return nil, nil
	case ElementBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("bool constant with value %v", value)
		}
		return b, nil
	case ElementString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("string constant with value %v", value)
		}
		return s, nil
	case ElementR4, ElementR8:
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		default:
			return nil, fmt.Errorf("%s constant with value %v", et, value)
		}
		if et == ElementR4 {
			return float32(f), nil
		}
		return f, nil
	}
	if u, ok := value.(uint64); ok && et == ElementU8 {
		return u, nil
	}
	n, err := toInt64(value)
	if err != nil {
		return nil, fmt.Errorf("%s constant: %w", et, err)
	}
	return narrowInt(et, n)
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of range", v)
		}
		return int64(v), nil
	case string:
		if len(v) == 1 {
			return int64(v[0]), nil
		}
	}
	return 0, fmt.Errorf("not an integer: %v", value)
}

func narrowInt(et ElementType, n int64) (interface{}, error) {
	var lo, hi int64
	switch et {
	case ElementChar, ElementU2:
		lo, hi = 0, math.MaxUint16
	case ElementI1:
		lo, hi = math.MinInt8, math.MaxInt8
	case ElementU1:
		lo, hi = 0, math.MaxUint8
	case ElementI2:
		lo, hi = math.MinInt16, math.MaxInt16
	case ElementI4:
		lo, hi = math.MinInt32, math.MaxInt32
	case ElementU4:
		lo, hi = 0, math.MaxUint32
	case ElementI8:
		lo, hi = math.MinInt64, math.MaxInt64
	case ElementU8:
		lo, hi = 0, math.MaxInt64
	default:
		return nil, fmt.Errorf("unknown element type %s", et)
	}
	if n < lo || n > hi {
		return nil, fmt.Errorf("value %d out of range for %s", n, et)
	}
	switch et {
	case ElementChar:
		return Char(n), nil
	case ElementI1:
		return int8(n), nil
	case ElementU1:
		return uint8(n), nil
	case ElementI2:
		return int16(n), nil
	case ElementU2:
		return uint16(n), nil
	case ElementI4:
		return int32(n), nil
	case ElementU4:
		return uint32(n), nil
	case ElementI8:
		return n, nil
	}
	return uint64(n), nil
}
