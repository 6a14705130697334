package metadata

import (
	"encoding/binary"
	"math"
	"unicode/utf16"

	"github.com/pkg/errors"
)

var ErrBlobTruncated = errors.New("blob truncated")

// EncodeConstant lays a value out as the Constant table does: element type plus a
// little-endian value blob. Strings are UTF-16LE; a null reference is four zero bytes.
func EncodeConstant(value interface{}) (ElementType, []byte, error) {
	et, err := ElementTypeOf(value)
	if err != nil {
		return 0, nil, err
	}
	var b []byte
	switch v := value.(type) {
	case nil:
		b = make([]byte, 4)
	case bool:
		b = []byte{0}
		if v {
			b[0] = 1
		}
	case Char:
		b = binary.LittleEndian.AppendUint16(nil, uint16(v))
	case int8:
		b = []byte{byte(v)}
	case uint8:
		b = []byte{v}
	case int16:
		b = binary.LittleEndian.AppendUint16(nil, uint16(v))
	case uint16:
		b = binary.LittleEndian.AppendUint16(nil, v)
	case int32:
		b = binary.LittleEndian.AppendUint32(nil, uint32(v))
	case uint32:
		b = binary.LittleEndian.AppendUint32(nil, v)
	case int64:
		b = binary.LittleEndian.AppendUint64(nil, uint64(v))
	case uint64:
		b = binary.LittleEndian.AppendUint64(nil, v)
	case float32:
		b = binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
	case float64:
		b = binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
	case string:
		units := utf16.Encode([]rune(v))
		b = make([]byte, 0, len(units)*2)
		for _, u := range units {
			b = binary.LittleEndian.AppendUint16(b, u)
		}
	}
	return et, b, nil
}

var constantSizes = map[ElementType]int{
	ElementBoolean: 1,
	ElementChar:    2,
	ElementI1:      1,
	ElementU1:      1,
	ElementI2:      2,
	ElementU2:      2,
	ElementI4:      4,
	ElementU4:      4,
	ElementI8:      8,
	ElementU8:      8,
	ElementR4:      4,
	ElementR8:      8,
	ElementClass:   4,
}

// DecodeConstant reads a Constant table value blob of element type et.
func DecodeConstant(et ElementType, b []byte) (interface{}, error) {
	if et == ElementString {
		if len(b)%2 != 0 {
			return nil, errors.Errorf("string constant of odd length %d", len(b))
		}
		units := make([]uint16, len(b)/2)
		for n := range units {
			units[n] = binary.LittleEndian.Uint16(b[n*2:])
		}
		return string(utf16.Decode(units)), nil
	}
	size, ok := constantSizes[et]
	if !ok {
		return nil, errors.Errorf("unsupported constant element type %s", et)
	}
	if len(b) < size {
		return nil, errors.Wrapf(ErrBlobTruncated, "%s constant has %d bytes", et, len(b))
	}
	switch et {
	case ElementBoolean:
		return b[0] != 0, nil
	case ElementChar:
		return Char(binary.LittleEndian.Uint16(b)), nil
	case ElementI1:
		return int8(b[0]), nil
	case ElementU1:
		return b[0], nil
	case ElementI2:
		return int16(binary.LittleEndian.Uint16(b)), nil
	case ElementU2:
		return binary.LittleEndian.Uint16(b), nil
	case ElementI4:
		return int32(binary.LittleEndian.Uint32(b)), nil
	case ElementU4:
		return binary.LittleEndian.Uint32(b), nil
	case ElementI8:
		return int64(binary.LittleEndian.Uint64(b)), nil
	case ElementU8:
		return binary.LittleEndian.Uint64(b), nil
	case ElementR4:
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case ElementR8:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	}
	return nil, nil
}

// encodeMarshal writes a FieldMarshal descriptor blob.
