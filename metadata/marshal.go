package metadata

import "github.com/google/uuid"

type NativeType byte

const (
	NativeTypeBoolean         NativeType = 0x02
	NativeTypeI1              NativeType = 0x03
	NativeTypeU1              NativeType = 0x04
	NativeTypeI2              NativeType = 0x05
	NativeTypeU2              NativeType = 0x06
	NativeTypeI4              NativeType = 0x07
	NativeTypeU4              NativeType = 0x08
	NativeTypeI8              NativeType = 0x09
	NativeTypeU8              NativeType = 0x0a
	NativeTypeR4              NativeType = 0x0b
	NativeTypeR8              NativeType = 0x0c
	NativeTypeCurrency        NativeType = 0x0f
	NativeTypeBStr            NativeType = 0x13
	NativeTypeLPStr           NativeType = 0x14
	NativeTypeLPWStr          NativeType = 0x15
	NativeTypeLPTStr          NativeType = 0x16
	NativeTypeFixedSysString  NativeType = 0x17
	NativeTypeIUnknown        NativeType = 0x19
	NativeTypeIDispatch       NativeType = 0x1a
	NativeTypeStruct          NativeType = 0x1b
	NativeTypeIntF            NativeType = 0x1c
	NativeTypeSafeArray       NativeType = 0x1d
	NativeTypeFixedArray      NativeType = 0x1e
	NativeTypeInt             NativeType = 0x1f
	NativeTypeUInt            NativeType = 0x20
	NativeTypeByValStr        NativeType = 0x22
	NativeTypeANSIBStr        NativeType = 0x23
	NativeTypeTBStr           NativeType = 0x24
	NativeTypeVariantBool     NativeType = 0x25
	NativeTypeFunc            NativeType = 0x26
	NativeTypeASAny           NativeType = 0x28
	NativeTypeArray           NativeType = 0x2a
	NativeTypeLPStruct        NativeType = 0x2b
	NativeTypeCustomMarshaler NativeType = 0x2c
	NativeTypeError           NativeType = 0x2d
	NativeTypeMax             NativeType = 0x50
	NativeTypeNone            NativeType = 0x66
)

var nativeTypeNames = map[NativeType]string{
	NativeTypeBoolean:         "bool",
	NativeTypeI1:              "int8",
	NativeTypeU1:              "unsigned int8",
	NativeTypeI2:              "int16",
	NativeTypeU2:              "unsigned int16",
	NativeTypeI4:              "int32",
	NativeTypeU4:              "unsigned int32",
	NativeTypeI8:              "int64",
	NativeTypeU8:              "unsigned int64",
	NativeTypeR4:              "float32",
	NativeTypeR8:              "float64",
	NativeTypeCurrency:        "currency",
	NativeTypeBStr:            "bstr",
	NativeTypeLPStr:           "lpstr",
	NativeTypeLPWStr:          "lpwstr",
	NativeTypeLPTStr:          "lptstr",
	NativeTypeFixedSysString:  "fixed sysstring",
	NativeTypeIUnknown:        "iunknown",
	NativeTypeIDispatch:       "idispatch",
	NativeTypeStruct:          "struct",
	NativeTypeIntF:            "interface",
	NativeTypeSafeArray:       "safearray",
	NativeTypeFixedArray:      "fixed array",
	NativeTypeInt:             "int",
	NativeTypeUInt:            "unsigned int",
	NativeTypeByValStr:        "byvalstr",
	NativeTypeANSIBStr:        "ansi bstr",
	NativeTypeTBStr:           "tbstr",
	NativeTypeVariantBool:     "variant bool",
	NativeTypeFunc:            "method",
	NativeTypeASAny:           "as any",
	NativeTypeArray:           "[]",
	NativeTypeLPStruct:        "lpstruct",
	NativeTypeCustomMarshaler: "custom",
	NativeTypeError:           "error",
	NativeTypeMax:             "max",
}

func (this NativeType) String() string {
	if name, ok := nativeTypeNames[this]; ok {
		return name
	}
	return "none"
}

// VariantType is the OLE VARTYPE carried by SafeArray descriptors.
type VariantType uint32

const (
	VariantNone     VariantType = 0
	VariantI2       VariantType = 2
	VariantI4       VariantType = 3
	VariantR4       VariantType = 4
	VariantR8       VariantType = 5
	VariantCY       VariantType = 6
	VariantDate     VariantType = 7
	VariantBStr     VariantType = 8
	VariantDispatch VariantType = 9
	VariantError    VariantType = 10
	VariantBool     VariantType = 11
	VariantVariant  VariantType = 12
	VariantUnknown  VariantType = 13
	VariantDecimal  VariantType = 14
	VariantI1       VariantType = 16
	VariantUI1      VariantType = 17
	VariantUI2      VariantType = 18
	VariantUI4      VariantType = 19
	VariantInt      VariantType = 22
	VariantUInt     VariantType = 23
)

var variantTypeNames = map[VariantType]string{
	VariantI2:       "int16",
	VariantI4:       "int32",
	VariantR4:       "float32",
	VariantR8:       "float64",
	VariantCY:       "currency",
	VariantDate:     "date",
	VariantBStr:     "bstr",
	VariantDispatch: "idispatch",
	VariantError:    "error",
	VariantBool:     "bool",
	VariantVariant:  "variant",
	VariantUnknown:  "iunknown",
	VariantDecimal:  "decimal",
	VariantI1:       "int8",
	VariantUI1:      "unsigned int8",
	VariantUI2:      "unsigned int16",
	VariantUI4:      "unsigned int32",
	VariantInt:      "int",
	VariantUInt:     "unsigned int",
}

func (this VariantType) String() string {
	if name, ok := variantTypeNames[this]; ok {
		return name
	}
	return ""
}

type ArrayMarshal struct {
	ElementType             NativeType
	SizeParameterIndex      int // -1 when absent
	Size                    int // -1 when absent
	SizeParameterMultiplier int // -1 when absent
}

type FixedArrayMarshal struct {
	ElementType NativeType
	Size        int
}

type FixedSysStringMarshal struct {
	Size int
}

type SafeArrayMarshal struct {
	ElementType VariantType
}

type CustomMarshal struct {
	Guid          uuid.UUID
	UnmanagedType string
	ManagedType   string
	Cookie        string
}

// MarshalInfo describes how a parameter crosses the managed/native boundary.
// At most one of the variant fields is set, matching NativeType.
type MarshalInfo struct {
	NativeType NativeType

	Array          *ArrayMarshal
	FixedArray     *FixedArrayMarshal
	FixedSysString *FixedSysStringMarshal
	SafeArray      *SafeArrayMarshal
	Custom         *CustomMarshal
}

func NewMarshalInfo(nativeType NativeType) *MarshalInfo {
	mi := &MarshalInfo{NativeType: nativeType}
	switch nativeType {
	case NativeTypeArray:
		mi.Array = &ArrayMarshal{
			ElementType:             NativeTypeNone,
			SizeParameterIndex:      -1,
			Size:                    -1,
			SizeParameterMultiplier: -1,
		}
	case NativeTypeFixedArray:
		mi.FixedArray = &FixedArrayMarshal{ElementType: NativeTypeNone}
	case NativeTypeFixedSysString:
		mi.FixedSysString = &FixedSysStringMarshal{}
	case NativeTypeSafeArray:
		mi.SafeArray = &SafeArrayMarshal{}
	case NativeTypeCustomMarshaler:
		mi.Custom = &CustomMarshal{}
	}
	return mi
}

func ParseNativeType(name string) (NativeType, bool) {
	for nt, it := range nativeTypeNames {
		if it == name {
			return nt, true
		}
	}
	if name == "none" {
		return NativeTypeNone, true
	}
	return 0, false
}
