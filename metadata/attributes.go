package metadata

import (
	"fmt"
	"strings"
)

type ParamAttributes uint16

const (
	ParamNone            ParamAttributes = 0x0000
	ParamIn              ParamAttributes = 0x0001
	ParamOut             ParamAttributes = 0x0002
	ParamLcid            ParamAttributes = 0x0004
	ParamRetval          ParamAttributes = 0x0008
	ParamOptional        ParamAttributes = 0x0010
	ParamHasDefault      ParamAttributes = 0x1000
	ParamHasFieldMarshal ParamAttributes = 0x2000
	ParamUnused          ParamAttributes = 0xcfe0
)

var paramAttributeNames = []struct {
	mask ParamAttributes
	name string
}{
	{ParamIn, "In"},
	{ParamOut, "Out"},
	{ParamLcid, "Lcid"},
	{ParamRetval, "Retval"},
	{ParamOptional, "Optional"},
	{ParamHasDefault, "HasDefault"},
	{ParamHasFieldMarshal, "HasFieldMarshal"},
}

func (this ParamAttributes) Has(mask ParamAttributes) bool {
	return this&mask == mask
}

func (this ParamAttributes) With(mask ParamAttributes, value bool) ParamAttributes {
	if value {
		return this | mask
	}
	return this &^ mask
}

func (this ParamAttributes) String() string {
	if this == ParamNone {
		return "None"
	}
	var names []string
	for _, it := range paramAttributeNames {
		if this.Has(it.mask) {
			names = append(names, it.name)
		}
	}
	if rest := this & ParamUnused; rest != 0 {
		names = append(names, fmt.Sprintf("0x%04x", uint16(rest)))
	}
	return strings.Join(names, "|")
}
