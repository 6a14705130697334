package utils

import (
	"strconv"
	"strings"
)

var ilKeywords = map[string]bool{
	"bool": true, "char": true, "class": true, "default": true, "float32": true,
	"float64": true, "in": true, "int": true, "int8": true, "int16": true,
	"int32": true, "int64": true, "method": true, "object": true, "opt": true,
	"out": true, "string": true, "type": true, "value": true, "valuetype": true,
	"void": true, "marshal": true, "field": true, "property": true, "retval": true,
	"lcid": true, "nullref": true,
}

// SafeName quotes names that would read as IL keywords, or that are not plain identifiers.
func SafeName(name string) string {
	if ilKeywords[name] || !isIdentifier(name) {
		return "'" + strings.ReplaceAll(name, "'", "\\'") + "'"
	}
	return name
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for n, c := range name {
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_' || c == '$' || c == '@' || c == '`' {
			continue
		}
		if n > 0 && (c >= '0' && c <= '9' || c == '.') {
			continue
		}
		return false
	}
	return true
}

func QuoteString(s string) string {
	return strconv.Quote(s)
}

func JoinArgs(args []string) string {
	return strings.Join(args, ", ")
}
