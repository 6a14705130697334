package winmd

import (
	"path/filepath"
	"strings"

	"github.com/zzl/go-winmd/apimodel"
)

// Filter selects what is imported. Both lists hold glob patterns where later
// ones win and a leading '!' excludes; an empty list accepts everything.
// Dll patterns ignore case and a ".dll" suffix.
type Filter struct {
	Namespaces []string
	DllImports []string
}

func (this *Filter) IncludeNs(ns *apimodel.Namespace) bool {
	if ns == nil {
		return true
	}
	return this.IncludeNsName(ns.FullName)
}

func (this *Filter) IncludeNsName(fullName string) bool {
	if this == nil {
		return true
	}
	return matchPatterns(this.Namespaces, fullName, nil)
}

func (this *Filter) IncludeDll(dll string) bool {
	if this == nil {
		return true
	}
	return matchPatterns(this.DllImports, dll, dllKey)
}

func dllKey(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".dll")
}

func matchPatterns(patterns []string, name string, normalize func(string) string) bool {
	if len(patterns) == 0 {
		return true
	}
	if normalize != nil {
		name = normalize(name)
	}
	var include bool
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		var negative bool
		if pattern[0] == '!' {
			negative = true
			pattern = pattern[1:]
		}
		if normalize != nil {
			pattern = normalize(pattern)
		}
		if match, _ := filepath.Match(pattern, name); match {
			include = !negative
		}
	}
	return include
}
