package winmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncludeNsName(t *testing.T) {
	var nilFilter *Filter
	assert.True(t, nilFilter.IncludeNsName("Windows.Win32.Foundation"))
	assert.True(t, (&Filter{}).IncludeNsName("Windows.Win32.Foundation"))

	filter := &Filter{Namespaces: []string{
		"Windows.Win32.*",
		"!Windows.Win32.UI.*",
		"Windows.Win32.UI.Shell",
		"",
	}}
	tests := []struct {
		ns   string
		want bool
	}{
		{"Windows.Win32.Foundation", true},
		{"Windows.Win32.UI.WindowsAndMessaging", false},
		{"Windows.Win32.UI.Shell", true},
		{"Windows.Foundation", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, filter.IncludeNsName(tt.ns), tt.ns)
	}
	assert.True(t, filter.IncludeNs(nil))
}

func TestIncludeDll(t *testing.T) {
	var nilFilter *Filter
	assert.True(t, nilFilter.IncludeDll("kernel32"))

	assert.True(t, (&Filter{}).IncludeDll("kernel32"))

	filter := &Filter{DllImports: []string{"KERNEL32", "user32.dll", "api-ms-win-*", "!api-ms-win-core-com-*"}}
	tests := []struct {
		dll  string
		want bool
	}{
		{"kernel32", true},
		{"kernel32.DLL", true},
		{"USER32", true},
		{"gdi32", false},
		{"api-ms-win-core-path-l1-1-0", true},
		{"api-ms-win-core-com-l1-1-0", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, filter.IncludeDll(tt.dll), tt.dll)
	}
}
