// ABOUTME: Tests for version reporting
// ABOUTME: Checks the string shown by the CLIs and the TUI header
package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String()
	if got != "Resonate Decode 0.1.0" {
		t.Errorf("unexpected version string %q", got)
	}
	if !strings.HasPrefix(got, Product) || !strings.HasSuffix(got, Version) {
		t.Errorf("version string %q must be product then version", got)
	}
}
