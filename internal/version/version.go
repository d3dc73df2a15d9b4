// ABOUTME: Version and product identification
// ABOUTME: Reported by the CLIs and shown in the TUI header
package version

const (
	Version = "0.1.0"
	Product = "Resonate Decode"
)

// String returns the product name with its version
func String() string {
	return Product + " " + Version
}
