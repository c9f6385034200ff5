// Package platform includes the target-specific facts the translator needs:
// which architecture code is generated for and which runtime symbols the
// generated code links against.
package platform

import "fmt"

// Architecture is a code generation target.
type Architecture byte

const (
	ArchitectureX86 Architecture = iota
	ArchitectureX64
	ArchitectureARM

	// ArchitectureCount is the number of defined architectures.
	ArchitectureCount int = iota
)

func (a Architecture) String() string {
	switch a {
	case ArchitectureX86:
		return "x86"
	case ArchitectureX64:
		return "x64"
	case ArchitectureARM:
		return "arm"
	}
	return fmt.Sprintf("architecture(%d)", a)
}

// ParseArchitecture is the inverse of Architecture.String.
func ParseArchitecture(s string) (Architecture, error) {
	switch s {
	case "x86", "386", "i386":
		return ArchitectureX86, nil
	case "x64", "amd64", "x86_64":
		return ArchitectureX64, nil
	case "arm":
		return ArchitectureARM, nil
	}
	return 0, fmt.Errorf("unknown architecture %q", s)
}

// WordSize returns the size in bytes of a native integer and of a reference.
func (a Architecture) WordSize() int {
	if a == ArchitectureX64 {
		return 8
	}
	return 4
}

// CompilerSupported returns whether the opcode handlers lower code for a.
// Handlers fail with an unsupported target platform error otherwise.
func (a Architecture) CompilerSupported() bool {
	return a == ArchitectureX86
}
