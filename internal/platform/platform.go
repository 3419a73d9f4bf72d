package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// OS identifies the operating system flavor of an install target. The Linux
// distro distinction matters because release artifacts are published under
// different tokens for Ubuntu and generic (manylinux) hosts.
type OS int

const (
	LinuxGeneric OS = iota
	LinuxUbuntu
	Darwin
	Windows
)

// Arch identifies the CPU architecture of an install target. Both "aarch64"
// and "arm64" spellings normalize to Aarch64.
type Arch int

const (
	X8664 Arch = iota
	Aarch64
)

// UnsupportedOSError is returned when the host or an override names an
// operating system no release artifact exists for.
type UnsupportedOSError struct {
	Value string
}

func (e *UnsupportedOSError) Error() string {
	return fmt.Sprintf("unsupported operating system: %s", e.Value)
}

// UnsupportedArchError is returned when the host or an override names a CPU
// architecture no release artifact exists for.
type UnsupportedArchError struct {
	Value string
}

func (e *UnsupportedArchError) Error() string {
	return fmt.Sprintf("unsupported architecture: %s", e.Value)
}

func (o OS) String() string {
	switch o {
	case LinuxUbuntu:
		return "Ubuntu"
	case Darwin:
		return "Darwin"
	case Windows:
		return "Windows"
	default:
		return "Linux"
	}
}

// IsLinux reports whether the OS is any Linux flavor.
func (o OS) IsLinux() bool {
	return o == LinuxGeneric || o == LinuxUbuntu
}

func (a Arch) String() string {
	if a == Aarch64 {
		return "arm64"
	}
	return "x86_64"
}

// Platform is an immutable (OS, Arch) pair resolved once per invocation,
// either by host detection or from explicit user overrides.
type Platform struct {
	OS   OS
	Arch Arch
}

func (p Platform) String() string {
	return fmt.Sprintf("%s %s", p.OS, p.Arch)
}

// osReleaseFile is the well-known Linux release-info file inspected to tell
// Ubuntu hosts apart from generic Linux. Overridable in tests.
var osReleaseFile = "/etc/os-release"

// Detect resolves the platform from the running host.
func Detect() (Platform, error) {
	osv, err := detectOS(runtime.GOOS)
	if err != nil {
		return Platform{}, err
	}

	arch, err := parseArch(runtime.GOARCH)
	if err != nil {
		return Platform{}, err
	}

	return Platform{OS: osv, Arch: arch}, nil
}

// FromOverride resolves the platform from user-supplied strings. Both values
// are matched case-insensitively against the same tables Detect uses, so
// "Darwin", "ubuntu" and "AMD64" are all accepted.
func FromOverride(osStr, archStr string) (Platform, error) {
	osv, err := parseOS(osStr)
	if err != nil {
		return Platform{}, err
	}

	arch, err := parseArch(archStr)
	if err != nil {
		return Platform{}, err
	}

	return Platform{OS: osv, Arch: arch}, nil
}

func detectOS(goos string) (OS, error) {
	switch goos {
	case "linux":
		if data, err := os.ReadFile(osReleaseFile); err == nil && strings.Contains(string(data), "Ubuntu") {
			return LinuxUbuntu, nil
		}
		return LinuxGeneric, nil
	case "darwin":
		return Darwin, nil
	case "windows":
		return Windows, nil
	default:
		return 0, &UnsupportedOSError{Value: goos}
	}
}

func parseOS(value string) (OS, error) {
	switch strings.ToLower(value) {
	case "linux":
		return LinuxGeneric, nil
	case "ubuntu":
		return LinuxUbuntu, nil
	case "darwin", "macos":
		return Darwin, nil
	case "windows":
		return Windows, nil
	default:
		return 0, &UnsupportedOSError{Value: value}
	}
}

func parseArch(value string) (Arch, error) {
	switch strings.ToLower(value) {
	case "x86_64", "amd64":
		return X8664, nil
	case "aarch64", "arm64":
		return Aarch64, nil
	default:
		return 0, &UnsupportedArchError{Value: value}
	}
}

// LibraryExt returns the shared-library file extension used by plugins on
// this platform.
func (p Platform) LibraryExt() string {
	switch p.OS {
	case Darwin:
		return ".dylib"
	case Windows:
		return ".dll"
	default:
		return ".so"
	}
}
