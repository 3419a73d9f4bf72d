package plugin

import (
	"fmt"
	"strings"
)

// LibraryName maps a user-facing plugin name to the shared-library file name
// it installs as. Pure function; ext is the platform's library extension
// including the dot.
func LibraryName(name, ext string) string {
	switch {
	case strings.HasPrefix(name, "wasi-nn-"):
		return "libwasmedgePluginWasiNN" + ext
	case strings.HasPrefix(name, "wasi-crypto"):
		return "libwasmedgePluginWasiCrypto" + ext
	case strings.HasPrefix(name, "wasmedge-"):
		var b strings.Builder
		for _, segment := range strings.Split(strings.TrimPrefix(name, "wasmedge-"), "-") {
			if segment == "" {
				continue
			}
			b.WriteString(strings.ToUpper(segment[:1]))
			b.WriteString(segment[1:])
		}
		return "libwasmedgePlugin" + b.String() + ext
	default:
		return "libwasmedgePlugin" + name + ext
	}
}

// urlName converts a plugin name to its form inside release asset names,
// replacing only the first hyphen with an underscore. The single substitution
// is deliberate: wasi-nn-ggml becomes wasi_nn-ggml, not wasi_nn_ggml.
func urlName(name string) string {
	return strings.Replace(name, "-", "_", 1)
}

// Matcher decides whether an on-disk plugin file corresponds to the expected
// library name during removal. Two historical matching schemes exist; the
// exact scheme is canonical and the substring one is kept as an explicit,
// selectable alternative.
type Matcher struct {
	ID      string
	Matches func(fileName, expected string) bool
}

var (
	// MatchExact requires the file name to equal the mapped library name.
	MatchExact = Matcher{
		ID: "exact",
		Matches: func(fileName, expected string) bool {
			return fileName == expected
		},
	}

	// MatchSubstring accepts any file whose name contains the mapped library
	// name's stem, catching version-suffixed variants.
	MatchSubstring = Matcher{
		ID: "substring",
		Matches: func(fileName, expected string) bool {
			stem := expected
			if idx := strings.LastIndex(expected, "."); idx > 0 {
				stem = expected[:idx]
			}
			return strings.Contains(fileName, stem)
		},
	}
)

// MatcherByID resolves a configured matcher name.
func MatcherByID(id string) (Matcher, error) {
	switch id {
	case "", MatchExact.ID:
		return MatchExact, nil
	case MatchSubstring.ID:
		return MatchSubstring, nil
	default:
		return Matcher{}, fmt.Errorf("unknown plugin matching scheme: %s", id)
	}
}
