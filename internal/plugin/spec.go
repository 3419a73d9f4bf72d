package plugin

import "strings"

// Spec is a user-supplied plugin reference, split from a "name[@version]"
// token. An empty Version means "use the runtime's version".
type Spec struct {
	Name    string
	Version string
}

// ParseSpec splits a plugin token on the first '@'.
func ParseSpec(token string) Spec {
	name, version, found := strings.Cut(token, "@")
	if !found {
		return Spec{Name: token}
	}
	return Spec{Name: name, Version: version}
}

func (s Spec) String() string {
	if s.Version == "" {
		return s.Name
	}
	return s.Name + "@" + s.Version
}

// KnownPlugins is advisory only: it backs CLI help text and is consulted by
// no decision path. Plugin availability is always resolved against the
// release's actual asset list.
var KnownPlugins = []string{
	"wasi-nn-ggml",
	"wasi-nn-pytorch",
	"wasi-nn-tensorflow",
	"wasi-crypto",
	"wasmedge-tensorflow",
	"wasmedge-tensorflowlite",
	"wasmedge-image",
}
