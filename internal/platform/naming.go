package platform

import "fmt"

// Scheme renders a Platform into the token embedded in release artifact file
// names. Two naming revisions exist upstream: the classic tokens used by every
// published release so far, and the modern ones newer packaging switched to.
// The scheme is selected by configuration so both stay available.
type Scheme struct {
	ID           string
	ubuntuToken  string
	genericToken string
}

var (
	// SchemeClassic is the default artifact naming used by published releases.
	SchemeClassic = Scheme{ID: "classic", ubuntuToken: "ubuntu20.04", genericToken: "manylinux2014"}

	// SchemeModern is the revised naming adopted by newer packaging.
	SchemeModern = Scheme{ID: "modern", ubuntuToken: "ubuntu20_04", genericToken: "manylinux_2_28"}
)

// SchemeByID resolves a configured scheme name.
func SchemeByID(id string) (Scheme, error) {
	switch id {
	case "", SchemeClassic.ID:
		return SchemeClassic, nil
	case SchemeModern.ID:
		return SchemeModern, nil
	default:
		return Scheme{}, fmt.Errorf("unknown naming scheme: %s", id)
	}
}

// Token returns the platform token for p. Every (OS, Arch) pair maps to
// exactly one token and tokens never collide within a scheme.
func (s Scheme) Token(p Platform) string {
	switch p.OS {
	case LinuxUbuntu:
		return fmt.Sprintf("%s_%s", s.ubuntuToken, p.Arch)
	case Darwin:
		return fmt.Sprintf("darwin_%s", p.Arch)
	case Windows:
		return fmt.Sprintf("windows_%s", p.Arch)
	default:
		return fmt.Sprintf("%s_%s", s.genericToken, p.Arch)
	}
}
