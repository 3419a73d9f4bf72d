package plugin

import (
	"context"
	"fmt"
)

// VersionManifest is the plugins/<name>/version.json file the runtime
// repository keeps per plugin. It is informational only.
type VersionManifest struct {
	Maintained []string `json:"maintained"`
	Deprecated []string `json:"deprecated"`
}

// BuildInfo describes one plugin build inside a Manifest entry.
type BuildInfo struct {
	Deps     []string `json:"deps"`
	Platform []string `json:"platform"`
}

// Manifest maps runtime version -> plugin version -> build details, mirroring
// plugins/<name>/manifest.json.
type Manifest map[string]map[string]BuildInfo

// FetchVersionManifest downloads the maintained/deprecated version lists for
// a plugin. Not every plugin publishes one.
func (m *Manager) FetchVersionManifest(ctx context.Context, name string) (*VersionManifest, error) {
	url := m.releases.RawURL(fmt.Sprintf("plugins/%s/version.json", name))
	var vm VersionManifest
	if err := m.fetcher.DownloadJSON(ctx, url, &vm); err != nil {
		return nil, fmt.Errorf("failed to fetch version manifest for plugin %s: %w", name, err)
	}
	return &vm, nil
}

// FetchManifest downloads the per-runtime-version build matrix of a plugin.
func (m *Manager) FetchManifest(ctx context.Context, name string) (Manifest, error) {
	url := m.releases.RawURL(fmt.Sprintf("plugins/%s/manifest.json", name))
	var mf Manifest
	if err := m.fetcher.DownloadJSON(ctx, url, &mf); err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for plugin %s: %w", name, err)
	}
	return mf, nil
}
