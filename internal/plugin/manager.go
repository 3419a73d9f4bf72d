package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver"

	"github.com/wasmedge/wasmedgeup/internal/fetch"
	"github.com/wasmedge/wasmedgeup/internal/platform"
	"github.com/wasmedge/wasmedgeup/internal/releases"
	"github.com/wasmedge/wasmedgeup/pkg/logger"
)

const (
	assetPrefix = "WasmEdge-plugin-"
	assetSuffix = ".tar.gz"
)

// ErrNotInstalled is returned when a plugin removal finds no matching file in
// the plugin directory.
var ErrNotInstalled = errors.New("plugin is not installed")

// NotFoundError is the terminal failure after every download URL for a plugin
// has been tried. It is not transient and is never retried further.
type NotFoundError struct {
	Name       string
	Platform   platform.Platform
	ReleaseURL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf(
		"plugin %q is not available for %s or the requested version; available plugins are listed at %s",
		e.Name, e.Platform, e.ReleaseURL,
	)
}

// Info describes one plugin offered by a runtime release.
type Info struct {
	Name       string
	Version    string
	Compatible bool
}

// Manager installs, lists, and removes plugins for one runtime version. There
// is no manifest of installed plugins: the plugin directory listing is the
// state.
type Manager struct {
	runtimeVersion string
	platform       platform.Platform
	scheme         platform.Scheme
	pluginDir      string
	fetcher        *fetch.Fetcher
	releases       *releases.Client
	matcher        Matcher
	log            *logger.Logger
}

// NewManager creates a plugin manager bound to a runtime version and plugin
// directory.
func NewManager(runtimeVersion string, p platform.Platform, scheme platform.Scheme, pluginDir string, fetcher *fetch.Fetcher, rels *releases.Client) *Manager {
	return &Manager{
		runtimeVersion: runtimeVersion,
		platform:       p,
		scheme:         scheme,
		pluginDir:      pluginDir,
		fetcher:        fetcher,
		releases:       rels,
		matcher:        MatchExact,
		log:            logger.NewLogger("plugin"),
	}
}

// SetMatcher overrides the removal matching scheme.
func (m *Manager) SetMatcher(matcher Matcher) {
	m.matcher = matcher
}

// List returns the plugins offered by the runtime release, marking each as
// compatible or not with the current platform.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	rel, err := m.releases.GetByTag(ctx, m.runtimeVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release metadata: %w", err)
	}

	names := make([]string, 0, len(rel.Assets))
	for _, asset := range rel.Assets {
		names = append(names, asset.GetName())
	}

	return scanAssets(names, m.runtimeVersion, m.scheme.Token(m.platform)), nil
}

// scanAssets derives the plugin list from release asset names. Asset names
// look like WasmEdge-plugin-<name>-<version>-<platform>.tar.gz; names with
// fewer than 4 hyphen-delimited segments are skipped as unparseable.
// Duplicate plugin names keep the first occurrence.
func scanAssets(assetNames []string, version, platformToken string) []Info {
	var plugins []Info
	seen := make(map[string]bool)

	for _, name := range assetNames {
		if !strings.HasPrefix(name, assetPrefix) || !strings.HasSuffix(name, assetSuffix) {
			continue
		}
		parts := strings.Split(name, "-")
		if len(parts) < 4 {
			continue
		}

		pluginName := strings.Join(parts[2:len(parts)-2], "-")
		if seen[pluginName] {
			continue
		}
		seen[pluginName] = true

		plugins = append(plugins, Info{
			Name:       pluginName,
			Version:    version,
			Compatible: strings.Contains(name, platformToken),
		})
	}

	return plugins
}

// downloadURLs returns the ordered candidate URLs for a plugin archive: the
// primary naming embeds the version in the file name, the alternate omits it.
// They are tried in sequence, stopping at the first success.
func (m *Manager) downloadURLs(name string) []string {
	token := m.scheme.Token(m.platform)
	return []string{
		m.releases.DownloadURL(m.runtimeVersion, fmt.Sprintf("%s%s-%s-%s%s", assetPrefix, urlName(name), m.runtimeVersion, token, assetSuffix)),
		m.releases.DownloadURL(m.runtimeVersion, fmt.Sprintf("%s%s-%s%s", assetPrefix, urlName(name), token, assetSuffix)),
	}
}

// Install downloads the plugin archive and places its shared libraries into
// the plugin directory. version is diagnostic only; artifacts are always
// addressed by the runtime version.
func (m *Manager) Install(ctx context.Context, name, version string) error {
	m.log.WithFields(logger.Fields{
		"plugin":  name,
		"version": version,
		"runtime": m.runtimeVersion,
	}).Info("Installing plugin")

	if err := os.MkdirAll(m.pluginDir, 0755); err != nil {
		return fmt.Errorf("failed to create plugin directory: %w", err)
	}

	scratch, err := os.MkdirTemp("", "wasmedgeup-plugin-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	archivePath := filepath.Join(scratch, "plugin.tar.gz")
	for _, url := range m.downloadURLs(name) {
		m.log.WithField("url", url).Debug("Attempting plugin download")
		if err := m.fetcher.DownloadToFile(ctx, url, archivePath); err != nil {
			m.log.WithError(err).Warn("Plugin download attempt failed")
			continue
		}

		if err := m.extractLibraries(archivePath); err != nil {
			return fmt.Errorf("failed to extract plugin %s: %w", name, err)
		}
		m.log.WithField("plugin", name).Info("Plugin installed")
		return nil
	}

	return &NotFoundError{
		Name:       name,
		Platform:   m.platform,
		ReleaseURL: m.releases.PageURL(m.runtimeVersion),
	}
}

// extractLibraries walks the archive and places only shared-library entries
// flat into the plugin directory, preserving file names. Manifests, docs and
// other entries are ignored.
func (m *Manager) extractLibraries(archivePath string) error {
	return archiver.NewTarGz().Walk(archivePath, func(f archiver.File) error {
		if f.IsDir() {
			return nil
		}
		switch filepath.Ext(f.Name()) {
		case ".so", ".dll", ".dylib":
		default:
			return nil
		}

		dest := filepath.Join(m.pluginDir, f.Name())
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		defer out.Close()

		if _, err := io.Copy(out, f); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}

		m.log.WithField("file", dest).Debug("Extracted plugin library")
		return nil
	})
}

// Remove deletes the plugin's library files from the plugin directory using
// the configured matching scheme. version is diagnostic only.
func (m *Manager) Remove(name, version string) error {
	m.log.WithFields(logger.Fields{
		"plugin":  name,
		"version": version,
	}).Info("Removing plugin")

	expected := LibraryName(name, m.platform.LibraryExt())

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("plugin %s: %w", name, ErrNotInstalled)
		}
		return fmt.Errorf("failed to read plugin directory: %w", err)
	}

	found := false
	for _, entry := range entries {
		if entry.IsDir() || !m.matcher.Matches(entry.Name(), expected) {
			continue
		}
		path := filepath.Join(m.pluginDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		m.log.WithField("file", path).Debug("Removed plugin file")
		found = true
	}

	if !found {
		return fmt.Errorf("plugin %s: %w", name, ErrNotInstalled)
	}
	return nil
}
