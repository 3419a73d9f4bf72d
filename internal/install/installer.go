package install

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mholt/archiver"

	"github.com/wasmedge/wasmedgeup/internal/fetch"
	"github.com/wasmedge/wasmedgeup/internal/platform"
	"github.com/wasmedge/wasmedgeup/internal/releases"
	"github.com/wasmedge/wasmedgeup/pkg/logger"
)

// Installer scopes one runtime installation: where it goes, where downloads
// are staged, and which platform's artifacts to fetch.
type Installer struct {
	installPath string
	tempDir     string
	platform    platform.Platform
	scheme      platform.Scheme
	fetcher     *fetch.Fetcher
	releases    *releases.Client
	log         *logger.Logger
}

// New creates an installer for one install tree.
func New(installPath, tempDir string, p platform.Platform, scheme platform.Scheme, fetcher *fetch.Fetcher, rels *releases.Client) *Installer {
	return &Installer{
		installPath: installPath,
		tempDir:     tempDir,
		platform:    p,
		scheme:      scheme,
		fetcher:     fetcher,
		releases:    rels,
		log:         logger.NewLogger("installer"),
	}
}

// PluginDir returns the plugin directory inside the install tree.
func (i *Installer) PluginDir() string {
	return filepath.Join(i.installPath, "plugin")
}

// ArtifactName returns the release archive file name for this platform and
// version, e.g. WasmEdge-0.14.1-ubuntu20.04_x86_64.tar.gz.
func (i *Installer) ArtifactName(version string) string {
	return fmt.Sprintf("WasmEdge-%s-%s.tar.gz", version, i.scheme.Token(i.platform))
}

// Install downloads the runtime release for version, extracts it, and lays
// the contents out under the install path. On failure the install tree may be
// left partially populated; there is no rollback.
func (i *Installer) Install(ctx context.Context, version string) error {
	i.log.WithFields(logger.Fields{
		"version":  version,
		"path":     i.installPath,
		"platform": i.platform.String(),
	}).Info("Installing runtime")

	for _, dir := range []string{
		i.installPath,
		filepath.Join(i.installPath, "bin"),
		filepath.Join(i.installPath, "lib"),
		filepath.Join(i.installPath, "include"),
		i.PluginDir(),
		i.tempDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	url := i.releases.DownloadURL(version, i.ArtifactName(version))
	archivePath := filepath.Join(i.tempDir, fmt.Sprintf("wasmedge-%s.tar.gz", version))

	i.log.WithField("url", url).Info("Downloading release archive")
	if err := i.fetcher.DownloadToFile(ctx, url, archivePath); err != nil {
		return fmt.Errorf("failed to download release archive: %w", err)
	}

	if err := i.verifyArchive(ctx, version, archivePath); err != nil {
		return err
	}

	if err := i.extractArchive(version, archivePath); err != nil {
		return err
	}

	if err := i.writeEnvScript(); err != nil {
		return err
	}

	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("failed to remove downloaded archive: %w", err)
	}

	return nil
}

// verifyArchive checks the archive against the published .sha256 companion
// asset when one exists. A missing companion is not an error; releases
// without one are installed unverified.
func (i *Installer) verifyArchive(ctx context.Context, version, archivePath string) error {
	sumURL := i.releases.DownloadURL(version, i.ArtifactName(version)+".sha256")
	sumPath := archivePath + ".sha256"

	if err := i.fetcher.DownloadToFile(ctx, sumURL, sumPath); err != nil {
		var statusErr *fetch.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			i.log.WithField("url", sumURL).Debug("No checksum published for release, skipping verification")
			return nil
		}
		return fmt.Errorf("failed to download checksum file: %w", err)
	}
	defer os.Remove(sumPath)

	data, err := os.ReadFile(sumPath)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}
	expected := strings.Fields(string(data))
	if len(expected) == 0 {
		return fmt.Errorf("checksum file %s is empty", sumURL)
	}

	ok, err := i.fetcher.VerifyChecksum(archivePath, expected[0])
	if err != nil {
		return fmt.Errorf("failed to verify archive: %w", err)
	}
	if !ok {
		return fmt.Errorf("checksum mismatch for %s", archivePath)
	}

	i.log.Debug("Archive checksum verified")
	return nil
}

// extractArchive unpacks the release archive into a scratch directory and
// redistributes the extracted bin, lib and include subtrees into the install
// tree. Missing subtrees contribute nothing and are skipped.
func (i *Installer) extractArchive(version, archivePath string) error {
	scratch := filepath.Join(i.tempDir, "wasmedgeup-"+uuid.NewString())
	defer os.RemoveAll(scratch)

	if err := archiver.NewTarGz().Unarchive(archivePath, scratch); err != nil {
		return fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}

	extractedRoot := filepath.Join(scratch, fmt.Sprintf("WasmEdge-%s-%s-%s", version, i.platform.OS, i.platform.Arch))
	i.log.WithField("root", extractedRoot).Debug("Redistributing extracted files")

	if err := moveDirEntries(filepath.Join(extractedRoot, "bin"), filepath.Join(i.installPath, "bin")); err != nil {
		return fmt.Errorf("failed to place bin files: %w", err)
	}

	// Some artifacts ship libraries under lib64 instead of lib.
	libSource := filepath.Join(extractedRoot, "lib")
	if _, err := os.Stat(filepath.Join(extractedRoot, "lib64")); err == nil {
		libSource = filepath.Join(extractedRoot, "lib64")
	}
	if err := moveDirEntries(libSource, filepath.Join(i.installPath, "lib")); err != nil {
		return fmt.Errorf("failed to place lib files: %w", err)
	}

	if err := moveDirEntries(filepath.Join(extractedRoot, "include"), filepath.Join(i.installPath, "include")); err != nil {
		return fmt.Errorf("failed to place include files: %w", err)
	}

	return nil
}

// Remove deletes the install tree. A missing tree is a no-op success.
func (i *Installer) Remove() error {
	if _, err := os.Stat(i.installPath); err != nil {
		if os.IsNotExist(err) {
			i.log.WithField("path", i.installPath).Debug("Install path does not exist, nothing to remove")
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", i.installPath, err)
	}

	if err := os.RemoveAll(i.installPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", i.installPath, err)
	}

	i.log.WithField("path", i.installPath).Info("Removed installation")
	return nil
}
