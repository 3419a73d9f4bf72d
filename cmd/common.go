package cmd

import (
	"context"

	"github.com/wasmedge/wasmedgeup/internal/fetch"
	"github.com/wasmedge/wasmedgeup/internal/platform"
	"github.com/wasmedge/wasmedgeup/internal/releases"
)

// resolvePlatform uses explicit overrides only when both are supplied,
// otherwise detects from the host.
func resolvePlatform(osFlag, archFlag string) (platform.Platform, error) {
	if osFlag != "" && archFlag != "" {
		return platform.FromOverride(osFlag, archFlag)
	}
	return platform.Detect()
}

func namingScheme() (platform.Scheme, error) {
	return platform.SchemeByID(Cfg.Release.NamingScheme)
}

func newClients() (*fetch.Fetcher, *releases.Client) {
	fetcher := fetch.NewFetcher()
	rels := releases.NewClient(fetcher.HTTPClient(), Cfg.Release.Owner, Cfg.Release.Repo)
	if Cfg.Release.Mirror != "" {
		rels.SetDownloadHost(Cfg.Release.Mirror)
	}
	return fetcher, rels
}

// resolveVersion maps the "latest" alias onto the newest published release.
func resolveVersion(ctx context.Context, rels *releases.Client, version string) (string, error) {
	if version != "latest" {
		return version, nil
	}
	return rels.Latest(ctx)
}
