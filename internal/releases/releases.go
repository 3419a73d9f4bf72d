package releases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v50/github"

	"github.com/wasmedge/wasmedgeup/pkg/logger"
)

const (
	// DefaultOwner and DefaultRepo identify the upstream runtime repository
	// all artifacts are published under.
	DefaultOwner = "WasmEdge"
	DefaultRepo  = "WasmEdge"

	downloadHost = "https://github.com"
	rawHost      = "https://raw.githubusercontent.com"
)

// ErrNoReleases is returned when the repository has no usable release to
// resolve "latest" against.
var ErrNoReleases = errors.New("no releases found")

// Client answers release questions against the GitHub API: which versions
// exist, which one is latest, and what assets a given tag carries.
type Client struct {
	gh           *github.Client
	owner        string
	repo         string
	downloadHost string
	rawHost      string
	log          *logger.Logger
}

// SetDownloadHost points artifact downloads at a mirror instead of
// github.com. The API side is unaffected.
func (c *Client) SetDownloadHost(host string) {
	c.downloadHost = strings.TrimSuffix(host, "/")
}

// SetRawHost points raw file fetches (manifests) at a mirror instead of
// raw.githubusercontent.com.
func (c *Client) SetRawHost(host string) {
	c.rawHost = strings.TrimSuffix(host, "/")
}

// NewClient creates a release client on top of the given HTTP client. Empty
// owner/repo fall back to the upstream defaults.
func NewClient(httpClient *http.Client, owner, repo string) *Client {
	if owner == "" {
		owner = DefaultOwner
	}
	if repo == "" {
		repo = DefaultRepo
	}
	return &Client{
		gh:           github.NewClient(httpClient),
		owner:        owner,
		repo:         repo,
		downloadHost: downloadHost,
		rawHost:      rawHost,
		log:          logger.NewLogger("releases"),
	}
}

// List returns published, non-draft, non-prerelease version tags sorted
// newest first. Tags that do not parse as semver are skipped.
func (c *Client) List(ctx context.Context) ([]string, error) {
	type tagged struct {
		tag     string
		version *semver.Version
	}
	var found []tagged

	opts := &github.ListOptions{Page: 1, PerPage: 100}
	for {
		rels, resp, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list releases for %s/%s: %w", c.owner, c.repo, err)
		}
		for _, rel := range rels {
			if rel.GetDraft() || rel.GetPrerelease() {
				continue
			}
			v, err := semver.NewVersion(rel.GetTagName())
			if err != nil {
				continue
			}
			found = append(found, tagged{tag: rel.GetTagName(), version: v})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].version.GreaterThan(found[j].version)
	})

	tags := make([]string, len(found))
	for i, t := range found {
		tags[i] = t.tag
	}

	c.log.WithField("count", len(tags)).Debug("Fetched release list")
	return tags, nil
}

// Latest resolves the newest published version.
func (c *Client) Latest(ctx context.Context) (string, error) {
	tags, err := c.List(ctx)
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("%s/%s: %w", c.owner, c.repo, ErrNoReleases)
	}
	return tags[0], nil
}

// GetByTag fetches the release metadata, including its asset list, for one
// version tag.
func (c *Client) GetByTag(ctx context.Context, tag string) (*github.RepositoryRelease, error) {
	rel, _, err := c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release %s of %s/%s: %w", tag, c.owner, c.repo, err)
	}
	return rel, nil
}

// DownloadURL builds the canonical URL of a release artifact.
func (c *Client) DownloadURL(version, artifact string) string {
	return fmt.Sprintf("%s/%s/%s/releases/download/%s/%s", c.downloadHost, c.owner, c.repo, version, artifact)
}

// PageURL returns the human-facing release page for a version, used in
// error messages pointing users at the available assets.
func (c *Client) PageURL(version string) string {
	return fmt.Sprintf("%s/%s/%s/releases/tag/%s", downloadHost, c.owner, c.repo, version)
}

// RawURL builds the URL of a file on the repository's default branch.
func (c *Client) RawURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/master/%s", c.rawHost, c.owner, c.repo, strings.TrimPrefix(path, "/"))
}
