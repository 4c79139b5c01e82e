// Package github wraps the GitHub release API: one release-by-tag
// lookup, translated into the domain model, with rate-limit bookkeeping.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/SrGnis/cataclysm-db/internal/release"
)

const (
	defaultBaseURL = "https://api.github.com"
	requestTimeout = 30 * time.Second

	// Block until the rate-limit window resets once fewer than this
	// many calls remain, plus a safety margin.
	rateLimitFloor  = 10
	rateLimitMargin = time.Second
)

// Client talks to the GitHub REST API. Rate-limit counters are owned by
// the client instance and updated from response headers on every call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger

	remaining int
	reset     int64

	// Injected for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewClient returns a Client. An empty token means unauthenticated
// requests (much lower rate limit, but valid).
func NewClient(token string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		token:      token,
		logger:     logger,
		remaining:  5000,
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

type assetPayload struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

type releasePayload struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	TagName     string         `json:"tag_name"`
	Prerelease  bool           `json:"prerelease"`
	Body        string         `json:"body"`
	PublishedAt string         `json:"published_at"`
	CreatedAt   string         `json:"created_at"`
	Assets      []assetPayload `json:"assets"`
}

// ReleaseByTag fetches the release published for one tag of owner/name
// repo and returns it as a domain Release, with every asset classified.
//
// Returns nil when the tag has no release (404) and on every other
// failure: the caller records the tag as failed either way, so transport
// errors and permanent absence are deliberately not distinguished here.
func (c *Client) ReleaseByTag(ctx context.Context, repo, tag, gameType string) *release.Release {
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", c.baseURL, repo, tag)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("tag", tag).Msg("building release request")
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("repo", repo).Str("tag", tag).Msg("release request failed")
		return nil
	}
	defer resp.Body.Close()

	c.updateRateLimit(resp.Header)

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload releasePayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			c.logger.Warn().Err(err).Str("tag", tag).Msg("decoding release payload")
			return nil
		}
		return c.translate(&payload, gameType)
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Debug().Str("repo", repo).Str("tag", tag).Msg("no release for tag")
		return nil
	default:
		c.logger.Warn().Int("status", resp.StatusCode).Str("repo", repo).Str("tag", tag).
			Msg("unexpected release API status")
		return nil
	}
}

// updateRateLimit records the X-RateLimit headers and blocks until the
// window resets when the remaining budget drops below the floor.
func (c *Client) updateRateLimit(h http.Header) {
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.reset = n
		}
	}

	if c.remaining < rateLimitFloor {
		wait := time.Unix(c.reset, 0).Sub(c.now())
		if wait > 0 {
			c.logger.Warn().Int("remaining", c.remaining).Dur("wait", wait).
				Msg("rate limit low, waiting for reset")
			c.sleep(wait + rateLimitMargin)
		}
	}
}

func (c *Client) translate(p *releasePayload, gameType string) *release.Release {
	rel := &release.Release{
		ID:          p.ID,
		Name:        p.Name,
		Tag:         p.TagName,
		Prerelease:  p.Prerelease,
		Channel:     release.ChannelFor(p.Name, p.Prerelease),
		GameType:    gameType,
		Body:        p.Body,
		PublishedAt: parseOptionalTime(p.PublishedAt),
		CreatedAt:   parseOptionalTime(p.CreatedAt),
	}

	for _, ap := range p.Assets {
		asset, err := translateAsset(ap)
		if err != nil {
			// One malformed asset must not sink the whole release.
			c.logger.Warn().Err(err).Str("asset", ap.Name).Str("tag", p.TagName).
				Msg("skipping malformed asset")
			continue
		}
		rel.Assets = append(rel.Assets, asset)
	}
	return rel
}

func translateAsset(p assetPayload) (release.Asset, error) {
	if p.Name == "" {
		return release.Asset{}, fmt.Errorf("asset has no name")
	}
	created, err := parseTime(p.CreatedAt)
	if err != nil {
		return release.Asset{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updated, err := parseTime(p.UpdatedAt)
	if err != nil {
		return release.Asset{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	a := release.Asset{
		Name:        p.Name,
		Size:        p.Size,
		DownloadURL: p.BrowserDownloadURL,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
	a.Classify()
	return a, nil
}

// parseTime parses the API's ISO-8601 timestamps; RFC 3339 already
// covers the trailing "Z" UTC marker GitHub emits.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseOptionalTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil
	}
	return &t
}
