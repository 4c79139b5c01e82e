// Package release holds the domain model persisted in the release
// database: one Release per git tag, each carrying classified Assets.
package release

import (
	"sort"
	"strings"
	"time"

	"github.com/SrGnis/cataclysm-db/internal/classify"
)

// Channel separates stable builds from experimental ones.
type Channel string

const (
	ChannelStable       Channel = "stable"
	ChannelExperimental Channel = "experimental"
)

// ChannelFor infers the release channel from the release name and the
// prerelease flag.
func ChannelFor(name string, prerelease bool) Channel {
	if prerelease || strings.Contains(strings.ToLower(name), "experimental") {
		return ChannelExperimental
	}
	return ChannelStable
}

// Asset is one downloadable file attached to a release. The four
// classification fields are derived from Name and are always populated;
// "unknown" is a value, not an absence.
type Asset struct {
	Name        string            `json:"name"`
	Size        int64             `json:"size"`
	DownloadURL string            `json:"download_url"`
	Platform    classify.Platform `json:"platform"`
	Arch        classify.Arch     `json:"arch"`
	Graphics    classify.Graphics `json:"graphics"`
	Sounds      classify.Sound    `json:"sounds"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Classify rederives all four classification tags from the asset
// filename. Deterministic and idempotent.
func (a *Asset) Classify() {
	a.Platform = classify.PlatformOf(a.Name)
	a.Arch = classify.ArchOf(a.Name)
	a.Graphics = classify.GraphicsOf(a.Name)
	a.Sounds = classify.SoundOf(a.Name)
}

// Release is the metadata of one published game release.
type Release struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Tag         string     `json:"tag_name"`
	Prerelease  bool       `json:"prerelease"`
	Channel     Channel    `json:"channel"`
	GameType    string     `json:"game_type"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   *time.Time `json:"created_at"`
	Body        string     `json:"body"`
	Assets      []Asset    `json:"assets"`
}

// EffectiveDate returns the date a release is ordered by: published_at,
// falling back to created_at, falling back to the Unix epoch.
func (r *Release) EffectiveDate() time.Time {
	if r.PublishedAt != nil {
		return *r.PublishedAt
	}
	if r.CreatedAt != nil {
		return *r.CreatedAt
	}
	return time.Unix(0, 0).UTC()
}

// SortByDate orders releases newest first by effective date.
func SortByDate(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].EffectiveDate().After(releases[j].EffectiveDate())
	})
}
