// Package builder runs the incremental sync pipeline: list remote tags,
// filter, diff against the processed and failed caches, fetch what is
// new, and persist only when something changed.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/SrGnis/cataclysm-db/internal/config"
	"github.com/SrGnis/cataclysm-db/internal/release"
	"github.com/SrGnis/cataclysm-db/internal/store"
)

// requestInterval bounds the fetch rate independently of the client's
// rate-limit backoff.
const requestInterval = 100 * time.Millisecond

// ReleaseFetcher fetches release metadata for one tag. A nil result
// means "no release for this tag", whatever the underlying cause.
type ReleaseFetcher interface {
	ReleaseByTag(ctx context.Context, repo, tag, gameType string) *release.Release
}

// TagLister enumerates all tags of a remote repository.
type TagLister interface {
	List(ctx context.Context, repo string) []string
	Filter(tags []string, patterns []string) []string
}

// Options configures a Builder.
type Options struct {
	Store   *store.Store
	Fetcher ReleaseFetcher
	Tags    TagLister
	Logger  zerolog.Logger

	// Limiter paces fetches; defaults to one request per 100ms.
	Limiter *rate.Limiter
	// Now is the clock used for index stamps; defaults to time.Now.
	Now func() time.Time
}

// Builder syncs the release database for a set of configured games.
type Builder struct {
	store   *store.Store
	fetcher ReleaseFetcher
	tags    TagLister
	limiter *rate.Limiter
	logger  zerolog.Logger
	now     func() time.Time
}

// New returns a Builder.
func New(opts Options) *Builder {
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Every(requestInterval), 1)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{
		store:   opts.Store,
		fetcher: opts.Fetcher,
		tags:    opts.Tags,
		limiter: opts.Limiter,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Run syncs every game in order. A failure in one game is logged and
// does not stop the remaining games.
func (b *Builder) Run(ctx context.Context, games []config.Game) {
	for _, game := range games {
		if err := b.BuildGame(ctx, game); err != nil {
			b.logger.Error().Err(err).Str("game", game.Name).Msg("sync failed")
		}
	}
}

// BuildGame runs the incremental pipeline for one game.
func (b *Builder) BuildGame(ctx context.Context, game config.Game) error {
	log := b.logger.With().Str("game", game.Name).Logger()
	log.Info().Str("repo", game.Repo).Msg("syncing")

	processed := b.store.LoadProcessedTags(game.Name)
	failed := b.store.LoadFailedTags(game.Name)
	releases := b.store.LoadReleases(game.Name)
	log.Info().Int("processed", len(processed)).Int("failed", len(failed)).
		Int("releases", len(releases)).Msg("loaded state")

	all := b.tags.List(ctx, game.Repo)
	candidates := b.tags.Filter(all, game.Filters)
	newTags := subtract(candidates, processed, failed)
	log.Info().Int("tags", len(all)).Int("candidates", len(candidates)).
		Int("new", len(newTags)).Msg("tag discovery done")

	added := 0
	for i, tag := range newTags {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for request slot: %w", err)
		}
		log.Info().Str("tag", tag).Msgf("processing tag %d/%d", i+1, len(newTags))

		rel := b.fetcher.ReleaseByTag(ctx, game.Repo, tag, game.Name)
		if rel != nil {
			releases = append(releases, *rel)
			processed = append(processed, tag)
			added++
		} else {
			// Also reached on transient errors: the tag is retired for
			// good either way, matching the established cache contract.
			failed = append(failed, tag)
		}
	}

	// Every attempted tag is cached even when all fetches failed, so no
	// run ever retries them.
	if len(newTags) > 0 {
		if err := b.store.SaveProcessedTags(game.Name, processed); err != nil {
			log.Error().Err(err).Msg("saving processed tags")
		}
		if err := b.store.SaveFailedTags(game.Name, failed); err != nil {
			log.Error().Err(err).Msg("saving failed tags")
		}
	}

	if added == 0 {
		log.Info().Msg("no new releases, skipping save")
		return nil
	}

	if err := b.store.SaveReleases(game.Name, releases); err != nil {
		return fmt.Errorf("saving releases: %w", err)
	}
	if err := b.store.TouchIndex(game.Name, b.now()); err != nil {
		log.Error().Err(err).Msg("updating index")
	}
	log.Info().Int("added", added).Int("total", len(releases)).Msg("database updated")
	return nil
}

// subtract returns the candidates not present in either exclusion list,
// preserving candidate order.
func subtract(candidates []string, exclude ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range exclude {
		for _, tag := range list {
			seen[tag] = struct{}{}
		}
	}
	var out []string
	for _, tag := range candidates {
		if _, ok := seen[tag]; !ok {
			out = append(out, tag)
		}
	}
	return out
}
