package builder

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/SrGnis/cataclysm-db/internal/config"
	"github.com/SrGnis/cataclysm-db/internal/release"
	"github.com/SrGnis/cataclysm-db/internal/store"
	"github.com/SrGnis/cataclysm-db/internal/tags"
)

// fakeTags serves a fixed tag list and reuses the real filter.
type fakeTags struct {
	tags   []string
	source *tags.Source
}

func (f *fakeTags) List(ctx context.Context, repo string) []string {
	return f.tags
}

func (f *fakeTags) Filter(list []string, patterns []string) []string {
	return f.source.Filter(list, patterns)
}

// fakeFetcher returns canned releases by tag and counts calls.
type fakeFetcher struct {
	releases map[string]*release.Release
	calls    []string
}

func (f *fakeFetcher) ReleaseByTag(ctx context.Context, repo, tag, gameType string) *release.Release {
	f.calls = append(f.calls, tag)
	rel := f.releases[tag]
	if rel == nil {
		return nil
	}
	cp := *rel
	cp.GameType = gameType
	return &cp
}

func testBuilder(t *testing.T, remoteTags []string, releases map[string]*release.Release) (*Builder, *store.Store, *fakeFetcher) {
	t.Helper()
	st := store.New(t.TempDir(), zerolog.Nop())
	fetcher := &fakeFetcher{releases: releases}
	b := New(Options{
		Store:   st,
		Fetcher: fetcher,
		Tags:    &fakeTags{tags: remoteTags, source: tags.NewSource(zerolog.Nop())},
		Logger:  zerolog.Nop(),
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Now:     func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return b, st, fetcher
}

func g1() config.Game {
	return config.Game{Name: "g1", Repo: "o/r", Filters: []string{`^v\d`}}
}

func TestAllFetchesFail(t *testing.T) {
	// Remote has two matching tags, neither has a release.
	b, st, fetcher := testBuilder(t, []string{"v1.0", "beta", "v2.0"}, nil)

	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("BuildGame: %v", err)
	}

	if want := []string{"v1.0", "v2.0"}; !reflect.DeepEqual(fetcher.calls, want) {
		t.Errorf("fetched tags = %v, want %v", fetcher.calls, want)
	}
	if got := st.LoadProcessedTags("g1"); len(got) != 0 {
		t.Errorf("processed tags = %v, want empty", got)
	}
	if got := st.LoadFailedTags("g1"); !reflect.DeepEqual(got, []string{"v1.0", "v2.0"}) {
		t.Errorf("failed tags = %v, want [v1.0 v2.0]", got)
	}
	// Attempted tags are cached on disk even though every fetch failed.
	if _, err := os.Stat(st.FailedTagsPath("g1")); err != nil {
		t.Errorf("failed tags file not written: %v", err)
	}
	// No release collection and no index entry: nothing changed.
	if _, err := os.Stat(st.ReleasesPath("g1")); !os.IsNotExist(err) {
		t.Errorf("releases file should not exist: %v", err)
	}
	if _, err := os.Stat(st.IndexPath()); !os.IsNotExist(err) {
		t.Errorf("index file should not exist: %v", err)
	}
}

func TestSuccessfulSyncPersistsEverything(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b, st, _ := testBuilder(t, []string{"v1.0", "v2.0"}, map[string]*release.Release{
		"v1.0": {ID: 1, Tag: "v1.0", PublishedAt: &published},
	})

	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("BuildGame: %v", err)
	}

	if got := st.LoadProcessedTags("g1"); !reflect.DeepEqual(got, []string{"v1.0"}) {
		t.Errorf("processed tags = %v", got)
	}
	if got := st.LoadFailedTags("g1"); !reflect.DeepEqual(got, []string{"v2.0"}) {
		t.Errorf("failed tags = %v", got)
	}

	releases := st.LoadReleases("g1")
	if len(releases) != 1 || releases[0].Tag != "v1.0" || releases[0].GameType != "g1" {
		t.Errorf("unexpected releases: %+v", releases)
	}

	idx := st.LoadIndex()
	entry, ok := idx["g1"]
	if !ok {
		t.Fatal("expected index entry for g1")
	}
	if want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Unix(); entry.Version != want {
		t.Errorf("index version = %d, want %d", entry.Version, want)
	}
}

func TestSecondRunIsNoOp(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b, st, fetcher := testBuilder(t, []string{"v1.0", "v2.0"}, map[string]*release.Release{
		"v1.0": {ID: 1, Tag: "v1.0", PublishedAt: &published},
	})

	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	indexBefore, err := os.ReadFile(st.IndexPath())
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	releasesBefore, err := os.ReadFile(st.ReleasesPath("g1"))
	if err != nil {
		t.Fatalf("reading releases: %v", err)
	}
	fetcher.calls = nil

	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	// Nothing new remotely: no fetches, no writes.
	if len(fetcher.calls) != 0 {
		t.Errorf("second run fetched %v, want none", fetcher.calls)
	}
	indexAfter, _ := os.ReadFile(st.IndexPath())
	if !reflect.DeepEqual(indexBefore, indexAfter) {
		t.Error("index changed on a no-op run")
	}
	releasesAfter, _ := os.ReadFile(st.ReleasesPath("g1"))
	if !reflect.DeepEqual(releasesBefore, releasesAfter) {
		t.Error("releases changed on a no-op run")
	}
}

func TestFailedTagsNeverRetried(t *testing.T) {
	b, _, fetcher := testBuilder(t, []string{"v1.0"}, nil)

	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	fetcher.calls = nil

	// The tag still matches the filters, but it is cached as failed.
	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("failed tag was retried: %v", fetcher.calls)
	}
}

func TestIncrementalRunFetchesOnlyNewTags(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fake := &fakeTags{tags: []string{"v1.0"}, source: tags.NewSource(zerolog.Nop())}
	st := store.New(t.TempDir(), zerolog.Nop())
	fetcher := &fakeFetcher{releases: map[string]*release.Release{
		"v1.0": {ID: 1, Tag: "v1.0", PublishedAt: &published},
		"v2.0": {ID: 2, Tag: "v2.0", PublishedAt: &published},
	}}
	b := New(Options{
		Store:   st,
		Fetcher: fetcher,
		Tags:    fake,
		Logger:  zerolog.Nop(),
		Limiter: rate.NewLimiter(rate.Inf, 1),
	})

	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	fetcher.calls = nil

	// A new tag appears upstream.
	fake.tags = []string{"v1.0", "v2.0"}
	if err := b.BuildGame(context.Background(), g1()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if want := []string{"v2.0"}; !reflect.DeepEqual(fetcher.calls, want) {
		t.Errorf("fetched %v, want %v", fetcher.calls, want)
	}
	if got := st.LoadReleases("g1"); len(got) != 2 {
		t.Errorf("expected 2 releases after incremental run, got %d", len(got))
	}
}

func TestRunProcessesAllGames(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b, st, _ := testBuilder(t, []string{"v1.0"}, map[string]*release.Release{
		"v1.0": {ID: 1, Tag: "v1.0", PublishedAt: &published},
	})

	games := []config.Game{
		{Name: "no-matches", Repo: "o/r", Filters: []string{`[`}}, // every pattern invalid, no candidates
		{Name: "g2", Repo: "o/r", Filters: []string{`^v\d`}},
	}
	b.Run(context.Background(), games)

	if got := st.LoadReleases("g2"); len(got) != 1 {
		t.Errorf("expected g2 to sync despite the earlier no-op game, got %v", got)
	}
	if _, ok := st.LoadIndex()["no-matches"]; ok {
		t.Error("no-op game should not get an index entry")
	}
}
