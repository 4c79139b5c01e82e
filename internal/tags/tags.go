// Package tags lists and filters the version tags of a remote git
// repository. Listing shells out to git ls-remote; no clone is kept.
package tags

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const listTimeout = 60 * time.Second

// Source lists remote tags and filters them against configured patterns.
type Source struct {
	logger zerolog.Logger

	// git binary to invoke; overridable in tests.
	git string
}

// NewSource returns a Source using the git binary on PATH.
func NewSource(logger zerolog.Logger) *Source {
	return &Source{logger: logger, git: "git"}
}

// List returns every tag of the remote repository, identified as
// owner/name. Failures (timeout, non-zero exit, missing git) are logged
// and yield an empty list; a sync run degrades to a no-op rather than
// aborting.
func (s *Source) List(ctx context.Context, repo string) []string {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	url := fmt.Sprintf("https://github.com/%s.git", repo)
	cmd := exec.CommandContext(ctx, s.git, "ls-remote", "--tags", url)
	out, err := cmd.Output()
	if err != nil {
		s.logger.Error().Err(err).Str("repo", repo).Msg("listing remote tags failed")
		return nil
	}
	return parseLsRemote(string(out))
}

// parseLsRemote extracts tag names from git ls-remote output lines of
// the form "<hash>\trefs/tags/<tag>". Annotated-tag dereference entries
// (suffix "^{}") are dropped so each tag appears once.
func parseLsRemote(out string) []string {
	var tags []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		idx := strings.Index(line, "refs/tags/")
		if idx < 0 {
			continue
		}
		tag := line[idx+len("refs/tags/"):]
		if tag == "" || strings.HasSuffix(tag, "^{}") {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// Filter keeps the tags matching at least one pattern. Patterns are
// anchored at the start of the tag (re.match semantics, preserved for
// compatibility with existing filter configs). Invalid patterns are
// logged and skipped. Order follows the input tag list; a tag matching
// several patterns is kept once.
func (s *Source) Filter(tags []string, patterns []string) []string {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")")
		if err != nil {
			s.logger.Warn().Err(err).Str("pattern", p).Msg("skipping invalid filter pattern")
			continue
		}
		compiled = append(compiled, re)
	}

	var out []string
	for _, tag := range tags {
		for _, re := range compiled {
			if re.MatchString(tag) {
				out = append(out, tag)
				break
			}
		}
	}
	return out
}
