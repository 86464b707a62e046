package rssfeeds

import (
	"net/url"
	"strings"

	"newsbrief/shared/rss"
	"newsbrief/types"
)

// MaxMirrorCandidates caps how many equivalent addresses are tried per source.
const MaxMirrorCandidates = 3

// Candidates resolves a source to the ordered addresses worth trying. A
// source in a mirror group keeps its own address first and then borrows
// the group's other hosts with the same path and query.
func Candidates(reg *rss.Registry, src types.Source) []string {
	group, ok := rss.MirrorGroup{}, false
	if src.MirrorGroup != "" {
		group, ok = reg.MirrorGroup(src.MirrorGroup)
	}
	if !ok {
		group, ok = reg.GroupForURL(src.URL)
	}
	if !ok || len(group.Bases) == 0 {
		return []string{src.URL}
	}

	u, err := url.Parse(src.URL)
	if err != nil || u.Host == "" {
		return []string{src.URL}
	}
	suffix := u.EscapedPath()
	if u.RawQuery != "" {
		suffix += "?" + u.RawQuery
	}

	out := []string{src.URL}
	seen := map[string]bool{strings.ToLower(u.Host): true}
	for _, base := range group.Bases {
		if len(out) >= MaxMirrorCandidates {
			break
		}
		b, err := url.Parse(base)
		if err != nil || b.Host == "" {
			continue
		}
		host := strings.ToLower(b.Host)
		if seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, strings.TrimRight(base, "/")+suffix)
	}
	return out
}
