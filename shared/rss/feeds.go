package rss

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"newsbrief/types"

	"gopkg.in/yaml.v3"
)

// MirrorGroup is a pool of base addresses expected to serve identical routes.
// The first entry is the primary host.
type MirrorGroup struct {
	Name  string   `yaml:"name"`
	Bases []string `yaml:"bases"`
}

// MirrorGroupRSSHub is the RSSHub instance pool used by routed sources.
const MirrorGroupRSSHub = "rsshub"

// DefaultSources is the built-in registry, in rendering order.
var DefaultSources = []types.Source{
	{Name: "OpenAI News", URL: "https://openai.com/news/rss.xml"},
	{Name: "Google DeepMind", URL: "https://deepmind.google/blog/rss.xml"},
	{Name: "Anthropic News", URL: "https://rsshub.app/anthropic/news", MirrorGroup: MirrorGroupRSSHub},
	{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml"},
	{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
	{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
	{Name: "MIT Technology Review", URL: "https://www.technologyreview.com/feed/"},
	{Name: "Hacker News", URL: "https://hnrss.org/newest?q=AI+OR+LLM&points=50"},
	{Name: "arXiv cs.AI", URL: "https://rss.arxiv.org/rss/cs.AI"},
	{Name: "Jiqizhixin", URL: "https://rsshub.app/jiqizhixin/daily", MirrorGroup: MirrorGroupRSSHub},
}

// DefaultMirrorGroups lists the built-in mirror pools.
var DefaultMirrorGroups = []MirrorGroup{
	{
		Name: MirrorGroupRSSHub,
		Bases: []string{
			"https://rsshub.app",
			"https://rsshub.rssforever.com",
			"https://hub.slarker.me",
			"https://rsshub.pseudoyu.com",
		},
	},
}

// Registry is the immutable set of sources and mirror groups for a process.
type Registry struct {
	sources []types.Source
	groups  map[string]MirrorGroup
}

// NewRegistry builds a registry from explicit sources and mirror groups.
func NewRegistry(sources []types.Source, groups []MirrorGroup) *Registry {
	r := &Registry{
		sources: append([]types.Source(nil), sources...),
		groups:  make(map[string]MirrorGroup, len(groups)),
	}
	for _, g := range groups {
		r.groups[g.Name] = g
	}
	return r
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultSources, DefaultMirrorGroups)
}

type registryFile struct {
	Sources      []types.Source `yaml:"sources"`
	MirrorGroups []MirrorGroup  `yaml:"mirror_groups"`
}

// LoadRegistry reads a YAML sources file. Mirror groups missing from the
// file fall back to the built-in pools.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s declares no sources", path)
	}

	seen := make(map[string]bool, len(f.Sources))
	for i, s := range f.Sources {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.URL) == "" {
			return nil, fmt.Errorf("source #%d needs both name and url", i+1)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
	}

	groups := append([]MirrorGroup(nil), DefaultMirrorGroups...)
	groups = append(groups, f.MirrorGroups...)
	return NewRegistry(f.Sources, groups), nil
}

// Sources returns the sources in registry order.
func (r *Registry) Sources() []types.Source {
	return append([]types.Source(nil), r.sources...)
}

// Names returns the source names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name
	}
	return names
}

// Lookup finds a source by name.
func (r *Registry) Lookup(name string) (types.Source, bool) {
	for _, s := range r.sources {
		if s.Name == name {
			return s, true
		}
	}
	return types.Source{}, false
}

// MirrorGroup returns the named mirror pool.
func (r *Registry) MirrorGroup(name string) (MirrorGroup, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// GroupForURL finds the mirror pool whose hosts include the address's host.
func (r *Registry) GroupForURL(raw string) (MirrorGroup, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return MirrorGroup{}, false
	}
	host := strings.ToLower(u.Host)
	for _, g := range r.groups {
		for _, base := range g.Bases {
			b, err := url.Parse(base)
			if err == nil && strings.ToLower(b.Host) == host {
				return g, true
			}
		}
	}
	return MirrorGroup{}, false
}
