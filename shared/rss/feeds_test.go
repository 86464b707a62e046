package rss

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeFile(t, `
sources:
  - name: Lab Blog
    url: https://lab.example.com/feed.xml
  - name: Routed
    url: https://mirror-a.example.com/lab/news
    mirror_group: custom
mirror_groups:
  - name: custom
    bases: [https://mirror-a.example.com, https://mirror-b.example.com]
`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lab Blog", "Routed"}, reg.Names())

	src, ok := reg.Lookup("Routed")
	require.True(t, ok)
	assert.Equal(t, "custom", src.MirrorGroup)

	g, ok := reg.GroupForURL("https://MIRROR-B.example.com/x")
	require.True(t, ok)
	assert.Equal(t, "custom", g.Name)

	_, ok = reg.MirrorGroup(MirrorGroupRSSHub)
	assert.True(t, ok, "built-in pools survive a custom file")
}

func TestLoadRegistry_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":     "sources: []\n",
		"no url":    "sources:\n  - name: a\n",
		"duplicate": "sources:\n  - {name: a, url: https://a}\n  - {name: a, url: https://b}\n",
		"bad yaml":  "sources: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRegistry(writeFile(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Len(t, reg.Sources(), len(DefaultSources))

	g, ok := reg.GroupForURL("https://rsshub.app/anthropic/news")
	require.True(t, ok)
	assert.Equal(t, MirrorGroupRSSHub, g.Name)

	_, ok = reg.GroupForURL("https://openai.com/news/rss.xml")
	assert.False(t, ok)
	_, ok = reg.Lookup("nope")
	assert.False(t, ok)
}
