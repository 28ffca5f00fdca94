package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	all := c.All()
	require.NotEmpty(t, all)
	for _, e := range all {
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.URL)
		got, ok := c.Get(e.ID)
		assert.True(t, ok)
		assert.Equal(t, e, got)
	}
}

func TestParseRejectsBadEntries(t *testing.T) {
	_, err := Parse([]byte(`[{"id":"a"}]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`[{"id":"a","url":"u"},{"id":"a","url":"v"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestQueries(t *testing.T) {
	c, err := Parse([]byte(`[
		{"id":"a","name":"Alpha Plan","url":"u1","category":"strategy"},
		{"id":"b","name":"Beta","url":"u2","category":"marketing","description":"ad copy"},
		{"id":"c","name":"Gamma","url":"u3","category":"Strategy"}
	]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"strategy", "marketing", "Strategy"}, c.Categories())
	assert.Len(t, c.ByCategory("strategy"), 2)
	assert.Len(t, c.Search("COPY"), 1)
	assert.Len(t, c.Search("plan"), 1)
	assert.Len(t, c.Search(" "), 3)

	resolved := c.Resolve([]string{"b", "zzz"})
	assert.Equal(t, "Beta", resolved[0].Name)
	assert.Equal(t, Entry{ID: "zzz"}, resolved[1])

	_, ok := c.Get("zzz")
	assert.False(t, ok)
}
