package utils

import (
	"strings"
	"testing"
	"time"

	"boards/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	out := string(RenderMarkdown("**bold**\nnext line"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<br")

	out = string(RenderMarkdown("hello <script>alert(1)</script>"))
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "hello")

	out = string(RenderMarkdown("[docs](https://example.com/docs)"))
	assert.Contains(t, out, `href="https://example.com/docs"`)
	assert.Contains(t, out, "nofollow noopener noreferrer")
	assert.Contains(t, out, `target="_blank"`)

	out = string(RenderMarkdown("![](https://example.com/a.png)"))
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}

func TestEnhanceHTMLContentLeavesLocalLinks(t *testing.T) {
	out := string(EnhanceHTMLContent(`<p><a href="/boards/1/">board</a></p>`))
	assert.Contains(t, out, `href="/boards/1/"`)
	assert.NotContains(t, out, "_blank")
	assert.Empty(t, EnhanceHTMLContent(""))
}

func TestRenderPostCachesUntilEdited(t *testing.T) {
	post := &models.Post{ID: 900001, Message: "first"}
	assert.Contains(t, string(RenderPost(post)), "first")

	post.Message = "second"
	assert.Contains(t, string(RenderPost(post)), "first")

	edited := time.Now()
	post.UpdatedAt = &edited
	assert.Contains(t, string(RenderPost(post)), "second")

	unsaved := &models.Post{Message: "preview"}
	assert.Contains(t, string(RenderPost(unsaved)), "preview")
}

func TestCache(t *testing.T) {
	c, err := NewCache[string, int](2, time.Minute)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	_, ok := c.Get("a")
	assert.False(t, ok, "least recently used entry is evicted")
	assert.Equal(t, 2, c.Len())

	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Delete("b")
	assert.Zero(t, c.Len())

	_, err = NewCache[string, int](0, time.Minute)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("abcdef123456")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, CheckPasswordHash("abcdef123456", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, s := range []string{"", "0", "-1", "abc", "1.5"} {
		_, ok := ParseID(s)
		assert.False(t, ok, s)
	}
}

func TestNaturalTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := map[time.Duration]string{
		0:                    "now",
		30 * time.Second:     "30 seconds ago",
		time.Minute:          "1 minute ago",
		5 * time.Minute:      "5 minutes ago",
		3 * time.Hour:        "3 hours ago",
		48 * time.Hour:       "2 days ago",
		24 * 40 * time.Hour:  "1 month ago",
		24 * 800 * time.Hour: "2 years ago",
		-10 * time.Minute:    "now",
	}
	for ago, want := range tests {
		assert.Equal(t, want, NaturalTime(now.Add(-ago), now), ago.String())
	}
}
