package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"boards/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.AllowImages()
	policy.RequireNoFollowOnLinks(true)
}

// RenderMarkdown converts a message to sanitized HTML.
func RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	sanitized := policy.SanitizeBytes(buf.Bytes())
	return EnhanceHTMLContent(string(sanitized))
}

func postCacheKey(p *models.Post) string {
	edited := int64(0)
	if p.UpdatedAt != nil {
		edited = p.UpdatedAt.UnixNano()
	}
	return fmt.Sprintf("post:%d:%d", p.ID, edited)
}

// RenderPost renders the post message, reusing earlier output until the post is edited.
func RenderPost(p *models.Post) template.HTML {
	if p.ID == 0 {
		return RenderMarkdown(p.Message)
	}
	cache := RenderCache()
	key := postCacheKey(p)
	if html, ok := cache.Get(key); ok {
		return template.HTML(html)
	}
	out := RenderMarkdown(p.Message)
	cache.Set(key, string(out))
	return out
}
