package users

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DescriptionRenderer turns a profile description into safe HTML with bare
// URLs linked.
type DescriptionRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewDescriptionRenderer creates a renderer.
func NewDescriptionRenderer() *DescriptionRenderer {
	return &DescriptionRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts src to sanitized HTML.
func (r *DescriptionRenderer) Render(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}
