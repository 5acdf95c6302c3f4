package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptionRenderer(t *testing.T) {
	r := NewDescriptionRenderer()

	html, err := r.Render("")
	require.NoError(t, err)
	assert.Empty(t, html)

	html, err = r.Render("blog: https://example.com/posts")
	require.NoError(t, err)
	assert.Contains(t, html, `href="https://example.com/posts"`)

	html, err = r.Render("hi <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script")
	assert.Contains(t, html, "hi")
}
