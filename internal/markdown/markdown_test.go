package markdown

import (
	"context"
	"errors"
	"testing"

	"devcentral/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	renderFn func(string) (string, error)
}

func (s stubRenderer) Render(source string) (string, error) { return s.renderFn(source) }

func TestRenderer_GFMAndRawHTML(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("**bold** ~~gone~~ <span class=\"x\">raw</span>")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<del>gone</del>")
	assert.Contains(t, out, `<span class="x">raw</span>`)
}

func TestRenderer_EmptyInput(t *testing.T) {
	out, err := NewRenderer().Render("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderOrNil_ErrorDegrades(t *testing.T) {
	before := testutil.ToFloat64(observability.MarkdownRenderFailures)

	out := RenderOrNil(context.Background(), stubRenderer{renderFn: func(string) (string, error) {
		return "", errors.New("boom")
	}}, "x")

	assert.Nil(t, out)
	assert.Equal(t, before+1, testutil.ToFloat64(observability.MarkdownRenderFailures))
}

func TestRenderOrNil_PanicRecovered(t *testing.T) {
	out := RenderOrNil(context.Background(), stubRenderer{renderFn: func(string) (string, error) {
		panic("bad input")
	}}, "x")
	assert.Nil(t, out)
}

func TestRenderOrNil_Success(t *testing.T) {
	out := RenderOrNil(context.Background(), NewRenderer(), "# Title")
	require.NotNil(t, out)
	assert.Contains(t, *out, "<h1")
}

func TestCodeBlock(t *testing.T) {
	assert.Equal(t, "```python\nprint(1)\n```\n", CodeBlock("python", "print(1)\n"))

	block := CodeBlock("html", "a ``` b")
	assert.Contains(t, block, "````html\n")

	out, err := NewRenderer().Render(CodeBlock("sql", "SELECT '<b>';"))
	require.NoError(t, err)
	assert.Contains(t, out, `<code class="language-sql">`)
	assert.Contains(t, out, "&lt;b&gt;")
}
