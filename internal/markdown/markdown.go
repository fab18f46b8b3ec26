// Package markdown renders user-authored text to HTML.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"devcentral/internal/middleware"
	"devcentral/internal/observability"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown source to HTML.
type Renderer interface {
	Render(source string) (string, error)
}

type goldmarkRenderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a GitHub-flavoured renderer that passes raw HTML through.
func NewRenderer() Renderer {
	return &goldmarkRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithUnsafe(),
			),
		),
	}
}

func (r *goldmarkRenderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderOrNil renders source and returns nil instead of failing. Errors and
// panics from the renderer are logged and counted.
func RenderOrNil(ctx context.Context, r Renderer, source string) (out *string) {
	defer func() {
		if rec := recover(); rec != nil {
			fail(ctx, fmt.Errorf("panic: %v", rec))
			out = nil
		}
	}()

	rendered, err := r.Render(source)
	if err != nil {
		fail(ctx, err)
		return nil
	}
	return &rendered
}

func fail(ctx context.Context, err error) {
	observability.MarkdownRenderFailures.Inc()
	middleware.Logger.WarnContext(ctx, "markdown render failed", slog.String("error", err.Error()))
}

// CodeBlock wraps code in a fenced block tagged with lang. The fence is made
// longer than any backtick run inside code.
func CodeBlock(lang, code string) string {
	fence := "```"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	return fence + lang + "\n" + strings.TrimRight(code, "\n") + "\n" + fence + "\n"
}
