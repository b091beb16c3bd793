package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// renderMarkdown expands {{.Field}} placeholders from cfg in content/name and
// converts the result to HTML. Raw HTML in the source is not passed through.
func renderMarkdown(name string, cfg Config) (template.HTML, error) {
	src, err := fs.ReadFile(contentFS, "content/"+name)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrContent, name, err)
	}

	tpl, err := texttemplate.New(name).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %w", ErrContent, name, err)
	}
	var expanded bytes.Buffer
	if err := tpl.Execute(&expanded, cfg); err != nil {
		return "", fmt.Errorf("%w: expand %s: %w", ErrContent, name, err)
	}

	var out bytes.Buffer
	if err := markdown.Convert(expanded.Bytes(), &out); err != nil {
		return "", fmt.Errorf("%w: convert %s: %w", ErrContent, name, err)
	}
	return template.HTML(out.String()), nil //nolint:gosec // goldmark escapes raw HTML by default
}
