package speech

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".mkd":      true,
}

// IsMarkdownFile reports whether path has a markdown extension.
func IsMarkdownFile(path string) bool {
	return markdownExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadText reads the text to speak from path ("-" reads stdin). Markdown
// files are reduced to their speakable text. The result is trimmed; an empty
// result is ErrEmptyText.
func LoadText(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		path, err = homedir.Expand(path)
		if err != nil {
			return "", fmt.Errorf("unable to expand path: %w", err)
		}
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("unable to read text: %w", err)
	}

	content := string(b)
	if IsMarkdownFile(path) {
		content = PlainText(content)
	}
	return Normalize(content)
}

// Normalize trims text and rejects it if nothing is left.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}
	return s, nil
}

// PlainText extracts speakable text from markdown. Code and HTML blocks are
// skipped, links keep their text, and block elements end up on their own
// lines so the chunker sees a break between them.
func PlainText(markdown string) string {
	reader := text.NewReader([]byte(markdown))
	doc := goldmark.New().Parser().Parse(reader)

	var buf strings.Builder
	writeNode(doc, reader.Source(), &buf)

	lines := strings.Split(buf.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func writeNode(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Image:
		// alt text only
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			writeNode(c, source, buf)
		}
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		writeNode(c, source, buf)
	}

	switch node.Kind() {
	case ast.KindHeading, ast.KindParagraph, ast.KindListItem, ast.KindTextBlock, ast.KindThematicBreak:
		buf.WriteByte('\n')
	}
}
