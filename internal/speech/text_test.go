package speech

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{
			name:     "Heading and paragraph",
			markdown: "# Title\n\nThis is a paragraph. It has two sentences.",
			want:     "Title\nThis is a paragraph. It has two sentences.",
		},
		{
			name:     "Code blocks are skipped",
			markdown: "Before.\n\n```go\nfmt.Println(\"hi\")\n```\n\nAfter.",
			want:     "Before.\nAfter.",
		},
		{
			name:     "Links keep their text",
			markdown: "Visit [the docs](https://example.com) today.",
			want:     "Visit the docs today.",
		},
		{
			name:     "Emphasis is flattened",
			markdown: "This is **bold** and *italic*.",
			want:     "This is bold and italic.",
		},
		{
			name:     "List items get their own lines",
			markdown: "- first\n- second",
			want:     "first\nsecond",
		},
		{
			name:     "Inline code keeps content",
			markdown: "Run `make test` now.",
			want:     "Run make test now.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.markdown); got != tt.want {
				t.Errorf("PlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "speech.txt")
	if err := os.WriteFile(plain, []byte("  Hello there.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	md := filepath.Join(dir, "speech.md")
	if err := os.WriteFile(md, []byte("# Hi\n\nSome *text*."), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte(" \n\t"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got, err := LoadText(plain); err != nil || got != "Hello there." {
		t.Errorf("LoadText(txt) = %q, %v", got, err)
	}
	if got, err := LoadText(md); err != nil || got != "Hi\nSome text." {
		t.Errorf("LoadText(md) = %q, %v", got, err)
	}
	if _, err := LoadText(empty); !errors.Is(err, ErrEmptyText) {
		t.Errorf("LoadText(empty) error = %v, want ErrEmptyText", err)
	}
	if _, err := LoadText(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("LoadText(missing) should fail")
	}
}
