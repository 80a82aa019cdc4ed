package textnorm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/zotatlas/zotatlas/internal/entry"
)

func TestSplit(t *testing.T) {
	it := entry.Item{
		Title:    "  A Study of Reading  ",
		Abstract: "We study reading.",
		Notes:    "<p>First thought.</p><p>Second thought.</p>",
	}
	s := Split(it)
	if s.Title != "A Study of Reading" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Abstract != "We study reading." {
		t.Errorf("Abstract = %q", s.Abstract)
	}
	if s.Notes != "First thought.\n\nSecond thought." {
		t.Errorf("Notes = %q", s.Notes)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"paragraphs", "<p>one</p><p>two</p>", "one\n\ntwo"},
		{"inline markup flattened", "<p>a <b>bold</b> claim</p>", "a bold claim"},
		{"list items", "<ul><li>first</li><li>second</li></ul>", "first\n\nsecond"},
		{"plain text passthrough", "no markup here", "no markup here"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(tt.html); got != tt.want {
				t.Errorf("ExtractText(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestConcatAndFallback(t *testing.T) {
	full := Sections{Title: "T", Abstract: "A", Notes: "N"}
	if got := full.Concat(); got != "Title: T\n\nAbstract: A\n\nNotes: N" {
		t.Errorf("Concat = %q", got)
	}

	titleOnly := Sections{Title: "T"}
	if got := titleOnly.Concat(); got != "Title: T" {
		t.Errorf("Concat = %q", got)
	}

	empty := Sections{}
	if !empty.Empty() {
		t.Error("Empty() = false for empty sections")
	}
	if got := empty.Concat(); got != "Title: "+UntitledPlaceholder {
		t.Errorf("empty Concat = %q", got)
	}
	if got := empty.Fallback(); got != "Title: "+UntitledPlaceholder {
		t.Errorf("Fallback = %q", got)
	}
}

func TestLabelText(t *testing.T) {
	s := Sections{Title: "T", Notes: "N"}
	if got := s.LabelText(); got != "T N" {
		t.Errorf("LabelText = %q", got)
	}
}

func TestChunkRespectsParagraphs(t *testing.T) {
	paraA := strings.Repeat("a", 400)
	paraB := strings.Repeat("b", 400)
	paraC := strings.Repeat("c", 400)
	text := paraA + "\n\n" + paraB + "\n\n" + paraC

	chunks := Chunk(text, 900)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0] != paraA+"\n\n"+paraB {
		t.Errorf("chunks[0] groups %d chars", len(chunks[0]))
	}
	if chunks[1] != paraC {
		t.Errorf("chunks[1] = %d chars of %q...", len(chunks[1]), chunks[1][:1])
	}
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	// Three 400-rune Hangul paragraphs are 1200 bytes each; the budget
	// is runes, so two paragraphs still share a chunk.
	paraA := strings.Repeat("가", 400)
	paraB := strings.Repeat("나", 400)
	paraC := strings.Repeat("다", 400)
	text := paraA + "\n\n" + paraB + "\n\n" + paraC

	chunks := Chunk(text, 900)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0] != paraA+"\n\n"+paraB {
		t.Errorf("chunks[0] groups %d runes", utf8.RuneCountInString(chunks[0]))
	}
	if chunks[1] != paraC {
		t.Errorf("chunks[1] holds %d runes", utf8.RuneCountInString(chunks[1]))
	}
}

func TestChunkOversizedParagraph(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := Chunk(text, 1000)
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[2]) != 500 {
		t.Errorf("chunk sizes = %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestChunkMultibyteSafe(t *testing.T) {
	text := strings.Repeat("한", 40)
	for _, chunk := range Chunk(text, 25) {
		for _, r := range chunk {
			if r != '한' {
				t.Fatalf("chunk broke a rune: %q", chunk)
			}
		}
	}
}

func TestChunkEmpty(t *testing.T) {
	if got := Chunk("", 100); got != nil {
		t.Errorf("Chunk(\"\") = %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("한국어 텍스트", 3); got != "한국어" {
		t.Errorf("Truncate = %q", got)
	}
}
