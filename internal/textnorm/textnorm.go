// Package textnorm builds canonical text representations of library
// entries for embedding and labeling.
package textnorm

import (
	"strings"
	"unicode/utf8"

	"github.com/zotatlas/zotatlas/internal/entry"
)

// UntitledPlaceholder is embedded when an entry has no usable text at
// all, so every entry still yields a vector.
const UntitledPlaceholder = "Untitled"

// ChunkBudget is the per-chunk character budget for section embedding,
// roughly 512 tokens for the multilingual MiniLM family.
const ChunkBudget = 1500

// Sections holds the independently extracted plain text of each entry
// section. Empty sections stay empty strings, never placeholders.
type Sections struct {
	Title    string
	Abstract string
	Notes    string
}

// Split extracts the three embeddable sections from a raw item. Notes
// HTML is flattened to plain text with paragraph boundaries preserved.
func Split(it entry.Item) Sections {
	return Sections{
		Title:    strings.TrimSpace(it.Title),
		Abstract: strings.TrimSpace(it.Abstract),
		Notes:    ExtractText(it.Notes),
	}
}

// Empty reports whether no section carries any text.
func (s Sections) Empty() bool {
	return s.Title == "" && s.Abstract == "" && s.Notes == ""
}

// Fallback returns the text to embed when no section qualifies: the
// title alone, or the fixed placeholder if the title is empty too.
func (s Sections) Fallback() string {
	if s.Title != "" {
		return "Title: " + s.Title
	}
	return "Title: " + UntitledPlaceholder
}

// Concat renders one labeled text block for whole-document embedding.
// Missing sections are omitted; an entry with nothing at all falls back
// per Fallback.
func (s Sections) Concat() string {
	var parts []string
	if s.Title != "" {
		parts = append(parts, "Title: "+s.Title)
	}
	if s.Abstract != "" {
		parts = append(parts, "Abstract: "+s.Abstract)
	}
	if s.Notes != "" {
		parts = append(parts, "Notes: "+s.Notes)
	}
	if len(parts) == 0 {
		return s.Fallback()
	}
	return strings.Join(parts, "\n\n")
}

// LabelText renders the unlabeled concatenation used for cluster label
// extraction (title, abstract and notes text joined by spaces).
func (s Sections) LabelText() string {
	var parts []string
	for _, p := range []string{s.Title, s.Abstract, s.Notes} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Chunk splits text into pieces of at most budget runes without
// breaking paragraphs. A single paragraph longer than the budget is
// hard-sliced. Empty text yields no chunks.
func Chunk(text string, budget int) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}

	var chunks []string
	var current string
	currentLen := 0

	for _, para := range strings.Split(text, "\n\n") {
		paraLen := utf8.RuneCountInString(para)
		switch {
		case currentLen+paraLen <= budget:
			if current != "" {
				current += "\n\n"
			}
			current += para
			currentLen += paraLen
		case paraLen > budget:
			if current != "" {
				chunks = append(chunks, current)
				current = ""
				currentLen = 0
			}
			runes := []rune(para)
			for i := 0; i < len(runes); i += budget {
				end := i + budget
				if end > len(runes) {
					end = len(runes)
				}
				chunks = append(chunks, string(runes[i:end]))
			}
		default:
			if current != "" {
				chunks = append(chunks, current)
			}
			current = para
			currentLen = paraLen
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	if len(chunks) == 0 {
		runes := []rune(text)
		if len(runes) > budget {
			runes = runes[:budget]
		}
		return []string{string(runes)}
	}
	return chunks
}

// Truncate cuts s to at most max runes. Persisted abstracts and notes
// carry fixed character budgets to keep the document small.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
