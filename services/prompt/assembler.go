package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/socdesk/playbook-rag/services/retrieval"
)

// DocumentSeparator delimits source chunks inside the prompt so the model
// can tell where one retrieved document ends and the next begins.
const DocumentSeparator = "\n\n---DOCUMENT SEPARATOR---\n\n"

// Assembled is the bounded prompt context built from surviving matches.
// Contexts and Scores echo exactly the truncated selection that went into
// Text; the response must never diverge from what the model saw.
type Assembled struct {
	Text     string
	Contexts []string
	Scores   []float64
}

// Empty reports whether no usable context survived assembly
func (a Assembled) Empty() bool {
	return len(a.Contexts) == 0
}

// Assemble selects, truncates, and concatenates match texts into a
// bounded context. Matches without retrievable text are dropped first, so
// a merely malformed match never masquerades as "no relevant context".
// The input is expected in index order (highest score first); at most
// maxDocs texts are kept and each is truncated to maxCharsPerDoc.
func Assemble(matches []retrieval.Match, maxDocs, maxCharsPerDoc int) Assembled {
	contexts := make([]string, 0, maxDocs)
	scores := make([]float64, 0, maxDocs)

	for _, m := range matches {
		if len(contexts) >= maxDocs {
			break
		}
		content, ok := m.Content()
		if !ok {
			continue
		}
		contexts = append(contexts, Truncate(content, maxCharsPerDoc))
		scores = append(scores, m.Score)
	}

	return Assembled{
		Text:     strings.Join(contexts, DocumentSeparator),
		Contexts: contexts,
		Scores:   scores,
	}
}

// Truncate caps s to at most maxChars bytes without splitting a rune, so
// the result is always valid UTF-8. Idempotent: truncating an
// already-truncated string to the same limit is a no-op.
func Truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
