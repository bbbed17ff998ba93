package ingest

import (
	"regexp"
	"strings"
)

// minChunkChars filters out fragments too small to be useful context.
const minChunkChars = 150

// Chunk is a section-aligned slice of a playbook document.
type Chunk struct {
	Section string
	Content string
}

// Playbook documents follow a numbered-section layout. Splitting on
// these headings keeps each chunk semantically whole.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.\s*Incident Overview$`),
	regexp.MustCompile(`^\d+\.\s*Phase\s+\d+\s*:\s*.+$`),
	regexp.MustCompile(`^\d+\.\s*Escalation Criteria$`),
	regexp.MustCompile(`^\d+\.\s*Objectives$`),
	regexp.MustCompile(`^\d+\.\s*References$`),
}

var pageMarkerPattern = regexp.MustCompile(`^---\s*Page\s*\d+\s*---$`)

func isHeading(line string) bool {
	for _, pattern := range headingPatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// SplitIntoChunks breaks document text into section-aligned chunks.
// Page markers are dropped, and chunks below the minimum size are
// discarded.
func SplitIntoChunks(text string) []Chunk {
	var chunks []Chunk

	currentSection := "Preamble"
	var currentLines []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(currentLines, "\n"))
		if len(content) >= minChunkChars {
			chunks = append(chunks, Chunk{
				Section: currentSection,
				Content: content,
			})
		}
		currentLines = nil
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if pageMarkerPattern.MatchString(line) {
			continue
		}
		if isHeading(line) {
			flush()
			currentSection = line
			continue
		}
		currentLines = append(currentLines, line)
	}
	flush()

	return chunks
}
