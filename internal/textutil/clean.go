package textutil

import (
	"regexp"
	"strings"
)

const minLineLength = 3

var (
	separatorLine   = regexp.MustCompile(`.*[|/\\_~^*]{3,}.*`)
	nonStandardChar = regexp.MustCompile(`[^\p{L}\p{N}\p{P}\p{Z}]`)
	multiSpace      = regexp.MustCompile(`\s{2,}`)
)

// Cleaner normalizes raw extracted page text before it is handed to the
// enrichment model.
type Cleaner struct{}

// NewCleaner returns a Cleaner with the default rules.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean strips scanner noise from extracted text. Lines consisting mostly of
// separator glyphs are dropped, characters outside letters, digits,
// punctuation, and spaces are removed, runs of whitespace collapse to a
// single space, and lines shorter than three characters are discarded. The
// surviving lines are joined with single spaces.
func (c *Cleaner) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		if separatorLine.MatchString(line) {
			continue
		}
		line = nonStandardChar.ReplaceAllString(line, "")
		line = multiSpace.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if len(line) < minLineLength {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

// CleanPages cleans every page and joins the non-empty results with single
// spaces, producing the document text used for enrichment and indexing.
func (c *Cleaner) CleanPages(pages []string) string {
	var parts []string
	for _, page := range pages {
		if cleaned := c.Clean(page); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " ")
}
