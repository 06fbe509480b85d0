// Package textutil normalizes extracted document text before chunking.
package textutil

import (
	"regexp"
	"strings"
)

var (
	// Characters worth keeping: Latin and Cyrillic letters, digits,
	// sentence punctuation and plain whitespace. Everything else that
	// OCR or layout parsing produces (control bytes, box-drawing
	// glyphs, stray symbols) is noise for embedding purposes.
	nonLinguistic = regexp.MustCompile(`[^a-zA-Zа-яА-ЯіїєґІЇЄҐ0-9.,!?;:() \n\r\t-]`)
	multiSpace    = regexp.MustCompile(`\s{2,}`)
)

// Clean strips non-linguistic characters and collapses whitespace.
// Clean is deterministic and idempotent: cleaning already-clean text
// returns it unchanged.
func Clean(text string) string {
	cleaned := nonLinguistic.ReplaceAllString(text, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, "\n", " ")
	return strings.TrimSpace(cleaned)
}
