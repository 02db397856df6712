package service

import (
	"regexp"
	"strings"

	"github.com/AnTengye/lexiguide/model"
	"github.com/google/uuid"
)

// paragraphBreak matches a run of one or more blank (whitespace-only) lines
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Segment splits contract text into clauses at blank lines.
// Fragments are trimmed and empty ones dropped; OriginalIndex counts retained
// fragments only. An empty result means no clauses were found.
func Segment(text string) []model.Clause {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var clauses []model.Clause
	for _, fragment := range paragraphBreak.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		clauses = append(clauses, model.Clause{
			ID:            uuid.New().String(),
			Text:          fragment,
			OriginalIndex: len(clauses),
		})
	}
	return clauses
}
