package editscript

import (
	"encoding/json"

	"github.com/rohankatakam/ptmine/internal/errors"
)

// Location is a code range on the pre-image side of a refactoring
type Location struct {
	FilePath        string `json:"filePath,omitempty"`
	StartLine       int    `json:"startLine"`
	EndLine         int    `json:"endLine"`
	StartColumn     int    `json:"startColumn"`
	EndColumn       int    `json:"endColumn"`
	CodeElementType string `json:"codeElementType,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Span returns the location as a line/column span
func (l Location) Span() Span {
	return PositionSpan(l.StartLine, l.StartColumn, l.EndLine, l.EndColumn)
}

// Refactoring is one refactoring detected in a commit
type Refactoring struct {
	Type              string     `json:"type"`
	Description       string     `json:"description,omitempty"`
	LeftSideLocations []Location `json:"leftSideLocations"`
}

type refactoringReport struct {
	Commits []struct {
		Repository   string        `json:"repository,omitempty"`
		SHA1         string        `json:"sha1,omitempty"`
		Refactorings []Refactoring `json:"refactorings"`
	} `json:"commits"`
}

// ParseRefactorings decodes the refactoring oracle's JSON report.
// Refactorings of every reported commit are returned in order.
func ParseRefactorings(data []byte) ([]Refactoring, error) {
	var report refactoringReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.OracleErrorf(err, "decode refactoring report")
	}

	var out []Refactoring
	for _, c := range report.Commits {
		out = append(out, c.Refactorings...)
	}
	return out, nil
}

// LeftSideSpans flattens every left-side location of the given refactorings
func LeftSideSpans(refactorings []Refactoring) []Span {
	var spans []Span
	for _, r := range refactorings {
		for _, loc := range r.LeftSideLocations {
			spans = append(spans, loc.Span())
		}
	}
	return spans
}
