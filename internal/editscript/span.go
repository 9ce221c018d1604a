package editscript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rohankatakam/ptmine/internal/errors"
)

// SpanKind distinguishes the two position encodings oracles emit
type SpanKind int

const (
	// SpanOffset is a flat character range [Start, End)
	SpanOffset SpanKind = iota + 1
	// SpanPosition is a 1-based (line, column) range
	SpanPosition
)

// Span is a source range parsed once from oracle output
type Span struct {
	Kind SpanKind

	// SpanOffset
	Start int
	End   int

	// SpanPosition
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// OffsetSpan builds a flat-offset span
func OffsetSpan(start, end int) Span {
	return Span{Kind: SpanOffset, Start: start, End: end}
}

// PositionSpan builds a line/column span
func PositionSpan(startLine, startCol, endLine, endCol int) Span {
	return Span{Kind: SpanPosition, StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol}
}

func (s Span) String() string {
	if s.Kind == SpanPosition {
		return fmt.Sprintf("[%d,%d,%d,%d]", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
	}
	return fmt.Sprintf("[%d,%d]", s.Start, s.End)
}

var bracketGroup = regexp.MustCompile(`\[(\d+(?:,\s*\d+)+)\]`)

// ParseSpan extracts the trailing position group from a node label.
// Two numbers are a flat offset range; four or more are read as
// startLine,startCol,...,endLine,endCol.
func ParseSpan(label string) (Span, error) {
	groups := bracketGroup.FindAllStringSubmatch(label, -1)
	if len(groups) == 0 {
		return Span{}, errors.MalformedSpanf("no position in %q", label)
	}

	parts := strings.Split(groups[len(groups)-1][1], ",")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Span{}, errors.MalformedSpanf("bad position %q in %q", p, label)
		}
		nums = append(nums, n)
	}

	switch {
	case len(nums) == 2:
		return OffsetSpan(nums[0], nums[1]), nil
	case len(nums) >= 4:
		n := len(nums)
		return PositionSpan(nums[0], nums[1], nums[n-2], nums[n-1]), nil
	default:
		return Span{}, errors.MalformedSpanf("unsupported position arity %d in %q", len(nums), label)
	}
}

// Document indexes content by rune so spans map to the character offsets
// the oracles report.
type Document struct {
	runes      []rune
	lineStarts []int
}

// NewDocument indexes content once for repeated span lookups
func NewDocument(content string) *Document {
	runes := []rune(content)
	starts := []int{0}
	for i, r := range runes {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{runes: runes, lineStarts: starts}
}

// Len returns the content length in characters
func (d *Document) Len() int {
	return len(d.runes)
}

// Offsets converts a span to a clamped [start, end) character range
func (d *Document) Offsets(s Span) (int, int) {
	var start, end int
	if s.Kind == SpanPosition {
		start = d.positionOffset(s.StartLine, s.StartCol)
		end = d.positionOffset(s.EndLine, s.EndCol)
	} else {
		start = clamp(s.Start, 0, len(d.runes))
		end = clamp(s.End, 0, len(d.runes))
	}
	if end < start {
		end = start
	}
	return start, end
}

// Slice returns the text covered by the span
func (d *Document) Slice(s Span) string {
	start, end := d.Offsets(s)
	return string(d.runes[start:end])
}

// SliceRange returns the text in an already-resolved offset range, clamped
func (d *Document) SliceRange(start, end int) string {
	start = clamp(start, 0, len(d.runes))
	end = clamp(end, start, len(d.runes))
	return string(d.runes[start:end])
}

// positionOffset sums the lengths of the preceding lines (+1 per newline)
// and adds col-1. Line and column are clamped to the content.
func (d *Document) positionOffset(line, col int) int {
	line = clamp(line, 1, len(d.lineStarts))
	lineStart := d.lineStarts[line-1]
	lineLen := d.lineLength(line - 1)
	col = clamp(col, 1, lineLen+1)
	return clamp(lineStart+col-1, 0, len(d.runes))
}

func (d *Document) lineLength(idx int) int {
	if idx+1 < len(d.lineStarts) {
		return d.lineStarts[idx+1] - d.lineStarts[idx] - 1
	}
	return len(d.runes) - d.lineStarts[idx]
}

// SpanToOffset maps a span to a clamped flat character range in content
func SpanToOffset(content string, s Span) (int, int) {
	return NewDocument(content).Offsets(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
