package scoring

import (
	"fmt"
	"strings"
)

// Severity is the presentation style of a final category.
type Severity struct {
	Color string `json:"color"`
	Class string `json:"class"`
}

var severities = map[Category]Severity{
	CategoryNote:     {Color: "lightgreen", Class: "note"},
	CategoryLow:      {Color: "yellow", Class: "low"},
	CategoryMedium:   {Color: "orange", Class: "medium"},
	CategoryHigh:     {Color: "red", Class: "high"},
	CategoryCritical: {Color: "pink", Class: "critical"},
}

// SeverityFor returns the style for a category, or ErrUndefinedRating for a
// label outside Note..Critical. Callers keep their default styling in that case.
func SeverityFor(c Category) (Severity, error) {
	s, ok := severities[c]
	if !ok {
		return Severity{}, fmt.Errorf("%w: %q", ErrUndefinedRating, string(c))
	}
	return s, nil
}

// LevelClass is the badge class for a likelihood or impact level.
func LevelClass(l Level) string {
	switch l {
	case LevelLow:
		return "btn-success"
	case LevelMedium:
		return "btn-warning"
	default:
		return "btn-danger"
	}
}

// HistoryClass is the table row class for a saved final score.
func HistoryClass(finalScore string) string {
	switch {
	case strings.Contains(finalScore, string(CategoryCritical)):
		return "table-danger"
	case strings.Contains(finalScore, string(CategoryHigh)):
		return "table-warning"
	case strings.Contains(finalScore, string(CategoryMedium)):
		return "table-info"
	case strings.Contains(finalScore, string(CategoryLow)):
		return "table-success"
	default:
		return ""
	}
}
