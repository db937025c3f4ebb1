package scoring

import (
	"fmt"
	"sort"
)

// Level is a Low/Medium/High band for likelihood or impact.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "Low"
	case LevelMedium:
		return "Medium"
	case LevelHigh:
		return "High"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Low":
		*l = LevelLow
	case "Medium":
		*l = LevelMedium
	case "High":
		*l = LevelHigh
	default:
		return fmt.Errorf("unknown level %q", string(b))
	}
	return nil
}

// LevelFor bands a 0-10 average: below 3 is Low, below 6 Medium, otherwise High.
// Lower bounds are inclusive.
func LevelFor(avg float64) Level {
	switch {
	case avg < 3:
		return LevelLow
	case avg < 6:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// LikelihoodIndex is the matrix column for a likelihood average.
func LikelihoodIndex(avg float64) int {
	return int(LevelFor(avg))
}

// ImpactIndex is the matrix row for an impact average. Rows run High to Low,
// so the level is inverted: a Low impact lands on row 2.
func ImpactIndex(avg float64) int {
	return int(LevelHigh) - int(LevelFor(avg))
}

// Category is a final risk rating label.
type Category string

const (
	CategoryNote     Category = "Note"
	CategoryLow      Category = "Low"
	CategoryMedium   Category = "Medium"
	CategoryHigh     Category = "High"
	CategoryCritical Category = "Critical"
)

// StandardMatrixName names the built-in OWASP matrix.
const StandardMatrixName = "standard"

// RiskMatrix maps (impact row, likelihood column) to a category.
// Rows are ordered High, Medium, Low impact; columns Low, Medium, High likelihood.
type RiskMatrix struct {
	Name  string         `json:"name" yaml:"name"`
	Cells [3][3]Category `json:"cells" yaml:"cells"`
}

// StandardMatrix returns the OWASP overall risk severity table.
func StandardMatrix() RiskMatrix {
	return RiskMatrix{
		Name: StandardMatrixName,
		Cells: [3][3]Category{
			{CategoryMedium, CategoryHigh, CategoryCritical},
			{CategoryLow, CategoryMedium, CategoryHigh},
			{CategoryNote, CategoryLow, CategoryMedium},
		},
	}
}

// NewRiskMatrix builds a matrix from 3x3 label rows, High impact first.
func NewRiskMatrix(name string, rows [][]string) (RiskMatrix, error) {
	m := RiskMatrix{Name: name}
	if len(rows) != 3 {
		return m, fmt.Errorf("matrix %q: expected 3 rows, got %d", name, len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			return m, fmt.Errorf("matrix %q: row %d: expected 3 cells, got %d", name, i, len(row))
		}
		for j, cell := range row {
			m.Cells[i][j] = Category(cell)
		}
	}
	return m, m.Validate()
}

// Validate checks that the matrix is named and fully populated.
func (m RiskMatrix) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("matrix name required")
	}
	for i := range m.Cells {
		for j := range m.Cells[i] {
			if m.Cells[i][j] == "" {
				return fmt.Errorf("matrix %q: empty cell [%d][%d]", m.Name, i, j)
			}
		}
	}
	return nil
}

// Lookup returns the category at [impactRow][likelihoodCol].
func (m RiskMatrix) Lookup(impactRow, likelihoodCol int) Category {
	return m.Cells[impactRow][likelihoodCol]
}

// MatrixSet holds risk matrices keyed by name. The standard matrix is always present.
type MatrixSet struct {
	matrices map[string]RiskMatrix
}

// NewMatrixSet registers the standard matrix plus any extras. An extra named
// "standard" replaces the built-in one.
func NewMatrixSet(extra ...RiskMatrix) (*MatrixSet, error) {
	std := StandardMatrix()
	s := &MatrixSet{matrices: map[string]RiskMatrix{std.Name: std}}
	for _, m := range extra {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		s.matrices[m.Name] = m
	}
	return s, nil
}

// Get returns the named matrix.
func (s *MatrixSet) Get(name string) (RiskMatrix, error) {
	m, ok := s.matrices[name]
	if !ok {
		return RiskMatrix{}, fmt.Errorf("%w: %q", ErrUnknownMatrix, name)
	}
	return m, nil
}

// Names returns the registered matrix names, sorted.
func (s *MatrixSet) Names() []string {
	names := make([]string, 0, len(s.matrices))
	for n := range s.matrices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every registered matrix, sorted by name.
func (s *MatrixSet) All() []RiskMatrix {
	out := make([]RiskMatrix, 0, len(s.matrices))
	for _, n := range s.Names() {
		out = append(out, s.matrices[n])
	}
	return out
}
