package scoring

import (
	"fmt"
	"log/slog"
	"math"
)

// GroupScore is one factor group's contribution: the raw sum and its
// normalized 0-10 display value.
type GroupScore struct {
	Name    string  `json:"name"`
	Sum     float64 `json:"sum"`
	Divisor float64 `json:"divisor"`
	Display float64 `json:"display"`
}

// AxisScore is the averaged likelihood or impact with its band and matrix index.
type AxisScore struct {
	Average float64 `json:"average"`
	Level   Level   `json:"level"`
	Index   int     `json:"index"`
	Class   string  `json:"class"`
}

// ScoreResult is the complete output of one risk computation.
type ScoreResult struct {
	Likelihood AxisScore `json:"likelihood"`
	Impact     AxisScore `json:"impact"`

	// Threat agent, vulnerability, technical impact, business impact.
	Groups [4]GroupScore `json:"groups"`

	Category Category  `json:"final_score"`
	Severity *Severity `json:"severity,omitempty"`
	Matrix   string    `json:"matrix"`
	Weighted bool      `json:"weighted"`
}

// Compute rates a factor set against a risk matrix.
//
//	likelihood = (TA + VF) / (8 + (m-1 if motive weighted))
//	impact     = (TI + BI) / (8 + (m-1 if financial weighted))
//
// Averages and display values are rounded to three decimals before banding.
// An unknown category leaves Severity nil.
func Compute(f FactorSet, w WeightFlags, m RiskMatrix) (ScoreResult, error) {
	if err := f.Validate(); err != nil {
		return ScoreResult{}, err
	}
	if err := w.Validate(); err != nil {
		return ScoreResult{}, err
	}
	if err := m.Validate(); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	motive := float64(f.Motive)
	threatDiv := 4.0
	if w.WeightMotive {
		mm := w.motiveMultiplier()
		motive *= mm
		threatDiv += mm - 1
	}
	financial := float64(f.FinancialDamage)
	businessDiv := 4.0
	if w.WeightFinancial {
		fm := w.financialMultiplier()
		financial *= fm
		businessDiv += fm - 1
	}

	ta := float64(f.SkillLevel+f.Opportunity+f.PopulationSize) + motive
	vf := float64(f.EaseOfDiscovery + f.EaseOfExploit + f.Awareness + f.IntrusionDetection)
	ti := float64(f.LossConfidentiality + f.LossIntegrity + f.LossAvailability + f.LossAccountability)
	bi := float64(f.ReputationDamage+f.ComplianceViolation+f.PrivacyViolation) + financial

	likelihoodDiv := threatDiv + 4
	impactDiv := businessDiv + 4
	likelihood := round3((ta + vf) / likelihoodDiv)
	impact := round3((ti + bi) / impactDiv)

	res := ScoreResult{
		Likelihood: axis(likelihood, LikelihoodIndex(likelihood)),
		Impact:     axis(impact, ImpactIndex(impact)),
		Groups: [4]GroupScore{
			group("threat_agent", ta, threatDiv),
			group("vulnerability", vf, 4),
			group("technical_impact", ti, 4),
			group("business_impact", bi, businessDiv),
		},
		Matrix:   m.Name,
		Weighted: w.Weighted(),
	}
	res.Category = m.Lookup(res.Impact.Index, res.Likelihood.Index)
	if sev, err := SeverityFor(res.Category); err == nil {
		res.Severity = &sev
	}
	return res, nil
}

func axis(avg float64, index int) AxisScore {
	lvl := LevelFor(avg)
	return AxisScore{Average: avg, Level: lvl, Index: index, Class: LevelClass(lvl)}
}

func group(name string, sum, div float64) GroupScore {
	return GroupScore{Name: name, Sum: sum, Divisor: div, Display: round3(sum / div)}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Scorer resolves matrices by name and applies the configured default multiplier.
type Scorer struct {
	matrices      *MatrixSet
	defaultMatrix string
	multiplier    float64
	logger        *slog.Logger
}

// NewScorer creates a Scorer. defaultMatrix must be registered in matrices.
func NewScorer(matrices *MatrixSet, defaultMatrix string, multiplier float64, logger *slog.Logger) (*Scorer, error) {
	if defaultMatrix == "" {
		defaultMatrix = StandardMatrixName
	}
	if _, err := matrices.Get(defaultMatrix); err != nil {
		return nil, err
	}
	if multiplier == 0 {
		multiplier = DefaultWeightMultiplier
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 1 {
		return nil, fmt.Errorf("weight multiplier must be >= 1, got %v", multiplier)
	}
	return &Scorer{
		matrices:      matrices,
		defaultMatrix: defaultMatrix,
		multiplier:    multiplier,
		logger:        logger,
	}, nil
}

// Score computes a rating against the named matrix, or the default when name is empty.
func (s *Scorer) Score(f FactorSet, w WeightFlags, matrixName string) (ScoreResult, error) {
	if matrixName == "" {
		matrixName = s.defaultMatrix
	}
	m, err := s.matrices.Get(matrixName)
	if err != nil {
		return ScoreResult{}, err
	}
	res, err := Compute(f, w.WithDefaultMultiplier(s.multiplier), m)
	if err != nil {
		return ScoreResult{}, err
	}
	if res.Severity == nil {
		s.logger.Warn("matrix produced undefined rating", "matrix", m.Name, "category", res.Category)
	}
	return res, nil
}

// Matrices returns the registered matrices.
func (s *Scorer) Matrices() []RiskMatrix {
	return s.matrices.All()
}

// DefaultMatrix returns the name used when none is requested.
func (s *Scorer) DefaultMatrix() string {
	return s.defaultMatrix
}
