package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MinRating and MaxRating bound every OWASP factor rating.
const (
	MinRating = 0
	MaxRating = 9
)

// DefaultWeightMultiplier is applied to motive or financial damage when weighting is on.
const DefaultWeightMultiplier = 1.5

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUndefinedRating = errors.New("undefined rating")
	ErrUnknownMatrix   = errors.New("unknown risk matrix")
)

// FactorSet holds the sixteen OWASP factor ratings.
type FactorSet struct {
	// Threat agent
	SkillLevel     int `json:"skill_level" yaml:"skill_level"`
	Motive         int `json:"motive" yaml:"motive"`
	Opportunity    int `json:"opportunity" yaml:"opportunity"`
	PopulationSize int `json:"population_size" yaml:"population_size"`

	// Vulnerability
	EaseOfDiscovery    int `json:"ease_of_discovery" yaml:"ease_of_discovery"`
	EaseOfExploit      int `json:"ease_of_exploit" yaml:"ease_of_exploit"`
	Awareness          int `json:"awareness" yaml:"awareness"`
	IntrusionDetection int `json:"intrusion_detection" yaml:"intrusion_detection"`

	// Technical impact
	LossConfidentiality int `json:"loss_confidentiality" yaml:"loss_confidentiality"`
	LossIntegrity       int `json:"loss_integrity" yaml:"loss_integrity"`
	LossAvailability    int `json:"loss_availability" yaml:"loss_availability"`
	LossAccountability  int `json:"loss_accountability" yaml:"loss_accountability"`

	// Business impact
	FinancialDamage     int `json:"financial_damage" yaml:"financial_damage"`
	ReputationDamage    int `json:"reputation_damage" yaml:"reputation_damage"`
	ComplianceViolation int `json:"compliance_violation" yaml:"compliance_violation"`
	PrivacyViolation    int `json:"privacy_violation" yaml:"privacy_violation"`
}

type factorField struct {
	name string
	ref  func(*FactorSet) *int
}

var factorFields = []factorField{
	{"skill_level", func(f *FactorSet) *int { return &f.SkillLevel }},
	{"motive", func(f *FactorSet) *int { return &f.Motive }},
	{"opportunity", func(f *FactorSet) *int { return &f.Opportunity }},
	{"population_size", func(f *FactorSet) *int { return &f.PopulationSize }},
	{"ease_of_discovery", func(f *FactorSet) *int { return &f.EaseOfDiscovery }},
	{"ease_of_exploit", func(f *FactorSet) *int { return &f.EaseOfExploit }},
	{"awareness", func(f *FactorSet) *int { return &f.Awareness }},
	{"intrusion_detection", func(f *FactorSet) *int { return &f.IntrusionDetection }},
	{"loss_confidentiality", func(f *FactorSet) *int { return &f.LossConfidentiality }},
	{"loss_integrity", func(f *FactorSet) *int { return &f.LossIntegrity }},
	{"loss_availability", func(f *FactorSet) *int { return &f.LossAvailability }},
	{"loss_accountability", func(f *FactorSet) *int { return &f.LossAccountability }},
	{"financial_damage", func(f *FactorSet) *int { return &f.FinancialDamage }},
	{"reputation_damage", func(f *FactorSet) *int { return &f.ReputationDamage }},
	{"compliance_violation", func(f *FactorSet) *int { return &f.ComplianceViolation }},
	{"privacy_violation", func(f *FactorSet) *int { return &f.PrivacyViolation }},
}

// FactorNames returns the factor keys in threat agent, vulnerability,
// technical impact, business impact order.
func FactorNames() []string {
	names := make([]string, len(factorFields))
	for i, f := range factorFields {
		names[i] = f.name
	}
	return names
}

// Set assigns a factor by key.
func (f *FactorSet) Set(name string, v int) error {
	for _, ff := range factorFields {
		if ff.name == name {
			*ff.ref(f) = v
			return nil
		}
	}
	return fmt.Errorf("%w: unknown factor %q", ErrInvalidInput, name)
}

// Get returns a factor by key.
func (f FactorSet) Get(name string) (int, bool) {
	for _, ff := range factorFields {
		if ff.name == name {
			return *ff.ref(&f), true
		}
	}
	return 0, false
}

// Validate reports every rating outside the 0-9 scale.
func (f FactorSet) Validate() error {
	verr := &ValidationError{}
	for _, ff := range factorFields {
		v := *ff.ref(&f)
		if v < MinRating || v > MaxRating {
			verr.add(ff.name, fmt.Sprintf("must be between %d and %d, got %d", MinRating, MaxRating, v))
		}
	}
	return verr.orNil()
}

// ValidationError lists the offending input fields and why each was rejected.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ParseFactors turns loosely typed input (form strings, decoded JSON) into a
// FactorSet. Every factor must be present and an integer on the 0-9 scale;
// nothing is defaulted. Unknown keys are rejected.
func ParseFactors(raw map[string]any) (FactorSet, error) {
	var f FactorSet
	verr := &ValidationError{}

	known := make(map[string]bool, len(factorFields))
	for _, ff := range factorFields {
		known[ff.name] = true
		v, ok := raw[ff.name]
		if !ok || v == nil {
			verr.add(ff.name, "required")
			continue
		}
		n, err := toInt(v)
		if err != nil {
			verr.add(ff.name, err.Error())
			continue
		}
		if n < MinRating || n > MaxRating {
			verr.add(ff.name, fmt.Sprintf("must be between %d and %d, got %d", MinRating, MaxRating, n))
			continue
		}
		*ff.ref(&f) = n
	}
	for k := range raw {
		if !known[k] {
			verr.add(k, "unknown factor")
		}
	}

	if err := verr.orNil(); err != nil {
		return FactorSet{}, err
	}
	return f, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		return int(x), nil
	case json.Number:
		n, err := strconv.Atoi(x.String())
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x.String())
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

// WeightFlags toggles the optional multipliers on motive and financial damage.
// A zero multiplier means the configured default.
type WeightFlags struct {
	WeightMotive        bool    `json:"weight_motive" yaml:"weight_motive"`
	WeightFinancial     bool    `json:"weight_financial" yaml:"weight_financial"`
	MotiveMultiplier    float64 `json:"motive_multiplier,omitempty" yaml:"motive_multiplier,omitempty"`
	FinancialMultiplier float64 `json:"financial_multiplier,omitempty" yaml:"financial_multiplier,omitempty"`
}

// Weighted reports whether either multiplier is active.
func (w WeightFlags) Weighted() bool {
	return w.WeightMotive || w.WeightFinancial
}

// WithDefaultMultiplier fills unset multipliers with m.
func (w WeightFlags) WithDefaultMultiplier(m float64) WeightFlags {
	if w.MotiveMultiplier == 0 {
		w.MotiveMultiplier = m
	}
	if w.FinancialMultiplier == 0 {
		w.FinancialMultiplier = m
	}
	return w
}

// Validate checks that multipliers are finite and at least 1.
func (w WeightFlags) Validate() error {
	verr := &ValidationError{}
	check := func(name string, m float64) {
		if m == 0 {
			return
		}
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 1 {
			verr.add(name, fmt.Sprintf("must be a finite number >= 1, got %v", m))
		}
	}
	check("motive_multiplier", w.MotiveMultiplier)
	check("financial_multiplier", w.FinancialMultiplier)
	return verr.orNil()
}

func (w WeightFlags) motiveMultiplier() float64 {
	if w.MotiveMultiplier == 0 {
		return DefaultWeightMultiplier
	}
	return w.MotiveMultiplier
}

func (w WeightFlags) financialMultiplier() float64 {
	if w.FinancialMultiplier == 0 {
		return DefaultWeightMultiplier
	}
	return w.FinancialMultiplier
}
