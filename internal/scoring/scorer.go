package scoring

import (
	"fmt"
	"math"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

const (
	DefaultSkillsWeight = 0.7
	DefaultDomainWeight = 0.3
)

// Weights controls how skill overlap and domain alignment combine into a score.
type Weights struct {
	Skills float64 `mapstructure:"skills"`
	Domain float64 `mapstructure:"domain"`
}

func DefaultWeights() Weights {
	return Weights{Skills: DefaultSkillsWeight, Domain: DefaultDomainWeight}
}

// Validate rejects weights that are not finite, negative, sum to zero, or let domain
// alignment outweigh skill overlap.
func (w Weights) Validate() error {
	if !finite(w.Skills) || !finite(w.Domain) {
		return fmt.Errorf("%w: weights must be finite (skills=%v, domain=%v)", domain.ErrInvalidInput, w.Skills, w.Domain)
	}
	if w.Skills < 0 || w.Domain < 0 {
		return fmt.Errorf("%w: weights must not be negative (skills=%.2f, domain=%.2f)", domain.ErrInvalidInput, w.Skills, w.Domain)
	}
	if w.Skills+w.Domain == 0 {
		return fmt.Errorf("%w: weights must not both be zero", domain.ErrInvalidInput)
	}
	if w.Skills <= w.Domain {
		return fmt.Errorf("%w: skills weight %.2f must exceed domain weight %.2f", domain.ErrInvalidInput, w.Skills, w.Domain)
	}
	return nil
}

// Assessment explains how a score was composed.
type Assessment struct {
	Score           float64
	SkillOverlap    float64
	DomainAlignment float64
	MatchedSkills   []string
	MissingSkills   []string
}

type Scorer struct {
	weights Weights
}

// New returns a scorer using the provided weights. Invalid weights are rejected.
func New(weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights}, nil
}

// Default returns a scorer with the 0.7/0.3 weighting.
func Default() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the fit of the student for the internship in [0, 1].
func (s *Scorer) Score(student domain.Student, internship domain.Internship) float64 {
	return s.Assess(student, internship).Score
}

// Assess scores the pair and reports the matched and missing required skills
// as the posting spells them. Tokens are compared normalized.
func (s *Scorer) Assess(student domain.Student, internship domain.Internship) Assessment {
	skills := domain.NewTokenSet(student.Skills)
	preferences := domain.NewTokenSet(student.Preferences)

	matched, missing := skills.Split(internship.RequiredSkills)

	overlap := 1.0
	if required := len(matched) + len(missing); required > 0 {
		overlap = float64(len(matched)) / float64(required)
	}

	alignment := 0.0
	if preferences.Has(internship.Domain) {
		alignment = 1.0
	}

	return Assessment{
		Score:           clamp(s.weights.Skills*overlap + s.weights.Domain*alignment),
		SkillOverlap:    overlap,
		DomainAlignment: alignment,
		MatchedSkills:   matched,
		MissingSkills:   missing,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
