package domain

import "fmt"

const (
	DefaultMaxYear  = 6
	DefaultMaxGrade = 10.0
)

// GradePolicy holds the institution's valid ranges for academic records.
type GradePolicy struct {
	MaxYear  int     `mapstructure:"max-year"`
	MaxGrade float64 `mapstructure:"max-grade"`
}

// DefaultGradePolicy returns a policy for a 10-point CGPA scale.
func DefaultGradePolicy() GradePolicy {
	return GradePolicy{MaxYear: DefaultMaxYear, MaxGrade: DefaultMaxGrade}
}

type Student struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	Degree      string   `json:"degree,omitempty"`
	YearOfStudy int      `json:"year_of_study"`
	CGPA        float64  `json:"cgpa"`
	Skills      []string `json:"skills"`
	Preferences []string `json:"preferences"`
	IsActive    bool     `json:"is_active"`
}

// Normalized returns a copy of the student with skills and preferences
// normalized into sorted, deduplicated, case-folded tokens.
func (s Student) Normalized() Student {
	s.Skills = NormalizeTokens(s.Skills)
	s.Preferences = NormalizeTokens(s.Preferences)
	return s
}

// Validate checks the academic record against the policy ranges.
func (s Student) Validate(policy GradePolicy) error {
	if policy.MaxYear <= 0 {
		policy.MaxYear = DefaultMaxYear
	}
	if policy.MaxGrade <= 0 {
		policy.MaxGrade = DefaultMaxGrade
	}

	if s.YearOfStudy < 1 || s.YearOfStudy > policy.MaxYear {
		return fmt.Errorf("%w: student %d year of study %d is outside [1, %d]", ErrInvalidInput, s.ID, s.YearOfStudy, policy.MaxYear)
	}
	if s.CGPA < 0 || s.CGPA > policy.MaxGrade {
		return fmt.Errorf("%w: student %d cgpa %.2f is outside [0, %.2f]", ErrInvalidInput, s.ID, s.CGPA, policy.MaxGrade)
	}
	return nil
}
