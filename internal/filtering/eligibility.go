package filtering

import (
	"context"
	"strconv"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

const (
	CapacityFilterName = "capacity"
	MinYearFilterName  = "min_year"
	MinGradeFilterName = "min_grade"
	ActiveFilterName   = "active"
)

// predicateFilter drops every posting for which keep returns false.
// Mandatory predicates ignore Disable.
type predicateFilter struct {
	name      string
	mandatory bool
	disabled  bool
	reason    string
	keep      func(student domain.Student, internship *domain.Internship) bool
}

// NewCapacity creates a filter that removes postings without open positions,
// even when they are still marked active.
func NewCapacity() Filter {
	return &predicateFilter{
		name:      CapacityFilterName,
		mandatory: true,
		keep: func(_ domain.Student, i *domain.Internship) bool {
			return i.HasCapacity()
		},
	}
}

// NewMinYear creates a filter that removes postings requiring a later year of study.
func NewMinYear() Filter {
	return &predicateFilter{
		name:      MinYearFilterName,
		mandatory: true,
		keep: func(s domain.Student, i *domain.Internship) bool {
			return s.YearOfStudy >= i.MinYear
		},
	}
}

// NewMinGrade creates a filter that removes postings requiring a higher CGPA.
func NewMinGrade() Filter {
	return &predicateFilter{
		name:      MinGradeFilterName,
		mandatory: true,
		keep: func(s domain.Student, i *domain.Internship) bool {
			return s.CGPA >= i.MinCGPA
		},
	}
}

// NewActive creates a filter that removes postings marked inactive.
func NewActive() Filter {
	return &predicateFilter{
		name: ActiveFilterName,
		keep: func(_ domain.Student, i *domain.Internship) bool {
			return i.IsActive
		},
	}
}

func (f *predicateFilter) Name() string { return f.name }

func (f *predicateFilter) Disable(reason string) {
	if f.mandatory {
		return
	}
	f.disabled = true
	f.reason = reason
}

func (f *predicateFilter) IsEnabled() bool { return !f.disabled }

func (f *predicateFilter) Validate() error { return nil }

func (f *predicateFilter) Apply(_ context.Context, student domain.Student, v *domain.Internships) (*domain.Internships, Step, error) {
	initial := v.Len()
	dropped := v.Retain(func(i *domain.Internship) bool {
		return f.keep(student, i)
	})

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *predicateFilter) Status() Status {
	return Status{
		Name:    f.name,
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"mandatory": strconv.FormatBool(f.mandatory)},
	}
}
