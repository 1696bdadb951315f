package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/logger"
)

// Filter represents a single eligibility step applied to the internship pool.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, student domain.Student, v *domain.Internships) (*domain.Internships, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, log *zap.Logger) *Filtering {
	return &Filtering{
		steps:  steps,
		logger: logger.OrNop(log),
	}
}

// Steps returns the configured filters in execution order.
func (f *Filtering) Steps() []Filter {
	return f.steps
}

// RunFilters executes the enabled filters sequentially over the pool.
func (f *Filtering) RunFilters(ctx context.Context, student domain.Student, v *domain.Internships) (*domain.Internships, error) {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range f.steps {
		if !step.IsEnabled() {
			f.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, student, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		f.logger.Debug("filter step",
			zap.Int64(logger.FieldStudentID, student.ID),
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		v = next
	}

	return v, nil
}

// DefaultSteps returns the mandatory eligibility predicates followed by the
// active and employer exclusion steps.
func DefaultSteps(excludedEmployers []string) []Filter {
	return []Filter{
		NewCapacity(),
		NewMinYear(),
		NewMinGrade(),
		NewActive(),
		NewExcludedEmployers(excludedEmployers),
	}
}

// Eligible reports whether the student satisfies the posting's hard constraints:
// open positions, minimum year and minimum grade. Matching runs apply the same
// constraints through the logged step pipeline; Eligible and FilterEligible are
// the pipeline-free reference the tests compare it against.
func Eligible(student domain.Student, internship *domain.Internship) bool {
	return internship.HasCapacity() &&
		student.YearOfStudy >= internship.MinYear &&
		student.CGPA >= internship.MinCGPA
}

// FilterEligible returns the postings the student qualifies for, in input order.
// The input slice is not modified. It is the reference form of the mandatory
// steps and is not used by matching runs.
func FilterEligible(student domain.Student, internships []domain.Internship) []domain.Internship {
	eligible := make([]domain.Internship, 0, len(internships))
	for i := range internships {
		if Eligible(student, &internships[i]) {
			eligible = append(eligible, internships[i])
		}
	}
	return eligible
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
