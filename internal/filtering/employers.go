package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

const EmployersFilterName = "employers"

type employersFilter struct {
	employers []string
	disabled  bool
	reason    string
}

// NewExcludedEmployers creates a filter that removes postings owned by the listed employers.
func NewExcludedEmployers(employers []string) Filter {
	cleaned := make([]string, 0, len(employers))
	for _, employer := range employers {
		if employer = strings.TrimSpace(employer); employer != "" {
			cleaned = append(cleaned, employer)
		}
	}

	return &employersFilter{
		employers: cleaned,
	}
}

func (f *employersFilter) Name() string { return EmployersFilterName }

func (f *employersFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *employersFilter) IsEnabled() bool { return !f.disabled }

// Validate requires employer references to be numeric identifiers.
func (f *employersFilter) Validate() error {
	for _, employer := range f.employers {
		if _, err := strconv.ParseInt(employer, 10, 64); err != nil {
			return fmt.Errorf("%w: employer id %q is not numeric", domain.ErrInvalidInput, employer)
		}
	}
	return nil
}

func (f *employersFilter) Apply(_ context.Context, _ domain.Student, v *domain.Internships) (*domain.Internships, Step, error) {
	initial := v.Len()
	if len(f.employers) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	excluded := v.Exclude(domain.InternshipEmployerIDField, f.employers)

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.employers) > 0 {
		details["employers"] = strings.Join(f.employers, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
