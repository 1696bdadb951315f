package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ParseStatus normalizes free text into a known match status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusAccepted, StatusRejected:
		return status, nil
	default:
		return "", fmt.Errorf("%w: status must be pending, accepted or rejected, got %q", ErrInvalidInput, raw)
	}
}

// Reviewed reports whether the status was set explicitly by a reviewer.
func (s Status) Reviewed() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Match is the persisted outcome for one (student, internship) pair.
type Match struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	InternshipID int64     `json:"internship_id"`
	Score        float64   `json:"match_score"`
	Status       Status    `json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Employer struct {
	ID          int64  `json:"id"`
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Stats counts the stored entities.
type Stats struct {
	Employers   int64 `json:"employers"`
	Students    int64 `json:"students"`
	Internships int64 `json:"internships"`
	Matches     int64 `json:"matches"`
}
