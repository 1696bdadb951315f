package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/logger"
)

// Source provides entity snapshots.
type Source interface {
	Employers() ([]domain.Employer, error)
	Students() ([]domain.Student, error)
	Internships() ([]domain.Internship, error)
}

// Sink stores entity snapshots.
type Sink interface {
	SaveEmployer(ctx context.Context, employer domain.Employer) error
	SaveStudent(ctx context.Context, student domain.Student) error
	SaveInternship(ctx context.Context, internship domain.Internship) error
}

// Report counts the synchronized and skipped entities.
type Report struct {
	Employers   int
	Students    int
	Internships int
	Skipped     int
}

// Sync copies employers, students and internships from src into dst, in that
// order so internships can reference their employers. Records that fail
// validation or reference a missing employer are skipped and logged.
func Sync(ctx context.Context, src Source, dst Sink, policy domain.GradePolicy, log *zap.Logger) (Report, error) {
	log = logger.OrNop(log)
	var report Report

	employers, err := src.Employers()
	if err != nil {
		return report, err
	}
	for _, employer := range employers {
		if err := dst.SaveEmployer(ctx, employer); err != nil {
			return report, fmt.Errorf("saving employer %d: %w", employer.ID, err)
		}
		report.Employers++
	}

	students, err := src.Students()
	if err != nil {
		return report, err
	}
	for _, student := range students {
		if err := student.Validate(policy); err != nil {
			log.Warn("skipping student", zap.Int64(logger.FieldStudentID, student.ID), zap.Error(err))
			report.Skipped++
			continue
		}
		if err := dst.SaveStudent(ctx, student); err != nil {
			return report, fmt.Errorf("saving student %d: %w", student.ID, err)
		}
		report.Students++
	}

	internships, err := src.Internships()
	if err != nil {
		return report, err
	}
	for _, internship := range internships {
		if internship.PositionsAvailable < 0 {
			log.Warn("skipping internship with negative capacity", logger.InternshipFields(&internship)...)
			report.Skipped++
			continue
		}
		if err := dst.SaveInternship(ctx, internship); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				log.Warn("skipping internship", append(logger.InternshipFields(&internship), zap.Error(err))...)
				report.Skipped++
				continue
			}
			return report, fmt.Errorf("saving internship %d: %w", internship.ID, err)
		}
		report.Internships++
	}

	log.Info("catalog synchronized",
		zap.Int("employers", report.Employers),
		zap.Int("students", report.Students),
		zap.Int("internships", report.Internships),
		zap.Int("skipped", report.Skipped),
	)

	return report, nil
}
