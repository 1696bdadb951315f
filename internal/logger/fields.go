package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

const (
	// FieldStudentID is the structured log field key for the student identifier.
	FieldStudentID = "student_id"
	// FieldInternshipID is the structured log field key for the internship identifier.
	FieldInternshipID = "internship_id"
	// FieldDomain is the structured log field key for the internship domain tag.
	FieldDomain = "domain"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger,
// defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	logger = OrNop(logger)

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// StudentFields describes the student a matching run is executed for.
func StudentFields(student domain.Student) []zap.Field {
	fields := []zap.Field{
		zap.Int64(FieldStudentID, student.ID),
		zap.Int("year_of_study", student.YearOfStudy),
		zap.Float64("cgpa", student.CGPA),
	}
	return append(fields, StringFields(StringField{Key: "degree", Value: student.Degree})...)
}

// InternshipFields describes a single posting. The title is truncated to keep entries compact.
func InternshipFields(internship *domain.Internship) []zap.Field {
	if internship == nil {
		return nil
	}
	fields := []zap.Field{zap.Int64(FieldInternshipID, internship.ID)}
	return append(fields, StringFields(
		StringField{Key: "title", Value: TruncateForLog(internship.Title, 60)},
		StringField{Key: FieldDomain, Value: internship.Domain},
	)...)
}
