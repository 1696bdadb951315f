package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/logger"
)

// Recorder persists ranked results as match records.
type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(log *zap.Logger) *Recorder {
	return &Recorder{logger: logger.OrNop(log)}
}

// Record upserts one match per ranked result inside a single transaction and
// returns the stored matches in ranked order. Existing matches keep their
// status. Any failure rolls back the whole batch.
func (r *Recorder) Record(ctx context.Context, tx domain.Transactor, studentID int64, ranked []Result) ([]domain.Match, error) {
	var matches []domain.Match

	err := tx.InTx(ctx, func(ctx context.Context, s domain.Session) error {
		matches = make([]domain.Match, 0, len(ranked))

		if err := s.StudentExists(ctx, studentID); err != nil {
			return err
		}

		for _, result := range ranked {
			if err := s.InternshipExists(ctx, result.InternshipID); err != nil {
				return err
			}

			match, err := s.UpsertMatch(ctx, studentID, result.InternshipID, result.MatchScore)
			if err != nil {
				return err
			}
			matches = append(matches, match)
		}

		return nil
	})
	if err != nil {
		r.logger.Warn("recording matches failed",
			zap.Int64(logger.FieldStudentID, studentID),
			zap.Int("ranked", len(ranked)),
			zap.Error(err),
		)
		return nil, err
	}

	r.logger.Debug("recorded matches",
		zap.Int64(logger.FieldStudentID, studentID),
		zap.Int("matches", len(matches)),
	)

	return matches, nil
}
