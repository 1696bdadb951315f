package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/logger"
	"github.com/arfanana/smart-internship-engine/internal/ranking"
)

// Store is the persistence the service needs.
type Store interface {
	domain.Snapshots
	domain.Transactor

	ListMatches(ctx context.Context, studentID int64) ([]domain.Match, error)
	SetMatchStatus(ctx context.Context, id int64, status domain.Status) (domain.Match, error)
	PruneMatches(ctx context.Context, studentID int64, keep []int64) (int64, error)
}

// RunOptions tunes a single matching run.
type RunOptions struct {
	// Limit overrides the configured result cap when positive.
	Limit int
	// DryRun computes results without recording them.
	DryRun bool
	// Prune removes pending matches that fell out of the ranked result.
	Prune bool
}

// Outcome is the result of a matching run.
type Outcome struct {
	Results []Result
	Matches []domain.Match
	Pruned  int64
}

type Service struct {
	store    Store
	engine   *Engine
	recorder *Recorder
	policy   domain.GradePolicy
	logger   *zap.Logger
}

func NewService(store Store, engine *Engine, policy domain.GradePolicy, log *zap.Logger) *Service {
	log = logger.OrNop(log)
	if engine == nil {
		engine = NewEngine(nil, nil, ranking.Ranker{Limit: ranking.DefaultLimit}, log)
	}
	return &Service{
		store:    store,
		engine:   engine,
		recorder: NewRecorder(log),
		policy:   policy,
		logger:   log,
	}
}

// ComputeMatches ranks the active internships for the student without
// recording anything.
func (s *Service) ComputeMatches(ctx context.Context, studentID int64) ([]Result, error) {
	return s.compute(ctx, s.engine, studentID)
}

// Run computes the student's matches and records them unless DryRun is set.
func (s *Service) Run(ctx context.Context, studentID int64, opts RunOptions) (Outcome, error) {
	log := logger.WithFields(s.logger, zap.Int64(logger.FieldStudentID, studentID), zap.Bool("dry_run", opts.DryRun))

	results, err := s.compute(ctx, s.engine.WithLimit(opts.Limit), studentID)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Results: results}
	if opts.DryRun {
		log.Debug("dry run, nothing recorded", zap.Int("results", len(results)))
		return outcome, nil
	}

	outcome.Matches, err = s.recorder.Record(ctx, s.store, studentID, results)
	if err != nil {
		return Outcome{}, err
	}

	if opts.Prune {
		keep := make([]int64, 0, len(results))
		for _, result := range results {
			keep = append(keep, result.InternshipID)
		}

		outcome.Pruned, err = s.store.PruneMatches(ctx, studentID, keep)
		if err != nil {
			return Outcome{}, err
		}
		log.Info("pruned stale matches", zap.Int64("removed", outcome.Pruned))
	}

	return outcome, nil
}

// RecordMatch upserts a single (student, internship) score.
func (s *Service) RecordMatch(ctx context.Context, studentID, internshipID int64, score float64) (domain.Match, error) {
	if score < 0 || score > 1 {
		return domain.Match{}, fmt.Errorf("%w: match score %.4f is outside [0, 1]", domain.ErrInvalidInput, score)
	}

	matches, err := s.recorder.Record(ctx, s.store, studentID, []Result{{InternshipID: internshipID, MatchScore: score}})
	if err != nil {
		return domain.Match{}, err
	}
	return matches[0], nil
}

// Matches lists the recorded matches of a student.
func (s *Service) Matches(ctx context.Context, studentID int64) ([]domain.Match, error) {
	if _, err := s.store.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return s.store.ListMatches(ctx, studentID)
}

// Review sets the status of a recorded match.
func (s *Service) Review(ctx context.Context, matchID int64, status string) (domain.Match, error) {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Match{}, err
	}

	match, err := s.store.SetMatchStatus(ctx, matchID, parsed)
	if err != nil {
		return domain.Match{}, err
	}

	s.logger.Info("match reviewed",
		zap.Int64("match_id", match.ID),
		zap.Int64(logger.FieldStudentID, match.StudentID),
		zap.Int64(logger.FieldInternshipID, match.InternshipID),
		zap.String("status", string(match.Status)),
	)
	return match, nil
}

func (s *Service) compute(ctx context.Context, engine *Engine, studentID int64) ([]Result, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if err := student.Validate(s.policy); err != nil {
		s.logger.Warn("student record outside institution ranges", zap.Error(err))
	}

	internships, err := s.store.ListActiveInternships(ctx)
	if err != nil {
		return nil, err
	}

	return engine.Rank(ctx, student, internships)
}
