package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/filtering"
	"github.com/arfanana/smart-internship-engine/internal/logger"
	"github.com/arfanana/smart-internship-engine/internal/ranking"
	"github.com/arfanana/smart-internship-engine/internal/scoring"
)

// Result is one ranked internship for a student.
type Result struct {
	InternshipID   int64    `json:"internship_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"required_skills"`
	Domain         string   `json:"domain"`
	MatchScore     float64  `json:"match_score"`

	MatchedSkills []string `json:"matched_skills,omitempty"`
	MissingSkills []string `json:"missing_skills,omitempty"`
}

// Engine runs the filter, score and rank pipeline. It performs no I/O.
type Engine struct {
	filters *filtering.Filtering
	scorer  *scoring.Scorer
	ranker  ranking.Ranker
	logger  *zap.Logger
}

func NewEngine(filters *filtering.Filtering, scorer *scoring.Scorer, ranker ranking.Ranker, log *zap.Logger) *Engine {
	if filters == nil {
		filters = filtering.New(filtering.DefaultSteps(nil), log)
	}
	if scorer == nil {
		scorer = scoring.Default()
	}
	return &Engine{
		filters: filters,
		scorer:  scorer,
		ranker:  ranker,
		logger:  logger.OrNop(log),
	}
}

// WithLimit returns a copy of the engine that caps results at limit.
// A non-positive limit keeps the configured one.
func (e *Engine) WithLimit(limit int) *Engine {
	if limit <= 0 {
		return e
	}
	clone := *e
	clone.ranker.Limit = limit
	return &clone
}

// Rank returns the internships the student is eligible for, best fit first.
// An empty result is not an error.
func (e *Engine) Rank(ctx context.Context, student domain.Student, internships []domain.Internship) ([]Result, error) {
	student = student.Normalized()

	eligible, err := e.filters.RunFilters(ctx, student, domain.NewInternships(internships))
	if err != nil {
		return nil, err
	}

	assessments := make(map[int64]scoring.Assessment, eligible.Len())
	candidates := make([]ranking.Candidate, 0, eligible.Len())
	for _, internship := range eligible.Items {
		assessment := e.scorer.Assess(student, *internship)
		assessments[internship.ID] = assessment
		candidates = append(candidates, ranking.Candidate{Internship: *internship, Score: assessment.Score})

		e.logger.Debug("scored internship", append(logger.InternshipFields(internship),
			zap.Float64("score", assessment.Score),
			zap.Strings("missing_skills", assessment.MissingSkills),
		)...)
	}

	ranked := e.ranker.Rank(candidates)

	results := make([]Result, 0, len(ranked))
	for _, candidate := range ranked {
		assessment := assessments[candidate.Internship.ID]
		results = append(results, Result{
			InternshipID:   candidate.Internship.ID,
			Title:          candidate.Internship.Title,
			Description:    candidate.Internship.Description,
			RequiredSkills: append([]string(nil), candidate.Internship.RequiredSkills...),
			Domain:         candidate.Internship.Domain,
			MatchScore:     candidate.Score,
			MatchedSkills:  assessment.MatchedSkills,
			MissingSkills:  assessment.MissingSkills,
		})
	}

	e.logger.Info("ranked internships", append(logger.StudentFields(student),
		zap.Int("pool", len(internships)),
		zap.Int("eligible", eligible.Len()),
		zap.Int("ranked", len(results)),
	)...)

	return results, nil
}
