package ranking

import (
	"sort"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

// DefaultLimit caps the ranked result when no positive limit is configured.
const DefaultLimit = 10

// Candidate is a scored internship.
type Candidate struct {
	Internship domain.Internship
	Score      float64
}

type Ranker struct {
	Limit    int     `mapstructure:"limit"`
	MinScore float64 `mapstructure:"min-score"`
}

func New(limit int, minScore float64) Ranker {
	return Ranker{Limit: limit, MinScore: minScore}
}

// Rank drops candidates below MinScore and orders the rest with the package
// level Rank using the ranker's limit. The input is not modified.
func (r Ranker) Rank(candidates []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Score < r.MinScore {
			continue
		}
		kept = append(kept, candidate)
	}

	return Rank(kept, r.Limit)
}

// Rank orders candidates by descending score with ties broken by ascending
// internship ID and returns at most limit of them. A non-positive limit means
// DefaultLimit. The input is not modified.
func Rank(candidates []Candidate, limit int) []Candidate {
	ordered := append(make([]Candidate, 0, len(candidates)), candidates...)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].Internship.ID < ordered[j].Internship.ID
	})

	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	return ordered
}
