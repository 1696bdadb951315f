package matching

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/filtering"
	"github.com/arfanana/smart-internship-engine/internal/ranking"
	"github.com/arfanana/smart-internship-engine/internal/scoring"
)

type pair struct {
	student    int64
	internship int64
}

// memoryStore is an in-memory Store with transactional match writes.
type memoryStore struct {
	mu          sync.Mutex
	students    map[int64]domain.Student
	internships map[int64]domain.Internship
	matches     map[pair]domain.Match
	nextID      int64

	// failOnUpsert makes the n-th upsert (1-based) fail; 0 disables.
	failOnUpsert int
	upserts      int
	rollbacks    int
}

func newMemoryStore(students []domain.Student, internships []domain.Internship) *memoryStore {
	store := &memoryStore{
		students:    map[int64]domain.Student{},
		internships: map[int64]domain.Internship{},
		matches:     map[pair]domain.Match{},
	}
	for _, s := range students {
		store.students[s.ID] = s
	}
	for _, i := range internships {
		store.internships[i.ID] = i
	}
	return store
}

func (m *memoryStore) GetStudent(_ context.Context, id int64) (domain.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[id]
	if !ok {
		return domain.Student{}, domain.NewNotFound("student", id)
	}
	return student, nil
}

func (m *memoryStore) ListActiveInternships(context.Context) ([]domain.Internship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Internship, 0, len(m.internships))
	for _, i := range m.internships {
		if i.IsActive {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *memoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := make(map[pair]domain.Match, len(m.matches))
	for k, v := range m.matches {
		saved[k] = v
	}
	savedID := m.nextID

	if err := fn(ctx, m); err != nil {
		m.matches = saved
		m.nextID = savedID
		m.rollbacks++
		return err
	}
	return nil
}

func (m *memoryStore) StudentExists(_ context.Context, id int64) error {
	if _, ok := m.students[id]; !ok {
		return domain.NewNotFound("student", id)
	}
	return nil
}

func (m *memoryStore) InternshipExists(_ context.Context, id int64) error {
	if _, ok := m.internships[id]; !ok {
		return domain.NewNotFound("internship", id)
	}
	return nil
}

func (m *memoryStore) UpsertMatch(_ context.Context, studentID, internshipID int64, score float64) (domain.Match, error) {
	m.upserts++
	if m.failOnUpsert > 0 && m.upserts == m.failOnUpsert {
		return domain.Match{}, domain.NewPersistence("upserting match", errors.New("connection reset"))
	}

	key := pair{studentID, internshipID}
	match, ok := m.matches[key]
	if !ok {
		m.nextID++
		match = domain.Match{ID: m.nextID, StudentID: studentID, InternshipID: internshipID, Status: domain.StatusPending}
	}
	match.Score = score
	m.matches[key] = match
	return match, nil
}

func (m *memoryStore) ListMatches(_ context.Context, studentID int64) ([]domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Match
	for k, v := range m.matches {
		if k.student == studentID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].InternshipID < out[b].InternshipID })
	return out, nil
}

func (m *memoryStore) SetMatchStatus(_ context.Context, id int64, status domain.Status) (domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.matches {
		if v.ID == id {
			v.Status = status
			m.matches[k] = v
			return v, nil
		}
	}
	return domain.Match{}, domain.NewNotFound("match", id)
}

func (m *memoryStore) PruneMatches(_ context.Context, studentID int64, keep []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := map[int64]bool{}
	for _, id := range keep {
		kept[id] = true
	}
	var removed int64
	for k, v := range m.matches {
		if k.student == studentID && v.Status == domain.StatusPending && !kept[k.internship] {
			delete(m.matches, k)
			removed++
		}
	}
	return removed, nil
}

func scenarioStudent() domain.Student {
	return domain.Student{
		ID:          1,
		YearOfStudy: 3,
		CGPA:        8.5,
		Skills:      []string{"Python", "SQL"},
		Preferences: []string{"Data Science"},
		IsActive:    true,
	}
}

func scenarioInternships() []domain.Internship {
	return []domain.Internship{
		{ID: 1, EmployerID: 10, Title: "Data Analyst", MinYear: 2, MinCGPA: 8.0, RequiredSkills: []string{"Python", "SQL", "Tableau"}, Domain: "Data Analytics", PositionsAvailable: 3, IsActive: true},
		{ID: 2, EmployerID: 10, Title: "Research Intern", MinYear: 1, MinCGPA: 7.0, Domain: "Data Science", PositionsAvailable: 1, IsActive: true},
		{ID: 3, EmployerID: 20, Title: "Full Team", MinYear: 1, MinCGPA: 5.0, Domain: "Data Science", PositionsAvailable: 0, IsActive: true},
		{ID: 4, EmployerID: 20, Title: "BI Intern", MinYear: 2, MinCGPA: 8.0, RequiredSkills: []string{"tableau", "python", "sql"}, Domain: "Data Analytics", PositionsAvailable: 2, IsActive: true},
		{ID: 5, EmployerID: 20, Title: "Senior Only", MinYear: 4, MinCGPA: 5.0, Domain: "Data Science", PositionsAvailable: 2, IsActive: true},
	}
}

func newTestService(store *memoryStore, limit int) *Service {
	engine := NewEngine(filtering.New(filtering.DefaultSteps(nil), nil), scoring.Default(), ranking.Ranker{Limit: limit}, nil)
	return NewService(store, engine, domain.DefaultGradePolicy(), nil)
}

func resultIDs(results []Result) []int64 {
	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.InternshipID)
	}
	return ids
}

func TestComputeMatches(t *testing.T) {
	store := newMemoryStore([]domain.Student{scenarioStudent()}, scenarioInternships())
	service := newTestService(store, 10)

	results, err := service.ComputeMatches(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 1, 4}, resultIDs(results))
	assert.InDelta(t, 1.0, results[0].MatchScore, 1e-9)
	assert.InDelta(t, 0.4667, results[1].MatchScore, 1e-3)
	assert.InDelta(t, results[1].MatchScore, results[2].MatchScore, 1e-12)

	assert.Equal(t, "Data Analyst", results[1].Title)
	assert.Equal(t, []string{"Python", "SQL", "Tableau"}, results[1].RequiredSkills)
	assert.Equal(t, []string{"Tableau"}, results[1].MissingSkills)
	assert.Equal(t, []string{"tableau"}, results[2].MissingSkills)

	assert.Empty(t, store.matches, "computing must not record anything")
}

func TestComputeMatchesUnknownStudent(t *testing.T) {
	service := newTestService(newMemoryStore(nil, scenarioInternships()), 10)

	_, err := service.ComputeMatches(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunWithNoEligibleInternships(t *testing.T) {
	store := newMemoryStore([]domain.Student{scenarioStudent()}, []domain.Internship{
		{ID: 3, MinYear: 1, PositionsAvailable: 0, IsActive: true},
	})

	outcome, err := newTestService(store, 10).Run(context.Background(), 1, RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
	assert.Empty(t, outcome.Matches)
}

func TestRunIsIdempotentAndKeepsStatus(t *testing.T) {
	store := newMemoryStore([]domain.Student{scenarioStudent()}, scenarioInternships())
	service := newTestService(store, 10)
	ctx := context.Background()

	first, err := service.Run(ctx, 1, RunOptions{})
	require.NoError(t, err)
	require.Len(t, first.Matches, 3)
	for i, match := range first.Matches {
		assert.Equal(t, first.Results[i].InternshipID, match.InternshipID)
		assert.Equal(t, domain.StatusPending, match.Status)
	}

	_, err = service.Review(ctx, first.Matches[1].ID, " Accepted ")
	require.NoError(t, err)

	// The posting now asks for fewer skills, so the score moves.
	internship := store.internships[1]
	internship.RequiredSkills = []string{"Python"}
	store.internships[1] = internship

	second, err := service.Run(ctx, 1, RunOptions{})
	require.NoError(t, err)

	stored, err := service.Matches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	for _, match := range stored {
		if match.InternshipID != 1 {
			continue
		}
		assert.Equal(t, first.Matches[1].ID, match.ID)
		assert.Equal(t, domain.StatusAccepted, match.Status)
		assert.InDelta(t, 0.7, match.Score, 1e-9)
	}
	assert.Equal(t, []int64{2, 1, 4}, resultIDs(second.Results))
}

func TestRunRollsBackOnPersistenceFailure(t *testing.T) {
	store := newMemoryStore([]domain.Student{scenarioStudent()}, scenarioInternships())
	store.failOnUpsert = 2

	_, err := newTestService(store, 10).Run(context.Background(), 1, RunOptions{})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, store.matches)
	assert.Equal(t, 1, store.rollbacks)
}

func TestRunDryRunAndPrune(t *testing.T) {
	store := newMemoryStore([]domain.Student{scenarioStudent()}, scenarioInternships())
	service := newTestService(store, 10)
	ctx := context.Background()

	dry, err := service.Run(ctx, 1, RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Len(t, dry.Results, 3)
	assert.Empty(t, dry.Matches)
	assert.Empty(t, store.matches)

	full, err := service.Run(ctx, 1, RunOptions{})
	require.NoError(t, err)
	require.Len(t, full.Matches, 3)

	_, err = service.Review(ctx, full.Matches[2].ID, "rejected")
	require.NoError(t, err)

	narrow, err := service.Run(ctx, 1, RunOptions{Limit: 1, Prune: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, resultIDs(narrow.Results))
	assert.Equal(t, int64(1), narrow.Pruned)

	stored, err := service.Matches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(2), stored[0].InternshipID)
	assert.Equal(t, int64(4), stored[1].InternshipID)
	assert.Equal(t, domain.StatusRejected, stored[1].Status)
}

func TestRunPruneLogsStudent(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	store := newMemoryStore([]domain.Student{scenarioStudent()}, scenarioInternships())
	engine := NewEngine(nil, nil, ranking.Ranker{Limit: 10}, nil)
	service := NewService(store, engine, domain.DefaultGradePolicy(), zap.New(core))

	_, err := service.Run(context.Background(), 1, RunOptions{Prune: true})
	require.NoError(t, err)

	entries := observed.FilterMessage("pruned stale matches").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["student_id"])
	assert.Equal(t, false, fields["dry_run"])
	assert.Equal(t, int64(0), fields["removed"])
}

func TestRecordMatch(t *testing.T) {
	store := newMemoryStore([]domain.Student{scenarioStudent()}, scenarioInternships())
	service := newTestService(store, 10)
	ctx := context.Background()

	first, err := service.RecordMatch(ctx, 1, 2, 0.5)
	require.NoError(t, err)
	second, err := service.RecordMatch(ctx, 1, 2, 0.75)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, 0.75, second.Score, 1e-9)
	assert.Len(t, store.matches, 1)

	_, err = service.RecordMatch(ctx, 1, 99, 0.5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = service.RecordMatch(ctx, 7, 2, 0.5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = service.RecordMatch(ctx, 1, 2, 1.5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReviewRejectsUnknownStatus(t *testing.T) {
	service := newTestService(newMemoryStore(nil, nil), 10)

	_, err := service.Review(context.Background(), 1, "maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.Review(context.Background(), 1, "accepted")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngineExcludesEmployersAndLogs(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	engine := NewEngine(filtering.New(filtering.DefaultSteps([]string{"10"}), log), scoring.Default(), ranking.Ranker{Limit: 5}, log)
	results, err := engine.Rank(context.Background(), scenarioStudent(), scenarioInternships())
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, resultIDs(results))

	entries := observed.FilterMessage("ranked internships").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, int64(5), ctx["pool"])
	assert.Equal(t, int64(1), ctx["eligible"])
}
