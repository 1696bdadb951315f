package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), Config{Driver: DriverSQLite, Path: t.TempDir()}, nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// seed stores one employer, one student and the given internships.
func seed(t *testing.T, store *Store, internships ...domain.Internship) domain.Student {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveEmployer(ctx, domain.Employer{ID: 1, CompanyName: "Acme", IsActive: true}))

	student := domain.Student{
		ID:          1,
		FullName:    "Asha Rao",
		Degree:      "B.Tech",
		YearOfStudy: 3,
		CGPA:        8.5,
		Skills:      []string{"Python", " sql ", "python"},
		Preferences: []string{"Data Science"},
		IsActive:    true,
	}
	require.NoError(t, store.SaveStudent(ctx, student))

	for _, internship := range internships {
		if internship.EmployerID == 0 {
			internship.EmployerID = 1
		}
		require.NoError(t, store.SaveInternship(ctx, internship))
	}

	return student
}

func upsert(t *testing.T, store *Store, studentID, internshipID int64, score float64) domain.Match {
	t.Helper()

	var match domain.Match
	err := store.InTx(context.Background(), func(ctx context.Context, tx domain.Session) error {
		var err error
		match, err = tx.UpsertMatch(ctx, studentID, internshipID, score)
		return err
	})
	require.NoError(t, err)
	return match
}

func TestOpenMigratesOnce(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		store, err := Open(ctx, Config{Driver: DriverSQLite, Path: dir}, nil)
		require.NoError(t, err)

		var applied int
		require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
		assert.Equal(t, 1, applied)
		assert.Equal(t, DriverSQLite, store.Driver())

		require.NoError(t, store.Close())
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Open(context.Background(), Config{Driver: DriverPostgres}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStudentRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()

	got, err := store.GetStudent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.FullName)
	assert.Equal(t, []string{"python", "sql"}, got.Skills)
	assert.Equal(t, []string{"data science"}, got.Preferences)
	assert.True(t, got.IsActive)

	_, err = store.GetStudent(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var notFound *domain.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "student", notFound.Entity)
}

func TestListActiveInternships(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store,
		domain.Internship{ID: 3, Title: "Analyst", RequiredSkills: []string{"SQL", "Tableau"}, PositionsAvailable: 2, IsActive: true},
		domain.Internship{ID: 2, Title: "Closed", PositionsAvailable: 1, IsActive: false},
		domain.Internship{ID: 1, Title: "Full", PositionsAvailable: 0, IsActive: true},
	)

	got, err := store.ListActiveInternships(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Equal(t, []string{"SQL", "Tableau"}, got[1].RequiredSkills)
	assert.Empty(t, got[0].RequiredSkills)
}

func TestSaveInternshipRequiresEmployer(t *testing.T) {
	store := setupTestStore(t)

	err := store.SaveInternship(context.Background(), domain.Internship{ID: 1, EmployerID: 42, Title: "Orphan", IsActive: true})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsertMatchIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store, domain.Internship{ID: 10, Title: "Analyst", PositionsAvailable: 1, IsActive: true})
	ctx := context.Background()

	first := upsert(t, store, 1, 10, 0.4)
	assert.Equal(t, domain.StatusPending, first.Status)

	reviewed, err := store.SetMatchStatus(ctx, first.ID, domain.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, reviewed.Status)

	second := upsert(t, store, 1, 10, 0.9)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusAccepted, second.Status)
	assert.InDelta(t, 0.9, second.Score, 1e-9)

	matches, err := store.ListMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.9, matches[0].Score, 1e-9)
	assert.Equal(t, domain.StatusAccepted, matches[0].Status)
}

func TestSessionReportsMissingEntities(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	err := store.InTx(context.Background(), func(ctx context.Context, tx domain.Session) error {
		if err := tx.StudentExists(ctx, 1); err != nil {
			return err
		}
		return tx.InternshipExists(ctx, 77)
	})

	var notFound *domain.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "internship", notFound.Entity)
	assert.Equal(t, int64(77), notFound.ID)
}

func TestInTxRollsBack(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store, domain.Internship{ID: 10, Title: "Analyst", PositionsAvailable: 1, IsActive: true})
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTx(ctx, func(ctx context.Context, tx domain.Session) error {
		if _, err := tx.UpsertMatch(ctx, 1, 10, 0.5); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, boom)

	matches, err := store.ListMatches(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestConcurrentUpsertsConverge(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store, domain.Internship{ID: 10, Title: "Analyst", PositionsAvailable: 1, IsActive: true})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(score float64) {
			defer wg.Done()
			errs <- store.InTx(context.Background(), func(ctx context.Context, tx domain.Session) error {
				_, err := tx.UpsertMatch(ctx, 1, 10, score)
				return err
			})
		}(float64(i) / 10)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	matches, err := store.ListMatches(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestPruneMatchesKeepsReviewed(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store,
		domain.Internship{ID: 10, Title: "A", PositionsAvailable: 1, IsActive: true},
		domain.Internship{ID: 11, Title: "B", PositionsAvailable: 1, IsActive: true},
		domain.Internship{ID: 12, Title: "C", PositionsAvailable: 1, IsActive: true},
	)
	ctx := context.Background()

	upsert(t, store, 1, 10, 0.8)
	stale := upsert(t, store, 1, 11, 0.5)
	reviewed := upsert(t, store, 1, 12, 0.3)
	_, err := store.SetMatchStatus(ctx, reviewed.ID, domain.StatusRejected)
	require.NoError(t, err)

	removed, err := store.PruneMatches(ctx, 1, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.GetMatch(ctx, stale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	matches, err := store.ListMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(10), matches[0].InternshipID)
	assert.Equal(t, int64(12), matches[1].InternshipID)
}

func TestSetMatchStatusMissing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.SetMatchStatus(context.Background(), 5, domain.StatusAccepted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store, domain.Internship{ID: 10, Title: "A", PositionsAvailable: 1, IsActive: true})
	upsert(t, store, 1, 10, 0.8)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Employers: 1, Students: 1, Internships: 1, Matches: 1}, stats)
}

func TestMatchTimestamps(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store, domain.Internship{ID: 10, Title: "A", PositionsAvailable: 1, IsActive: true})

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	match := upsert(t, store, 1, 10, 0.8)
	assert.True(t, fixed.Equal(match.UpdatedAt))
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg, err := dialectFor("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b IN ($2, $3)", pg.rebind("SELECT 1 WHERE a = ? AND b IN ("+placeholders(2)+")"))

	lite, err := dialectFor("")
	require.NoError(t, err)
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
	assert.Equal(t, "", placeholders(0))
}
