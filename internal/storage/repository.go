package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

var _ domain.Snapshots = (*Store)(nil)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	studentColumns    = "id, email, full_name, degree, year_of_study, cgpa, skills, preferences, is_active"
	internshipColumns = "id, employer_id, title, description, required_skills, min_cgpa, min_year, positions_available, domain, is_active"
	matchColumns      = "id, student_id, internship_id, match_score, status, updated_at"
)

type scanner interface {
	Scan(dest ...any) error
}

// ==================== Students ====================

// GetStudent loads a student snapshot with normalized skills and preferences.
func (s *Store) GetStudent(ctx context.Context, id int64) (domain.Student, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT "+studentColumns+" FROM students WHERE id = ?"), id)

	student, err := s.scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Student{}, domain.NewNotFound("student", id)
		}
		return domain.Student{}, domain.NewPersistence("loading student", err)
	}
	return student, nil
}

// SaveStudent inserts or replaces a student snapshot.
func (s *Store) SaveStudent(ctx context.Context, student domain.Student) error {
	student = student.Normalized()
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			degree = excluded.degree,
			year_of_study = excluded.year_of_study,
			cgpa = excluded.cgpa,
			skills = excluded.skills,
			preferences = excluded.preferences,
			is_active = excluded.is_active
	`), student.ID, student.Email, student.FullName, student.Degree, student.YearOfStudy, student.CGPA,
		s.dialect.tokens(student.Skills), s.dialect.tokens(student.Preferences), student.IsActive)
	if err != nil {
		return domain.NewPersistence("saving student", err)
	}
	return nil
}

func (s *Store) scanStudent(row scanner) (domain.Student, error) {
	var student domain.Student
	err := row.Scan(&student.ID, &student.Email, &student.FullName, &student.Degree, &student.YearOfStudy,
		&student.CGPA, s.dialect.scanTokens(&student.Skills), s.dialect.scanTokens(&student.Preferences), &student.IsActive)
	if err != nil {
		return domain.Student{}, err
	}
	return student.Normalized(), nil
}

// ==================== Employers ====================

// SaveEmployer inserts or replaces an employer.
func (s *Store) SaveEmployer(ctx context.Context, employer domain.Employer) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO employers (id, email, company_name, industry, description, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			company_name = excluded.company_name,
			industry = excluded.industry,
			description = excluded.description,
			is_active = excluded.is_active
	`), employer.ID, employer.Email, employer.CompanyName, employer.Industry, employer.Description, employer.IsActive)
	if err != nil {
		return domain.NewPersistence("saving employer", err)
	}
	return nil
}

// ==================== Internships ====================

// ListActiveInternships returns the postings marked active, ordered by ID.
func (s *Store) ListActiveInternships(ctx context.Context) ([]domain.Internship, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind("SELECT "+internshipColumns+" FROM internships WHERE is_active = ? ORDER BY id"), true)
	if err != nil {
		return nil, domain.NewPersistence("querying internships", err)
	}
	defer rows.Close()

	var internships []domain.Internship //nolint:prealloc // size unknown from query
	for rows.Next() {
		var i domain.Internship
		if err := rows.Scan(&i.ID, &i.EmployerID, &i.Title, &i.Description, s.dialect.scanTokens(&i.RequiredSkills),
			&i.MinCGPA, &i.MinYear, &i.PositionsAvailable, &i.Domain, &i.IsActive); err != nil {
			return nil, domain.NewPersistence("scanning internship", err)
		}
		internships = append(internships, i)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistence("iterating internships", err)
	}

	return internships, nil
}

// SaveInternship inserts or replaces an internship. The owning employer must exist.
func (s *Store) SaveInternship(ctx context.Context, internship domain.Internship) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO internships (`+internshipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employer_id = excluded.employer_id,
			title = excluded.title,
			description = excluded.description,
			required_skills = excluded.required_skills,
			min_cgpa = excluded.min_cgpa,
			min_year = excluded.min_year,
			positions_available = excluded.positions_available,
			domain = excluded.domain,
			is_active = excluded.is_active
	`), internship.ID, internship.EmployerID, internship.Title, internship.Description,
		s.dialect.tokens(internship.RequiredSkills), internship.MinCGPA, internship.MinYear,
		internship.PositionsAvailable, internship.Domain, internship.IsActive)
	if err != nil {
		if _, ok := isForeignKeyViolation(err); ok {
			return domain.NewNotFound("employer", internship.EmployerID)
		}
		return domain.NewPersistence("saving internship", err)
	}
	return nil
}

// ==================== Matches ====================

// GetMatch loads a single match by ID.
func (s *Store) GetMatch(ctx context.Context, id int64) (domain.Match, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT "+matchColumns+" FROM matches WHERE id = ?"), id)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Match{}, domain.NewNotFound("match", id)
		}
		return domain.Match{}, domain.NewPersistence("loading match", err)
	}
	return match, nil
}

// ListMatches returns the student's matches, best score first.
func (s *Store) ListMatches(ctx context.Context, studentID int64) ([]domain.Match, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		"SELECT "+matchColumns+" FROM matches WHERE student_id = ? ORDER BY match_score DESC, internship_id ASC"), studentID)
	if err != nil {
		return nil, domain.NewPersistence("querying matches", err)
	}
	defer rows.Close()

	var matches []domain.Match //nolint:prealloc // size unknown from query
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, domain.NewPersistence("scanning match", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistence("iterating matches", err)
	}

	return matches, nil
}

// SetMatchStatus records a reviewer decision on a match.
func (s *Store) SetMatchStatus(ctx context.Context, id int64, status domain.Status) (domain.Match, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		"UPDATE matches SET status = ?, updated_at = ? WHERE id = ? RETURNING "+matchColumns),
		string(status), s.now().UTC().UnixMilli(), id)

	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Match{}, domain.NewNotFound("match", id)
		}
		return domain.Match{}, domain.NewPersistence("updating match status", err)
	}
	return match, nil
}

// PruneMatches deletes the student's pending matches whose internship is not
// in keep. Reviewed matches are never removed.
func (s *Store) PruneMatches(ctx context.Context, studentID int64, keep []int64) (int64, error) {
	query := "DELETE FROM matches WHERE student_id = ? AND status = ?"
	args := []any{studentID, string(domain.StatusPending)}
	if len(keep) > 0 {
		query += " AND internship_id NOT IN (" + placeholders(len(keep)) + ")"
		for _, id := range keep {
			args = append(args, id)
		}
	}

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return 0, domain.NewPersistence("pruning matches", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewPersistence("pruning matches", err)
	}
	return removed, nil
}

// Stats counts the stored entities.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM employers),
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM internships),
			(SELECT COUNT(*) FROM matches)
	`).Scan(&stats.Employers, &stats.Students, &stats.Internships, &stats.Matches)
	if err != nil {
		return domain.Stats{}, domain.NewPersistence("counting entities", err)
	}
	return stats, nil
}

func scanMatch(row scanner) (domain.Match, error) {
	var match domain.Match
	var status string
	var updatedAt int64
	if err := row.Scan(&match.ID, &match.StudentID, &match.InternshipID, &match.Score, &status, &updatedAt); err != nil {
		return domain.Match{}, err
	}
	match.Status = domain.Status(status)
	match.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return match, nil
}

// ==================== Transactions ====================

var _ domain.Transactor = (*Store)(nil)

// InTx runs fn within a transaction. The transaction is rolled back on every
// path that does not end in a successful commit.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Session) error) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return fn(ctx, &session{q: tx, dialect: s.dialect, now: s.now})
	})
	if err == nil {
		return nil
	}

	var notFound *domain.NotFoundError
	var persistence *domain.PersistenceError
	if errors.As(err, &notFound) || errors.As(err, &persistence) {
		return err
	}
	return domain.NewPersistence("match transaction", err)
}

type session struct {
	q       querier
	dialect dialect
	now     func() time.Time
}

var _ domain.Session = (*session)(nil)

func (s *session) StudentExists(ctx context.Context, id int64) error {
	return s.exists(ctx, "student", "SELECT 1 FROM students WHERE id = ?", id)
}

func (s *session) InternshipExists(ctx context.Context, id int64) error {
	return s.exists(ctx, "internship", "SELECT 1 FROM internships WHERE id = ?", id)
}

func (s *session) exists(ctx context.Context, entity, query string, id int64) error {
	var one int
	err := s.q.QueryRowContext(ctx, s.dialect.rebind(query), id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.NewNotFound(entity, id)
	case err != nil:
		return domain.NewPersistence(fmt.Sprintf("checking %s", entity), err)
	default:
		return nil
	}
}

// UpsertMatch creates a pending match or updates the score of the existing
// one. The UNIQUE(student_id, internship_id) constraint makes concurrent
// writers converge on a single row.
func (s *session) UpsertMatch(ctx context.Context, studentID, internshipID int64, score float64) (domain.Match, error) {
	now := s.now().UTC().UnixMilli()
	row := s.q.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO matches (student_id, internship_id, match_score, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id, internship_id) DO UPDATE SET
			match_score = excluded.match_score,
			updated_at = excluded.updated_at
		RETURNING `+matchColumns),
		studentID, internshipID, score, string(domain.StatusPending), now, now)

	match, err := scanMatch(row)
	if err != nil {
		if constraint, ok := isForeignKeyViolation(err); ok {
			if constraint == "matches_student_id_fkey" {
				return domain.Match{}, domain.NewNotFound("student", studentID)
			}
			return domain.Match{}, domain.NewNotFound("internship", internshipID)
		}
		return domain.Match{}, domain.NewPersistence("upserting match", err)
	}
	return match, nil
}
