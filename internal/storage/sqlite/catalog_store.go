package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ipssi/codequest/internal/domain"
)

// CatalogStore implements course catalog persistence backed by SQLite.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new SQLite-backed catalog store.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ImportCourse writes a course and its exercises, replacing any stored
// version. A re-imported course keeps its position in the catalog.
func (s *CatalogStore) ImportCourse(ctx context.Context, course *domain.Course) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRowContext(ctx, "SELECT position FROM courses WHERE id = ?", course.ID).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), 0) + 1 FROM courses").Scan(&position)
	}
	if err != nil {
		return fmt.Errorf("course position: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", course.ID); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO courses (id, title, language, description, icon, color, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		course.ID, course.Title, string(course.Language), course.Description,
		course.Icon, course.Color, position,
	)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	for i, ex := range course.Exercises {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exercises (course_id, id, position, title, description, lesson,
				language, difficulty, initial_code, solution, hint,
				use_multi_tab, base_html, editable_html, solution_html)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			course.ID, ex.ID, i, ex.Title, ex.Description, ex.Lesson,
			string(ex.Language), string(ex.Difficulty), ex.InitialCode, ex.Solution, ex.Hint,
			boolToInt(ex.UseMultiTab), ex.BaseHTML, boolToInt(ex.EditableHTML), ex.SolutionHTML,
		)
		if err != nil {
			return fmt.Errorf("insert exercise %s: %w", ex.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// GetCourse retrieves a course with its exercises.
func (s *CatalogStore) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, language, description, icon, color
		FROM courses WHERE id = ?`, id)

	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadExercises(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// ListCourses returns every course in catalog order.
func (s *CatalogStore) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, language, description, icon, color
		FROM courses ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	var courses []*domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the single connection before querying exercises.
	rows.Close()

	for _, c := range courses {
		if err := s.loadExercises(ctx, c); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// LoadCourses implements exercise.Source.
func (s *CatalogStore) LoadCourses(ctx context.Context) ([]*domain.Course, error) {
	return s.ListCourses(ctx)
}

// DeleteCourse removes a course and its exercises.
func (s *CatalogStore) DeleteCourse(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	return nil
}

func (s *CatalogStore) loadExercises(ctx context.Context, course *domain.Course) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, lesson, language, difficulty, initial_code,
			solution, hint, use_multi_tab, base_html, editable_html, solution_html
		FROM exercises WHERE course_id = ? ORDER BY position`, course.ID)
	if err != nil {
		return fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	course.Exercises = nil
	for rows.Next() {
		var (
			ex                 domain.Exercise
			lang, difficulty   string
			multiTab, editable int
		)
		err := rows.Scan(&ex.ID, &ex.Title, &ex.Description, &ex.Lesson, &lang, &difficulty,
			&ex.InitialCode, &ex.Solution, &ex.Hint, &multiTab, &ex.BaseHTML, &editable, &ex.SolutionHTML)
		if err != nil {
			return fmt.Errorf("scan exercise: %w", err)
		}
		ex.CourseID = course.ID
		ex.Language = domain.Language(lang)
		ex.Difficulty = domain.Difficulty(difficulty)
		ex.UseMultiTab = multiTab != 0
		ex.EditableHTML = editable != 0
		course.Exercises = append(course.Exercises, &ex)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (*domain.Course, error) {
	var c domain.Course
	var lang string
	if err := row.Scan(&c.ID, &c.Title, &lang, &c.Description, &c.Icon, &c.Color); err != nil {
		return nil, err
	}
	c.Language = domain.Language(lang)
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
