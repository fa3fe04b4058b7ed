package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/exercise"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ exercise.Store = (*CatalogStore)(nil)

// CatalogStore implements exercise.Store using PostgreSQL
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a new PostgreSQL catalog store
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// ImportCourse replaces a course and its exercises in one transaction. A
// re-imported course keeps its catalog position.
func (s *CatalogStore) ImportCourse(ctx context.Context, course *domain.Course) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	var position int
	err = tx.QueryRow(ctx, `SELECT position FROM courses WHERE id = $1`, course.ID).Scan(&position)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM courses`).Scan(&position)
	}
	if err != nil {
		return fmt.Errorf("course position: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM courses WHERE id = $1`, course.ID)
	batch.Queue(`
		INSERT INTO courses (id, title, language, description, icon, color, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		course.ID, course.Title, string(course.Language), course.Description,
		course.Icon, course.Color, position,
	)
	for i, ex := range course.Exercises {
		batch.Queue(`
			INSERT INTO exercises (course_id, id, position, title, description, lesson,
				language, difficulty, initial_code, solution, hint,
				use_multi_tab, base_html, editable_html, solution_html)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			course.ID, ex.ID, i, ex.Title, ex.Description, ex.Lesson,
			string(ex.Language), string(ex.Difficulty), ex.InitialCode, ex.Solution, ex.Hint,
			ex.UseMultiTab, ex.BaseHTML, ex.EditableHTML, ex.SolutionHTML,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write course %s: %w", course.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// GetCourse retrieves a course with its exercises
func (s *CatalogStore) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, language, description, icon, color
		FROM courses WHERE id = $1`, id)

	course, err := scanCourse(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	byCourse, err := s.exercises(ctx, `WHERE course_id = $1`, id)
	if err != nil {
		return nil, err
	}
	course.Exercises = byCourse[id]
	return course, nil
}

// ListCourses returns every course in catalog order
func (s *CatalogStore) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, language, description, icon, color
		FROM courses ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byCourse, err := s.exercises(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		c.Exercises = byCourse[c.ID]
	}
	return courses, nil
}

// LoadCourses implements exercise.Source
func (s *CatalogStore) LoadCourses(ctx context.Context) ([]*domain.Course, error) {
	return s.ListCourses(ctx)
}

// DeleteCourse removes a course and its exercises
func (s *CatalogStore) DeleteCourse(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	return nil
}

// exercises loads exercises grouped by course, each group in course order.
func (s *CatalogStore) exercises(ctx context.Context, where string, args ...any) (map[string][]*domain.Exercise, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT course_id, id, title, description, lesson, language, difficulty,
			initial_code, solution, hint, use_multi_tab, base_html, editable_html, solution_html
		FROM exercises `+where+` ORDER BY course_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]*domain.Exercise)
	for rows.Next() {
		var (
			ex               domain.Exercise
			lang, difficulty string
		)
		err := rows.Scan(&ex.CourseID, &ex.ID, &ex.Title, &ex.Description, &ex.Lesson, &lang, &difficulty,
			&ex.InitialCode, &ex.Solution, &ex.Hint, &ex.UseMultiTab, &ex.BaseHTML, &ex.EditableHTML, &ex.SolutionHTML)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		ex.Language = domain.Language(lang)
		ex.Difficulty = domain.Difficulty(difficulty)
		grouped[ex.CourseID] = append(grouped[ex.CourseID], &ex)
	}
	return grouped, rows.Err()
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var c domain.Course
	var lang string
	if err := row.Scan(&c.ID, &c.Title, &lang, &c.Description, &c.Icon, &c.Color); err != nil {
		return nil, err
	}
	c.Language = domain.Language(lang)
	return &c, nil
}
