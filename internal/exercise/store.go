package exercise

import (
	"context"
	"fmt"

	"github.com/ipssi/codequest/internal/domain"
)

// Store persists a course catalog in a database. Stores are also a Source so
// a Registry can be served from them.
type Store interface {
	Source
	ImportCourse(ctx context.Context, course *domain.Course) error
	ListCourses(ctx context.Context) ([]*domain.Course, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
}

// Import validates every course of src and writes them to store. Courses
// that are already stored are replaced.
func Import(ctx context.Context, src Source, store Store) (int, error) {
	courses, err := src.LoadCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("load courses: %w", err)
	}

	for _, c := range courses {
		if err := Validate(c); err != nil {
			return 0, fmt.Errorf("invalid course %s: %w", c.ID, err)
		}
	}

	for i, c := range courses {
		if err := store.ImportCourse(ctx, c); err != nil {
			return i, fmt.Errorf("import course %s: %w", c.ID, err)
		}
	}
	return len(courses), nil
}
