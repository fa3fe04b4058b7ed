package local

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/exercise"
)

const coursesCollection = "courses"

// courseDocument is one stored course. Position fixes the catalog order.
type courseDocument struct {
	Position int            `json:"position"`
	Course   *domain.Course `json:"course"`
}

// CatalogStore keeps the course catalog as one JSON document per course
type CatalogStore struct {
	docs *Store
	mu   sync.Mutex
}

var _ exercise.Store = (*CatalogStore)(nil)

// NewCatalogStore creates a catalog store on top of a document store
func NewCatalogStore(docs *Store) *CatalogStore {
	return &CatalogStore{docs: docs}
}

// ImportCourse writes a course, replacing any stored version. A re-imported
// course keeps its position.
func (s *CatalogStore) ImportCourse(ctx context.Context, course *domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.documents(ctx)
	if err != nil {
		return err
	}

	position := 1
	for _, d := range docs {
		if d.Course.ID == course.ID {
			position = d.Position
			break
		}
		if d.Position >= position {
			position = d.Position + 1
		}
	}

	if err := s.docs.Save(coursesCollection, course.ID, courseDocument{Position: position, Course: course}); err != nil {
		return fmt.Errorf("save course %s: %w", course.ID, err)
	}
	return nil
}

// GetCourse retrieves a course with its exercises
func (s *CatalogStore) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	var doc courseDocument
	if err := s.docs.Load(coursesCollection, id, &doc); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
		}
		return nil, err
	}
	return doc.Course, nil
}

// ListCourses returns every course in catalog order
func (s *CatalogStore) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	docs, err := s.documents(ctx)
	if err != nil {
		return nil, err
	}
	courses := make([]*domain.Course, 0, len(docs))
	for _, d := range docs {
		courses = append(courses, d.Course)
	}
	return courses, nil
}

// LoadCourses implements exercise.Source
func (s *CatalogStore) LoadCourses(ctx context.Context) ([]*domain.Course, error) {
	return s.ListCourses(ctx)
}

// DeleteCourse removes a course
func (s *CatalogStore) DeleteCourse(ctx context.Context, id string) error {
	if err := s.docs.Delete(coursesCollection, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
		}
		return err
	}
	return nil
}

// documents loads every course document sorted by position
func (s *CatalogStore) documents(ctx context.Context) ([]courseDocument, error) {
	ids, err := s.docs.List(coursesCollection)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	docs := make([]courseDocument, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var doc courseDocument
		if err := s.docs.Load(coursesCollection, id, &doc); err != nil {
			return nil, fmt.Errorf("load course %s: %w", id, err)
		}
		if doc.Course == nil {
			return nil, fmt.Errorf("course document %s is empty", id)
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Position < docs[j].Position
	})
	return docs, nil
}
