package exercise

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipssi/codequest/internal/domain"
)

// Registry provides access to courses and exercises
type Registry struct {
	source  Source
	mu      sync.RWMutex
	order   []string
	courses map[string]*domain.Course
	loaded  bool
}

// NewRegistry creates a new course registry
func NewRegistry(source Source) *Registry {
	return &Registry{
		source:  source,
		courses: make(map[string]*domain.Course),
	}
}

// Load loads and validates every course. Nothing is replaced if any course is
// invalid.
func (r *Registry) Load(ctx context.Context) error {
	courses, err := r.source.LoadCourses(ctx)
	if err != nil {
		return fmt.Errorf("load courses: %w", err)
	}

	order := make([]string, 0, len(courses))
	byID := make(map[string]*domain.Course, len(courses))
	for _, c := range courses {
		if err := Validate(c); err != nil {
			return fmt.Errorf("invalid course %s: %w", c.ID, err)
		}
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("%w: duplicate course %s", domain.ErrInvalidInput, c.ID)
		}
		order = append(order, c.ID)
		byID[c.ID] = c
	}

	r.mu.Lock()
	r.order = order
	r.courses = byID
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// Reload reloads all courses (useful while editing the catalog)
func (r *Registry) Reload(ctx context.Context) error {
	return r.Load(ctx)
}

// Loaded reports whether Load has succeeded at least once
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// ListCourses returns all courses in catalog order
func (r *Registry) ListCourses() []*domain.Course {
	r.mu.RLock()
	defer r.mu.RUnlock()

	courses := make([]*domain.Course, 0, len(r.order))
	for _, id := range r.order {
		courses = append(courses, r.courses[id])
	}
	return courses
}

// GetCourse returns a course by ID
func (r *Registry) GetCourse(id string) (*domain.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.course(id)
}

func (r *Registry) course(id string) (*domain.Course, error) {
	course, ok := r.courses[id]
	if !ok {
		if s := suggest(id, r.order); s != "" {
			return nil, fmt.Errorf("%w: %s (did you mean %q?)", domain.ErrCourseNotFound, id, s)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	return course, nil
}

// GetExercise returns an exercise by course and ID
func (r *Registry) GetExercise(courseID string, id int) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	course, err := r.course(courseID)
	if err != nil {
		return nil, err
	}
	ex := course.Exercise(id)
	if ex == nil {
		return nil, exerciseNotFound(course, id)
	}
	return ex, nil
}

// GetExerciseByKey returns an exercise by its "<course>/<id>" key
func (r *Registry) GetExerciseByKey(key string) (*domain.Exercise, error) {
	courseID, id, err := domain.ParseExerciseKey(key)
	if err != nil {
		return nil, err
	}
	return r.GetExercise(courseID, id)
}

// NextExercise returns the exercise after id in course order.
// Returns nil if the current exercise is the last one.
func (r *Registry) NextExercise(courseID string, id int) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	course, err := r.course(courseID)
	if err != nil {
		return nil, err
	}
	if course.Exercise(id) == nil {
		return nil, exerciseNotFound(course, id)
	}
	return course.Next(id), nil
}

// ExercisesByDifficulty returns exercises of every course with the given
// difficulty, in catalog order
func (r *Registry) ExercisesByDifficulty(difficulty domain.Difficulty) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, id := range r.order {
		for _, ex := range r.courses[id].Exercises {
			if ex.Difficulty == difficulty {
				exercises = append(exercises, ex)
			}
		}
	}
	return exercises
}

// Stats returns statistics about loaded courses
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		CourseCount:  len(r.courses),
		ByDifficulty: make(map[string]int),
		ByLanguage:   make(map[string]int),
	}

	for _, c := range r.courses {
		stats.ExerciseCount += len(c.Exercises)
		for _, ex := range c.Exercises {
			stats.ByDifficulty[string(ex.Difficulty)]++
			stats.ByLanguage[string(ex.Language)]++
		}
	}

	return stats
}

// RegistryStats holds statistics about the registry
type RegistryStats struct {
	CourseCount   int            `json:"course_count"`
	ExerciseCount int            `json:"exercise_count"`
	ByDifficulty  map[string]int `json:"by_difficulty"`
	ByLanguage    map[string]int `json:"by_language"`
}
