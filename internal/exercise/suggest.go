package exercise

import (
	"fmt"

	"github.com/agext/levenshtein"
	"github.com/ipssi/codequest/internal/domain"
)

// maxSuggestDistance bounds how far a typo may be from a known ID
const maxSuggestDistance = 3

// suggest returns the candidate closest to name, or "" if none is close enough
func suggest(name string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, c := range candidates {
		d := levenshtein.Distance(name, c, nil)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// nearestExercise returns the exercise of course whose ID is closest to id,
// or nil if none is within maxSuggestDistance. Ties go to the lower ID.
func nearestExercise(course *domain.Course, id int) *domain.Exercise {
	var best *domain.Exercise
	bestDist := maxSuggestDistance + 1
	for _, ex := range course.Exercises {
		d := max(ex.ID-id, id-ex.ID)
		if d < bestDist || (d == bestDist && best != nil && ex.ID < best.ID) {
			best, bestDist = ex, d
		}
	}
	return best
}

// exerciseNotFound builds the lookup error for an unknown exercise of course
func exerciseNotFound(course *domain.Course, id int) error {
	key := domain.ExerciseKey(course.ID, id)
	if near := nearestExercise(course, id); near != nil {
		return fmt.Errorf("%w: %s (did you mean %q?)", domain.ErrExerciseNotFound, key, near.Key())
	}
	return fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, key)
}
