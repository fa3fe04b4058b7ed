package exercise

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ipssi/codequest/internal/domain"
)

// Validate checks a course for every problem that would make its exercises
// unusable and reports them all at once
func Validate(course *domain.Course) error {
	var result *multierror.Error

	if course.ID == "" {
		result = multierror.Append(result, fmt.Errorf("%w: course has no id", domain.ErrInvalidInput))
	}
	if !course.Language.IsValid() {
		result = multierror.Append(result, fmt.Errorf("course %s: %w: %q", course.ID, domain.ErrUnsupportedLanguage, course.Language))
	}
	if len(course.Exercises) == 0 {
		result = multierror.Append(result, fmt.Errorf("course %s: %w: no exercises", course.ID, domain.ErrInvalidInput))
	}

	seen := make(map[int]bool, len(course.Exercises))
	for _, ex := range course.Exercises {
		if err := validateExercise(ex); err != nil {
			result = multierror.Append(result, err)
		}
		if seen[ex.ID] {
			result = multierror.Append(result, fmt.Errorf("exercise %s: %w: duplicate id", ex.Key(), domain.ErrInvalidInput))
		}
		seen[ex.ID] = true
	}

	return result.ErrorOrNil()
}

func validateExercise(ex *domain.Exercise) error {
	var result *multierror.Error
	key := ex.Key()

	if ex.ID <= 0 {
		result = multierror.Append(result, fmt.Errorf("exercise %s: %w: id must be positive", key, domain.ErrInvalidInput))
	}
	if ex.Title == "" {
		result = multierror.Append(result, fmt.Errorf("exercise %s: %w: missing title", key, domain.ErrInvalidInput))
	}
	if !ex.Language.IsValid() {
		result = multierror.Append(result, fmt.Errorf("exercise %s: %w: %q", key, domain.ErrUnsupportedLanguage, ex.Language))
	}
	if ex.Solution == "" {
		result = multierror.Append(result, fmt.Errorf("exercise %s: %w: missing solution", key, domain.ErrInvalidInput))
	}
	if ex.UseMultiTab {
		if ex.Language != domain.LanguageCSS && ex.Language != domain.LanguageJavaScript {
			result = multierror.Append(result, fmt.Errorf("exercise %s: %w: multi-file mode needs css or javascript", key, domain.ErrInvalidInput))
		}
		if ex.BaseHTML == "" {
			result = multierror.Append(result, fmt.Errorf("exercise %s: %w: multi-file mode needs base_html", key, domain.ErrInvalidInput))
		}
	}

	return result.ErrorOrNil()
}
