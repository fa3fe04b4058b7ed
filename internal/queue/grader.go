package queue

import (
	"context"

	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/domain"
)

// ExerciseCatalog resolves the exercise a job refers to
type ExerciseCatalog interface {
	GetExercise(courseID string, id int) (*domain.Exercise, error)
}

// NewGrader returns a JobHandler that compares each submission with the
// solution of its exercise. An unknown exercise is a handler error and ends
// up as a failed outcome.
func NewGrader(catalog ExerciseCatalog, evaluator checker.Evaluator, observe func(*domain.Exercise, checker.Result)) JobHandler {
	return func(ctx context.Context, job *CheckJob) (*CheckOutcome, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ex, err := catalog.GetExercise(job.CourseID, job.ExerciseID)
		if err != nil {
			return nil, err
		}

		ev := evaluator.WithLocale(job.Locale)
		result := ev.Evaluate(ex, job.Code)
		if observe != nil {
			observe(ex, result)
		}

		return &CheckOutcome{
			Status:   StatusGraded,
			Matched:  result.Matched,
			Messages: result.Messages,
			Output:   ev.Report(result),
		}, nil
	}
}
