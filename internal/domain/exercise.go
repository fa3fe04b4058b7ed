package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBaseHTML is the markup shown in the HTML tab of a multi-file
// exercise that does not provide its own.
const DefaultBaseHTML = "<div class=\"container\">\n  <!-- Ton HTML ici -->\n</div>"

// Exercise is a single coding task with a reference solution
type Exercise struct {
	ID          int        `json:"id"`
	CourseID    string     `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Lesson      string     `json:"lesson,omitempty"`
	Language    Language   `json:"language"`
	InitialCode string     `json:"initial_code"`
	Solution    string     `json:"solution"`
	Hint        string     `json:"hint,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`

	// Multi-file mode: the learner edits CSS or JavaScript against a
	// separate HTML document. Only the main code is ever compared.
	UseMultiTab  bool   `json:"use_multi_tab,omitempty"`
	BaseHTML     string `json:"base_html,omitempty"`
	EditableHTML bool   `json:"editable_html,omitempty"`
	SolutionHTML string `json:"solution_html,omitempty"`
}

// Key returns the "<course>/<id>" identity of the exercise
func (e *Exercise) Key() string {
	return ExerciseKey(e.CourseID, e.ID)
}

// StartingHTML returns the HTML tab content a multi-file session starts with
func (e *Exercise) StartingHTML() string {
	if e.BaseHTML != "" {
		return e.BaseHTML
	}
	return DefaultBaseHTML
}

// RevealedHTML returns the HTML tab content shown with the solution. It is
// empty when the exercise defines neither SolutionHTML nor BaseHTML, in which
// case the HTML tab keeps whatever the learner wrote.
func (e *Exercise) RevealedHTML() string {
	if e.SolutionHTML != "" {
		return e.SolutionHTML
	}
	return e.BaseHTML
}

// Course is an ordered collection of exercises in one language. The order of
// Exercises is the navigation order.
type Course struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Language    Language    `json:"language"`
	Description string      `json:"description,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Color       string      `json:"color,omitempty"`
	Exercises   []*Exercise `json:"exercises"`
}

// Exercise returns the exercise with the given ID, or nil
func (c *Course) Exercise(id int) *Exercise {
	for _, ex := range c.Exercises {
		if ex.ID == id {
			return ex
		}
	}
	return nil
}

// Next returns the exercise following id in course order. It returns nil when
// id is the last exercise or is not part of the course.
func (c *Course) Next(id int) *Exercise {
	for i, ex := range c.Exercises {
		if ex.ID == id {
			if i+1 < len(c.Exercises) {
				return c.Exercises[i+1]
			}
			return nil
		}
	}
	return nil
}

// ExerciseKey formats an exercise identity as "<course>/<id>"
func ExerciseKey(courseID string, id int) string {
	return fmt.Sprintf("%s/%d", courseID, id)
}

// ParseExerciseKey splits "<course>/<id>" into its parts
func ParseExerciseKey(key string) (string, int, error) {
	courseID, rawID, ok := strings.Cut(key, "/")
	if !ok || courseID == "" {
		return "", 0, fmt.Errorf("%w: exercise key must look like <course>/<id>, got %q", ErrInvalidInput, key)
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return "", 0, fmt.Errorf("%w: exercise id %q is not a number", ErrInvalidInput, rawID)
	}
	return courseID, id, nil
}
