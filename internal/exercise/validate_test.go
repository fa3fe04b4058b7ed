package exercise

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/ipssi/codequest/internal/domain"
)

func validCourse() *domain.Course {
	return &domain.Course{
		ID:       "html",
		Title:    "HTML",
		Language: domain.LanguageHTML,
		Exercises: []*domain.Exercise{
			{ID: 1, CourseID: "html", Title: "Title", Language: domain.LanguageHTML, Solution: "<h1>x</h1>"},
			{ID: 2, CourseID: "html", Title: "Para", Language: domain.LanguageHTML, Solution: "<p>x</p>"},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validCourse()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	c := validCourse()
	c.Exercises[0].Solution = ""
	c.Exercises[1].ID = 1
	c.Exercises[1].Language = "ruby"
	c.Exercises = append(c.Exercises, &domain.Exercise{
		ID:          3,
		CourseID:    "html",
		Title:       "Multi",
		Language:    domain.LanguageHTML,
		Solution:    "<p>x</p>",
		UseMultiTab: true,
	})

	err := Validate(c)
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("Validate() error = %v; want *multierror.Error", err)
	}
	// missing solution, unsupported language, duplicate id, multi-file
	// language, missing base html
	if got := len(merr.Errors); got != 5 {
		t.Errorf("len(Errors) = %d; want 5: %v", got, merr)
	}
	if !errors.Is(err, domain.ErrUnsupportedLanguage) {
		t.Error("expected ErrUnsupportedLanguage in the chain")
	}
}

func TestValidate_EmptyCourse(t *testing.T) {
	err := Validate(&domain.Course{ID: "x", Language: domain.LanguageCSS})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Validate() error = %v; want ErrInvalidInput", err)
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"html", "css", "javascript", "python"}
	tests := []struct {
		name string
		want string
	}{
		{"pyhton", "python"},
		{"javscript", "javascript"},
		{"htm", "html"},
		{"rust-advanced", ""},
	}
	for _, tt := range tests {
		if got := suggest(tt.name, candidates); got != tt.want {
			t.Errorf("suggest(%q) = %q; want %q", tt.name, got, tt.want)
		}
	}
}

type memoryStore struct {
	courses map[string]*domain.Course
	failOn  string
}

func (m *memoryStore) ImportCourse(_ context.Context, c *domain.Course) error {
	if c.ID == m.failOn {
		return errors.New("write failed")
	}
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) ListCourses(context.Context) ([]*domain.Course, error) {
	var out []*domain.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryStore) GetCourse(_ context.Context, id string) (*domain.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return c, nil
}

func (m *memoryStore) LoadCourses(ctx context.Context) ([]*domain.Course, error) {
	return m.ListCourses(ctx)
}

type staticSource []*domain.Course

func (s staticSource) LoadCourses(context.Context) ([]*domain.Course, error) {
	return s, nil
}

func TestImport(t *testing.T) {
	store := &memoryStore{courses: map[string]*domain.Course{}}

	n, err := Import(context.Background(), staticSource{validCourse()}, store)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Import() = %d; want 1", n)
	}
	if _, err := store.GetCourse(context.Background(), "html"); err != nil {
		t.Errorf("course not stored: %v", err)
	}
}

func TestImport_RejectsInvalidBeforeWriting(t *testing.T) {
	store := &memoryStore{courses: map[string]*domain.Course{}}
	bad := validCourse()
	bad.ID = "bad"
	bad.Exercises[0].Solution = ""

	if _, err := Import(context.Background(), staticSource{validCourse(), bad}, store); err == nil {
		t.Fatal("Import() should fail on an invalid course")
	}
	if len(store.courses) != 0 {
		t.Errorf("store has %d courses; want none written", len(store.courses))
	}
}
