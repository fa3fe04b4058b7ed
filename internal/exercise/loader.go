package exercise

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ipssi/codequest/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// CourseFile represents the YAML structure of a course.yaml file
type CourseFile struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Language    string   `yaml:"language"`
	Description string   `yaml:"description"`
	Icon        string   `yaml:"icon"`
	Color       string   `yaml:"color"`
	Position    int      `yaml:"position"`
	Exercises   []string `yaml:"exercises"`
}

// ExerciseFile represents the YAML structure of an exercise file
type ExerciseFile struct {
	ID           int    `yaml:"id"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Lesson       string `yaml:"lesson"`
	Language     string `yaml:"language"`
	Difficulty   string `yaml:"difficulty"`
	InitialCode  string `yaml:"initial_code"`
	Solution     string `yaml:"solution"`
	Hint         string `yaml:"hint"`
	UseMultiTab  bool   `yaml:"use_multi_tab"`
	BaseHTML     string `yaml:"base_html"`
	EditableHTML bool   `yaml:"editable_html"`
	SolutionHTML string `yaml:"solution_html"`
}

// Source provides the courses of a catalog
type Source interface {
	LoadCourses(ctx context.Context) ([]*domain.Course, error)
}

// Loader reads a course catalog laid out as <root>/<course>/course.yaml plus
// one YAML file per exercise
type Loader struct {
	fs       afero.Fs
	basePath string
}

// NewLoader creates a loader reading from fs under basePath
func NewLoader(fs afero.Fs, basePath string) *Loader {
	return &Loader{fs: fs, basePath: basePath}
}

// NewDirLoader creates a loader for a directory on the local filesystem
func NewDirLoader(basePath string) *Loader {
	return NewLoader(afero.NewOsFs(), basePath)
}

// BasePath returns the catalog root
func (l *Loader) BasePath() string {
	return l.basePath
}

// LoadCourse loads a course and its exercises from its directory
func (l *Loader) LoadCourse(courseID string) (*domain.Course, error) {
	course, _, err := l.loadCourse(courseID)
	return course, err
}

func (l *Loader) loadCourse(courseID string) (*domain.Course, int, error) {
	coursePath := path.Join(l.basePath, courseID, "course.yaml")

	data, err := afero.ReadFile(l.fs, coursePath)
	if err != nil {
		return nil, 0, fmt.Errorf("read course file: %w", err)
	}

	var cf CourseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, 0, fmt.Errorf("parse course file %s: %w", coursePath, err)
	}
	if cf.ID == "" {
		cf.ID = courseID
	}

	course := &domain.Course{
		ID:          cf.ID,
		Title:       cf.Title,
		Language:    parseLanguageLoose(cf.Language),
		Description: cf.Description,
		Icon:        cf.Icon,
		Color:       cf.Color,
		Exercises:   make([]*domain.Exercise, 0, len(cf.Exercises)),
	}

	for _, stem := range cf.Exercises {
		ex, err := l.loadExercise(courseID, stem, course)
		if err != nil {
			return nil, 0, fmt.Errorf("load exercise %s/%s: %w", courseID, stem, err)
		}
		course.Exercises = append(course.Exercises, ex)
	}

	return course, cf.Position, nil
}

func (l *Loader) loadExercise(courseDir, stem string, course *domain.Course) (*domain.Exercise, error) {
	exercisePath := path.Join(l.basePath, courseDir, strings.TrimSuffix(stem, ".yaml")+".yaml")

	data, err := afero.ReadFile(l.fs, exercisePath)
	if err != nil {
		return nil, fmt.Errorf("read exercise file: %w", err)
	}

	var ef ExerciseFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("parse exercise file: %w", err)
	}

	difficulty, err := domain.ParseDifficulty(ef.Difficulty)
	if err != nil {
		return nil, err
	}

	lang := course.Language
	if ef.Language != "" {
		lang = parseLanguageLoose(ef.Language)
	}

	return &domain.Exercise{
		ID:           ef.ID,
		CourseID:     course.ID,
		Title:        ef.Title,
		Description:  ef.Description,
		Lesson:       ef.Lesson,
		Language:     lang,
		InitialCode:  ef.InitialCode,
		Solution:     ef.Solution,
		Hint:         ef.Hint,
		Difficulty:   difficulty,
		UseMultiTab:  ef.UseMultiTab,
		BaseHTML:     ef.BaseHTML,
		EditableHTML: ef.EditableHTML,
		SolutionHTML: ef.SolutionHTML,
	}, nil
}

// LoadAllCourses loads every course directory under the catalog root, ordered
// by position and then by ID
func (l *Loader) LoadAllCourses() ([]*domain.Course, error) {
	entries, err := afero.ReadDir(l.fs, l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read catalog directory: %w", err)
	}

	type positioned struct {
		course   *domain.Course
		position int
	}
	var found []positioned

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		coursePath := path.Join(l.basePath, entry.Name(), "course.yaml")
		if ok, _ := afero.Exists(l.fs, coursePath); !ok {
			continue
		}

		course, position, err := l.loadCourse(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("load course %s: %w", entry.Name(), err)
		}
		found = append(found, positioned{course: course, position: position})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].position != found[j].position {
			return found[i].position < found[j].position
		}
		return found[i].course.ID < found[j].course.ID
	})

	courses := make([]*domain.Course, len(found))
	for i, p := range found {
		courses[i] = p.course
	}
	return courses, nil
}

// LoadCourses implements Source
func (l *Loader) LoadCourses(ctx context.Context) ([]*domain.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.LoadAllCourses()
}

// parseLanguageLoose keeps unknown languages as-is so Validate can report them
// alongside the other problems of a course
func parseLanguageLoose(s string) domain.Language {
	lang, err := domain.ParseLanguage(s)
	if err != nil {
		return domain.Language(strings.ToLower(strings.TrimSpace(s)))
	}
	return lang
}
