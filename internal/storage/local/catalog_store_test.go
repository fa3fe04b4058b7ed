package local

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/exercise"
	"github.com/spf13/afero"
)

func newTestCatalog(t *testing.T) (*CatalogStore, afero.Fs) {
	t.Helper()
	docs, fsys := newTestStore(t)
	return NewCatalogStore(docs), fsys
}

func course(id string, exerciseIDs ...int) *domain.Course {
	c := &domain.Course{ID: id, Title: id + " course", Language: domain.LanguageHTML}
	for _, n := range exerciseIDs {
		c.Exercises = append(c.Exercises, &domain.Exercise{
			ID:          n,
			CourseID:    id,
			Title:       "exercise",
			Language:    domain.LanguageHTML,
			Solution:    "<h1>Bonjour</h1>",
			Difficulty:  domain.DifficultyEasy,
			InitialCode: "<!-- here -->\n",
		})
	}
	return c
}

func TestCatalogStore_ImportAndGet(t *testing.T) {
	store, _ := newTestCatalog(t)
	ctx := context.Background()

	want := course("html", 1, 2)
	want.Exercises[1].UseMultiTab = true
	want.Exercises[1].BaseHTML = "<div></div>"

	if err := store.ImportCourse(ctx, want); err != nil {
		t.Fatalf("ImportCourse() error = %v", err)
	}

	got, err := store.GetCourse(ctx, "html")
	if err != nil {
		t.Fatalf("GetCourse() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("course mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogStore_GetCourse_NotFound(t *testing.T) {
	store, _ := newTestCatalog(t)

	for _, id := range []string{"missing", "../etc"} {
		if _, err := store.GetCourse(context.Background(), id); !errors.Is(err, domain.ErrCourseNotFound) {
			t.Errorf("GetCourse(%q) error = %v, want ErrCourseNotFound", id, err)
		}
	}
}

func TestCatalogStore_KeepsImportOrder(t *testing.T) {
	store, _ := newTestCatalog(t)
	ctx := context.Background()

	for _, c := range []*domain.Course{course("python", 1), course("css", 1), course("html", 1)} {
		if err := store.ImportCourse(ctx, c); err != nil {
			t.Fatalf("ImportCourse(%s) error = %v", c.ID, err)
		}
	}
	// Re-importing keeps the original position
	if err := store.ImportCourse(ctx, course("python", 1, 2)); err != nil {
		t.Fatalf("re-import error = %v", err)
	}

	courses, err := store.ListCourses(ctx)
	if err != nil {
		t.Fatalf("ListCourses() error = %v", err)
	}
	var ids []string
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"python", "css", "html"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if len(courses[0].Exercises) != 2 {
		t.Errorf("re-imported course has %d exercises, want 2", len(courses[0].Exercises))
	}
}

func TestCatalogStore_DeleteCourse(t *testing.T) {
	store, _ := newTestCatalog(t)
	ctx := context.Background()

	if err := store.ImportCourse(ctx, course("html", 1)); err != nil {
		t.Fatalf("ImportCourse() error = %v", err)
	}
	if err := store.DeleteCourse(ctx, "html"); err != nil {
		t.Fatalf("DeleteCourse() error = %v", err)
	}
	if err := store.DeleteCourse(ctx, "html"); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Errorf("second DeleteCourse() error = %v, want ErrCourseNotFound", err)
	}
}

func TestCatalogStore_CorruptDocument(t *testing.T) {
	store, fsys := newTestCatalog(t)

	if err := afero.WriteFile(fsys, "/data/courses/broken.json", []byte("{"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.ListCourses(context.Background()); err == nil {
		t.Error("expected error for a corrupt course document")
	}
}

func TestCatalogStore_ServesRegistry(t *testing.T) {
	store, _ := newTestCatalog(t)
	ctx := context.Background()

	files := exercise.NewDirLoader("../../../courses")
	n, err := exercise.Import(ctx, files, store)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 4 {
		t.Errorf("imported %d courses, want 4", n)
	}

	fromStore := exercise.NewRegistry(store)
	if err := fromStore.Load(ctx); err != nil {
		t.Fatalf("Load() from store error = %v", err)
	}
	fromFiles := exercise.NewRegistry(files)
	if err := fromFiles.Load(ctx); err != nil {
		t.Fatalf("Load() from files error = %v", err)
	}

	if diff := cmp.Diff(fromFiles.ListCourses(), fromStore.ListCourses()); diff != "" {
		t.Errorf("catalog mismatch (-files +store):\n%s", diff)
	}
}
