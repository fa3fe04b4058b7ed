package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

type testDoc struct {
	Name  string   `json:"name"`
	Value int      `json:"value"`
	Tags  []string `json:"tags,omitempty"`
}

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store, err := NewStore(fsys, "/data")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store, fsys
}

func TestNewDirStore_CreatesDirectory(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "subdir", "nested")

	if _, err := NewDirStore(newDir); err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	info, err := os.Stat(newDir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestStore_Save_Load(t *testing.T) {
	store, fsys := newTestStore(t)

	want := testDoc{Name: "html/1", Value: 42, Tags: []string{"a", "b"}}
	if err := store.Save("sessions", "abc", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var got testDoc
	if err := store.Load("sessions", "abc", &got); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	if ok, _ := afero.Exists(fsys, "/data/sessions/abc.json.tmp"); ok {
		t.Error("temporary file left behind")
	}
}

func TestStore_Overwrite(t *testing.T) {
	store, _ := newTestStore(t)

	_ = store.Save("c", "id", testDoc{Name: "first", Value: 1})
	_ = store.Save("c", "id", testDoc{Name: "second"})

	var got testDoc
	if err := store.Load("c", "id", &got); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Name != "second" || got.Value != 0 {
		t.Errorf("Load() = %+v; want overwritten document", got)
	}
}

func TestStore_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	var doc testDoc
	if err := store.Load("c", "missing", &doc); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v; want ErrNotFound", err)
	}
	if err := store.Delete("c", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v; want ErrNotFound", err)
	}
	if store.Exists("c", "missing") {
		t.Error("Exists() = true for a missing document")
	}
}

func TestStore_InvalidID(t *testing.T) {
	store, _ := newTestStore(t)

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		if err := store.Save("c", id, testDoc{}); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Save(%q) error = %v; want ErrInvalidID", id, err)
		}
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)

	_ = store.Save("c", "id", testDoc{Name: "x"})
	if !store.Exists("c", "id") {
		t.Fatal("Exists() = false after Save")
	}
	if err := store.Delete("c", "id"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists("c", "id") {
		t.Error("Exists() = true after Delete")
	}
}

func TestStore_List(t *testing.T) {
	store, fsys := newTestStore(t)

	for _, id := range []string{"b", "a", "c"} {
		_ = store.Save("c", id, testDoc{Name: id})
	}
	// Non-JSON files and directories are ignored
	_ = afero.WriteFile(fsys, "/data/c/notes.txt", []byte("x"), 0644)
	_ = fsys.MkdirAll("/data/c/nested", 0755)

	ids, err := store.List("c")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	empty, err := store.List("nothing-here")
	if err != nil {
		t.Fatalf("List(empty) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("List(empty) = %v; want empty", empty)
	}
}

func TestStore_Concurrency(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("doc-%d", i)
			if err := store.Save("c", id, testDoc{Value: i}); err != nil {
				t.Errorf("Save(%s) error = %v", id, err)
				return
			}
			var got testDoc
			if err := store.Load("c", id, &got); err != nil || got.Value != i {
				t.Errorf("Load(%s) = %+v, %v", id, got, err)
			}
		}(i)
	}
	wg.Wait()

	ids, _ := store.List("c")
	if len(ids) != 20 {
		t.Errorf("List() returned %d ids; want 20", len(ids))
	}
}
