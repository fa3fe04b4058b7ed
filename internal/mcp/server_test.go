package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/exercise"
	"github.com/ipssi/codequest/internal/session"
)

// setupTestServer creates an MCP server over the bundled courses
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	registry := exercise.NewRegistry(exercise.NewDirLoader("../../courses"))
	if err := registry.Load(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	sessions := session.NewService(session.NewMemoryStore(), registry, checker.NewEvaluator(nil))
	return NewServer(Config{Sessions: sessions, Registry: registry, Version: "test"})
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)

	if server.GetMCPServer() == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if server.sessions == nil || server.registry == nil {
		t.Fatal("expected services to be wired")
	}
}

func TestServerConfig_Empty(t *testing.T) {
	if NewServer(Config{}) == nil {
		t.Fatal("expected non-nil server even with empty config")
	}
}

func TestHandleCourses(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	out, err := server.handleCourses(ctx, CoursesInput{})
	if err != nil {
		t.Fatalf("handleCourses() error = %v", err)
	}
	var ids []string
	for _, c := range out.Courses {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"html", "css", "javascript", "python"}, ids); diff != "" {
		t.Errorf("course order mismatch (-want +got):\n%s", diff)
	}

	out, err = server.handleCourses(ctx, CoursesInput{Course: "python"})
	if err != nil {
		t.Fatalf("handleCourses(python) error = %v", err)
	}
	if len(out.Courses) != 1 || out.Courses[0].Exercises[0].Key != "python/1" {
		t.Errorf("python listing = %+v", out.Courses)
	}

	if _, err := server.handleCourses(ctx, CoursesInput{Course: "rust"}); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Errorf("unknown course error = %v, want ErrCourseNotFound", err)
	}
}

func TestSessionTools(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	start, err := server.handleStart(ctx, StartInput{Exercise: "python/1"})
	if err != nil {
		t.Fatalf("handleStart() error = %v", err)
	}
	if start.Exercise != "python/1" || start.Code != "# Print your message\n" {
		t.Errorf("start = %+v", start)
	}
	id := start.SessionID

	check, err := server.handleCheck(ctx, CheckInput{SessionID: id, Code: "x = 1", Locale: "fr"})
	if err != nil {
		t.Fatalf("handleCheck() error = %v", err)
	}
	if check.Matched {
		t.Error("expected a failed check")
	}
	if diff := cmp.Diff([]string{"❌ Tu dois utiliser print() pour afficher"}, check.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	check, err = server.handleCheck(ctx, CheckInput{SessionID: id, Code: `print("Bonjour IPSSI")`})
	if err != nil {
		t.Fatalf("handleCheck() error = %v", err)
	}
	if !check.Matched || check.Next != "python/2" || len(check.Messages) != 0 {
		t.Errorf("matching check = %+v", check)
	}

	hint, err := server.handleHint(ctx, SessionInput{SessionID: id})
	if err != nil {
		t.Fatalf("handleHint() error = %v", err)
	}
	if !hint.Visible || hint.Hint == "" {
		t.Errorf("hint = %+v", hint)
	}
	hint, _ = server.handleHint(ctx, SessionInput{SessionID: id})
	if hint.Visible || hint.Hint != "" {
		t.Errorf("second toggle should hide the hint: %+v", hint)
	}

	status, err := server.handleStatus(ctx, SessionInput{SessionID: id})
	if err != nil {
		t.Fatalf("handleStatus() error = %v", err)
	}
	if status.CheckCount != 2 || !status.IsCorrect {
		t.Errorf("status = %+v", status)
	}

	reset, err := server.handleReset(ctx, SessionInput{SessionID: id})
	if err != nil {
		t.Fatalf("handleReset() error = %v", err)
	}
	if reset.IsCorrect || reset.Code != start.Code {
		t.Errorf("reset = %+v", reset)
	}

	sol, err := server.handleSolution(ctx, SolutionInput{SessionID: id})
	if err != nil {
		t.Fatalf("handleSolution() error = %v", err)
	}
	if sol.Message != "💡 Solution revealed! Take the time to understand it." {
		t.Errorf("solution message = %q", sol.Message)
	}

	if _, err := server.handleStop(ctx, SessionInput{SessionID: id}); err != nil {
		t.Fatalf("handleStop() error = %v", err)
	}
	if _, err := server.handleStatus(ctx, SessionInput{SessionID: id}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("status after stop error = %v, want ErrSessionNotFound", err)
	}
}

func TestHandleStart_Errors(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		key  string
		want error
	}{
		{"python", domain.ErrInvalidInput},
		{"python/99", domain.ErrExerciseNotFound},
		{"rust/1", domain.ErrCourseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if _, err := server.handleStart(ctx, StartInput{Exercise: tt.key}); !errors.Is(err, tt.want) {
				t.Errorf("handleStart(%q) error = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}
