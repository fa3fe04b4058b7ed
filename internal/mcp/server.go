package mcp

import (
	"context"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/exercise"
	"github.com/ipssi/codequest/internal/session"
)

// Server wraps the MCP server with CodeQuest functionality
type Server struct {
	mcpServer *server.Server
	sessions  session.SessionService
	registry  *exercise.Registry
}

// Config contains configuration for the MCP server
type Config struct {
	Sessions session.SessionService
	Registry *exercise.Registry
	Version  string
}

// NewServer creates a new MCP server for CodeQuest
func NewServer(cfg Config) *Server {
	s := &Server{
		sessions: cfg.Sessions,
		registry: cfg.Registry,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "codequest",
		Version: version,
	}, server.WithInstructions(`
CodeQuest checks beginner HTML, CSS, JavaScript and Python exercises against a
reference solution and explains what is missing.

Available tools:
- codequest_courses: List courses and their exercises
- codequest_start: Open an editing session on an exercise (course/id)
- codequest_check: Check code and get feedback
- codequest_hint: Show or hide the exercise hint
- codequest_solution: Reveal the reference solution
- codequest_reset: Restore the starting code
- codequest_status: Show a session
- codequest_stop: End a session
`))

	s.registerTools()

	return s
}

// registerTools registers all CodeQuest MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("codequest_courses").
		Description("List CodeQuest courses in catalog order with their exercises").
		Handler(s.handleCourses)

	s.mcpServer.Tool("codequest_start").
		Description("Start an editing session on an exercise").
		Handler(s.handleStart)

	s.mcpServer.Tool("codequest_check").
		Description("Compare code with the exercise solution and return feedback").
		Handler(s.handleCheck)

	s.mcpServer.Tool("codequest_hint").
		Description("Toggle the exercise hint").
		Handler(s.handleHint)

	s.mcpServer.Tool("codequest_solution").
		Description("Reveal the reference solution. Use only after real attempts.").
		Handler(s.handleSolution)

	s.mcpServer.Tool("codequest_reset").
		Description("Restore the exercise's starting code").
		Handler(s.handleReset)

	s.mcpServer.Tool("codequest_status").
		Description("Get current session state").
		Handler(s.handleStatus)

	s.mcpServer.Tool("codequest_stop").
		Description("End a CodeQuest session").
		Handler(s.handleStop)
}

// Input/Output types for tools

type CoursesInput struct {
	Course string `json:"course,omitempty" jsonschema:"description=Only list this course"`
}

type ExerciseEntry struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
}

type CourseEntry struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Language  string          `json:"language"`
	Exercises []ExerciseEntry `json:"exercises"`
}

type CoursesOutput struct {
	Courses []CourseEntry `json:"courses"`
}

type StartInput struct {
	Exercise string `json:"exercise" jsonschema:"description=Exercise key in format course/id, e.g. python/1"`
}

type StartOutput struct {
	SessionID   string `json:"session_id"`
	Exercise    string `json:"exercise"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Lesson      string `json:"lesson,omitempty"`
	Code        string `json:"code"`
	HTML        string `json:"html,omitempty"`
}

type CheckInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from codequest_start"`
	Code      string `json:"code,omitempty" jsonschema:"description=Code to check; the session code is used when empty"`
	Locale    string `json:"locale,omitempty" jsonschema:"description=Feedback language,enum=en,enum=fr"`
}

type CheckOutput struct {
	Matched  bool     `json:"matched"`
	Messages []string `json:"messages"`
	Output   string   `json:"output"`
	Next     string   `json:"next,omitempty"`
}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from codequest_start"`
}

type HintOutput struct {
	Visible bool   `json:"visible"`
	Hint    string `json:"hint,omitempty"`
}

type SolutionInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from codequest_start"`
	Locale    string `json:"locale,omitempty" jsonschema:"description=Notice language,enum=en,enum=fr"`
}

type SolutionOutput struct {
	Code    string `json:"code"`
	HTML    string `json:"html,omitempty"`
	Message string `json:"message"`
}

type StatusOutput struct {
	SessionID  string `json:"session_id"`
	Exercise   string `json:"exercise"`
	State      string `json:"state"`
	Code       string `json:"code"`
	IsCorrect  bool   `json:"is_correct"`
	CheckCount int    `json:"check_count"`
	HintCount  int    `json:"hint_count"`
}

type StopOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handleCourses(ctx context.Context, input CoursesInput) (CoursesOutput, error) {
	courses := s.registry.ListCourses()
	if input.Course != "" {
		c, err := s.registry.GetCourse(input.Course)
		if err != nil {
			return CoursesOutput{}, err
		}
		courses = []*domain.Course{c}
	}

	out := CoursesOutput{Courses: make([]CourseEntry, 0, len(courses))}
	for _, c := range courses {
		entry := CourseEntry{
			ID:        c.ID,
			Title:     c.Title,
			Language:  string(c.Language),
			Exercises: make([]ExerciseEntry, 0, len(c.Exercises)),
		}
		for _, ex := range c.Exercises {
			entry.Exercises = append(entry.Exercises, ExerciseEntry{
				Key:        ex.Key(),
				Title:      ex.Title,
				Difficulty: string(ex.Difficulty),
			})
		}
		out.Courses = append(out.Courses, entry)
	}
	return out, nil
}

func (s *Server) handleStart(ctx context.Context, input StartInput) (StartOutput, error) {
	ex, err := s.registry.GetExerciseByKey(input.Exercise)
	if err != nil {
		return StartOutput{}, err
	}

	sess, err := s.sessions.Start(ctx, ex.CourseID, ex.ID)
	if err != nil {
		return StartOutput{}, fmt.Errorf("failed to start session: %w", err)
	}

	return StartOutput{
		SessionID:   sess.ID,
		Exercise:    sess.ExerciseKey(),
		Title:       ex.Title,
		Description: ex.Description,
		Lesson:      ex.Lesson,
		Code:        sess.Code,
		HTML:        sess.HTMLCode,
	}, nil
}

func (s *Server) handleCheck(ctx context.Context, input CheckInput) (CheckOutput, error) {
	req := session.CheckRequest{Locale: input.Locale}
	if input.Code != "" {
		req.Code = &input.Code
	}

	fb, err := s.sessions.Check(ctx, input.SessionID, req)
	if err != nil {
		return CheckOutput{}, fmt.Errorf("check failed: %w", err)
	}

	out := CheckOutput{
		Matched:  fb.Result.Matched,
		Messages: fb.Result.Messages,
		Output:   fb.Output,
	}
	if out.Messages == nil {
		out.Messages = []string{}
	}
	if out.Matched {
		next, err := s.registry.NextExercise(fb.Session.CourseID, fb.Session.ExerciseID)
		if err == nil && next != nil {
			out.Next = next.Key()
		}
	}
	return out, nil
}

func (s *Server) handleHint(ctx context.Context, input SessionInput) (HintOutput, error) {
	view, err := s.sessions.ToggleHint(ctx, input.SessionID)
	if err != nil {
		return HintOutput{}, fmt.Errorf("session not found: %w", err)
	}
	out := HintOutput{Visible: view.Visible}
	if view.Visible {
		out.Hint = view.Hint
	}
	return out, nil
}

func (s *Server) handleSolution(ctx context.Context, input SolutionInput) (SolutionOutput, error) {
	fb, err := s.sessions.RevealSolution(ctx, input.SessionID, input.Locale)
	if err != nil {
		return SolutionOutput{}, fmt.Errorf("session not found: %w", err)
	}
	return SolutionOutput{
		Code:    fb.Session.Code,
		HTML:    fb.Session.HTMLCode,
		Message: fb.Output,
	}, nil
}

func (s *Server) handleReset(ctx context.Context, input SessionInput) (StatusOutput, error) {
	sess, err := s.sessions.Reset(ctx, input.SessionID)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("session not found: %w", err)
	}
	return statusOf(sess), nil
}

func (s *Server) handleStatus(ctx context.Context, input SessionInput) (StatusOutput, error) {
	sess, err := s.sessions.Get(ctx, input.SessionID)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("session not found: %w", err)
	}
	return statusOf(sess), nil
}

func (s *Server) handleStop(ctx context.Context, input SessionInput) (StopOutput, error) {
	if err := s.sessions.Delete(ctx, input.SessionID); err != nil {
		return StopOutput{}, fmt.Errorf("failed to delete session: %w", err)
	}
	return StopOutput{Message: "Session ended"}, nil
}

func statusOf(sess *session.Session) StatusOutput {
	return StatusOutput{
		SessionID:  sess.ID,
		Exercise:   sess.ExerciseKey(),
		State:      string(sess.State),
		Code:       sess.Code,
		IsCorrect:  sess.IsCorrect,
		CheckCount: sess.CheckCount,
		HintCount:  sess.HintCount,
	}
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
