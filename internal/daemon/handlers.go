package daemon

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/preview"
	"github.com/ipssi/codequest/internal/session"
)

// courseSummary is a course without its exercise bodies
type courseSummary struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Language      domain.Language `json:"language"`
	Description   string          `json:"description,omitempty"`
	Icon          string          `json:"icon,omitempty"`
	Color         string          `json:"color,omitempty"`
	ExerciseCount int             `json:"exercise_count"`
}

// exerciseSummary is the listing entry of an exercise
type exerciseSummary struct {
	ID         int               `json:"id"`
	CourseID   string            `json:"course_id"`
	Title      string            `json:"title"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

// exerciseView is what an editor needs to show an exercise. The solution is
// never part of it.
type exerciseView struct {
	ID           int               `json:"id"`
	CourseID     string            `json:"course_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Lesson       string            `json:"lesson,omitempty"`
	Language     domain.Language   `json:"language"`
	Difficulty   domain.Difficulty `json:"difficulty"`
	InitialCode  string            `json:"initial_code"`
	HasHint      bool              `json:"has_hint"`
	UseMultiTab  bool              `json:"use_multi_tab,omitempty"`
	BaseHTML     string            `json:"base_html,omitempty"`
	EditableHTML bool              `json:"editable_html,omitempty"`
	NextID       *int              `json:"next_id,omitempty"`
}

type courseDetail struct {
	courseSummary
	Exercises []exerciseSummary `json:"exercises"`
}

func summarizeCourse(c *domain.Course) courseSummary {
	return courseSummary{
		ID:            c.ID,
		Title:         c.Title,
		Language:      c.Language,
		Description:   c.Description,
		Icon:          c.Icon,
		Color:         c.Color,
		ExerciseCount: len(c.Exercises),
	}
}

func summarizeExercise(ex *domain.Exercise) *exerciseSummary {
	if ex == nil {
		return nil
	}
	return &exerciseSummary{
		ID:         ex.ID,
		CourseID:   ex.CourseID,
		Title:      ex.Title,
		Difficulty: ex.Difficulty,
	}
}

func viewExercise(ex, next *domain.Exercise) exerciseView {
	v := exerciseView{
		ID:           ex.ID,
		CourseID:     ex.CourseID,
		Title:        ex.Title,
		Description:  ex.Description,
		Lesson:       ex.Lesson,
		Language:     ex.Language,
		Difficulty:   ex.Difficulty,
		InitialCode:  ex.InitialCode,
		HasHint:      ex.Hint != "",
		UseMultiTab:  ex.UseMultiTab,
		BaseHTML:     ex.BaseHTML,
		EditableHTML: ex.EditableHTML,
	}
	if next != nil {
		v.NextID = &next.ID
	}
	return v
}

// checkResponse is the outcome of a check. Next is set when the code matched
// and the course has a following exercise.
type checkResponse struct {
	Matched  bool             `json:"matched"`
	Messages []string         `json:"messages"`
	Output   string           `json:"output"`
	Session  *session.Session `json:"session,omitempty"`
	Next     *exerciseSummary `json:"next,omitempty"`
}

func (s *Server) newCheckResponse(ex *domain.Exercise, result checker.Result, output string) checkResponse {
	resp := checkResponse{
		Matched:  result.Matched,
		Messages: result.Messages,
		Output:   output,
	}
	if resp.Messages == nil {
		resp.Messages = []string{}
	}
	if result.Matched {
		if next, err := s.registry.NextExercise(ex.CourseID, ex.ID); err == nil {
			resp.Next = summarizeExercise(next)
		}
	}
	return resp
}

// Health & status

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":         "running",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"catalog":        s.registry.Stats(),
		"sessions":       len(s.store.List()),
	})
}

// handleGetConfig returns the effective configuration without connection
// strings
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"daemon": map[string]any{
			"port":      s.cfg.Daemon.Port,
			"bind":      s.cfg.Daemon.Bind,
			"log_level": s.cfg.Daemon.LogLevel,
		},
		"catalog": map[string]any{
			"source": s.cfg.Catalog.Source,
			"path":   s.cfg.Catalog.Path,
		},
		"checker": map[string]any{
			"locale": s.cfg.Checker.Locale,
		},
		"rate_limit": map[string]any{
			"enabled": s.cfg.RateLimit.Enabled,
			"rate":    s.cfg.RateLimit.Rate,
			"burst":   s.cfg.RateLimit.Burst,

			"trusted_proxies": s.cfg.RateLimit.TrustedProxies,
		},
	})
}

// Catalog handlers

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses := s.registry.ListCourses()
	summaries := make([]courseSummary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, summarizeCourse(c))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"courses": summaries,
		"count":   len(summaries),
	})
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.registry.GetCourse(r.PathValue("course"))
	if err != nil {
		s.fail(w, "course not found", err)
		return
	}

	detail := courseDetail{
		courseSummary: summarizeCourse(course),
		Exercises:     make([]exerciseSummary, 0, len(course.Exercises)),
	}
	for _, ex := range course.Exercises {
		detail.Exercises = append(detail.Exercises, *summarizeExercise(ex))
	}
	s.jsonResponse(w, http.StatusOK, detail)
}

// pathExercise resolves the {course}/{id} path values
func (s *Server) pathExercise(w http.ResponseWriter, r *http.Request) (*domain.Exercise, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "exercise id must be a number", err)
		return nil, false
	}
	ex, err := s.registry.GetExercise(r.PathValue("course"), id)
	if err != nil {
		s.fail(w, "exercise not found", err)
		return nil, false
	}
	return ex, true
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.pathExercise(w, r)
	if !ok {
		return
	}
	next, _ := s.registry.NextExercise(ex.CourseID, ex.ID)
	s.jsonResponse(w, http.StatusOK, viewExercise(ex, next))
}

func (s *Server) handleNextExercise(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.pathExercise(w, r)
	if !ok {
		return
	}
	next, err := s.registry.NextExercise(ex.CourseID, ex.ID)
	if err != nil {
		s.fail(w, "exercise not found", err)
		return
	}
	if next == nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{"last": true})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"last": false,
		"next": summarizeExercise(next),
	})
}

func (s *Server) handleReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Reload(r.Context()); err != nil {
		s.jsonError(w, http.StatusUnprocessableEntity, "catalog reload failed, previous catalog kept", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.registry.Stats())
}

// Stateless check & preview

// CheckRequest is the body of POST /v1/check
type CheckRequest struct {
	Course   string `json:"course"`
	Exercise int    `json:"exercise"`
	Code     string `json:"code"`
	Locale   string `json:"locale,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r) {
		return
	}

	var req CheckRequest
	if !s.decode(w, r, &req) {
		return
	}

	ex, err := s.registry.GetExercise(req.Course, req.Exercise)
	if err != nil {
		s.fail(w, "exercise not found", err)
		return
	}

	ev := s.evaluator.WithLocale(req.Locale)
	result := ev.Evaluate(ex, req.Code)
	s.metrics.ObserveCheck(ex, result)

	s.jsonResponse(w, http.StatusOK, s.newCheckResponse(ex, result, ev.Report(result)))
}

// PreviewRequest is the body of POST /v1/preview. Either Language is set, or
// Course and Exercise name the exercise whose tabs are combined.
type PreviewRequest struct {
	Language string `json:"language,omitempty"`
	Course   string `json:"course,omitempty"`
	Exercise int    `json:"exercise,omitempty"`
	HTML     string `json:"html,omitempty"`
	Code     string `json:"code"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Course != "" {
		ex, err := s.registry.GetExercise(req.Course, req.Exercise)
		if err != nil {
			s.fail(w, "exercise not found", err)
			return
		}
		s.jsonResponse(w, http.StatusOK, preview.RenderExercise(ex, req.HTML, req.Code))
		return
	}

	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		s.fail(w, "unsupported language", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, preview.Render(lang, req.Code))
}

// Session handlers

// CreateSessionRequest is the body of POST /v1/sessions. Key is the
// "<course>/<id>" form and takes precedence.
type CreateSessionRequest struct {
	Key      string `json:"key,omitempty"`
	Course   string `json:"course,omitempty"`
	Exercise int    `json:"exercise,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	courseID, id := req.Course, req.Exercise
	if req.Key != "" {
		var err error
		if courseID, id, err = domain.ParseExerciseKey(req.Key); err != nil {
			s.fail(w, "invalid exercise key", err)
			return
		}
	}
	if courseID == "" {
		s.jsonError(w, http.StatusBadRequest, "course is required", nil)
		return
	}

	sess, err := s.sessions.Start(r.Context(), courseID, id)
	if err != nil {
		s.fail(w, "failed to start session", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.List(r.Context())
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "session not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, "failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	var req session.UpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.sessions.UpdateCode(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.fail(w, "failed to update code", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleSessionCheck(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r) {
		return
	}

	var req session.CheckRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}

	fb, err := s.sessions.Check(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.fail(w, "check failed", err)
		return
	}

	ex, err := s.registry.GetExercise(fb.Session.CourseID, fb.Session.ExerciseID)
	if err != nil {
		s.fail(w, "exercise not found", err)
		return
	}
	resp := s.newCheckResponse(ex, *fb.Result, fb.Output)
	resp.Session = fb.Session
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleToggleHint(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.ToggleHint(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "failed to toggle hint", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleRevealSolution(w http.ResponseWriter, r *http.Request) {
	fb, err := s.sessions.RevealSolution(r.Context(), r.PathValue("id"), r.URL.Query().Get("locale"))
	if err != nil {
		s.fail(w, "failed to reveal solution", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fb)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "failed to reset session", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleSessionPreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "session not found", err)
		return
	}
	ex, err := s.registry.GetExercise(sess.CourseID, sess.ExerciseID)
	if err != nil {
		s.fail(w, "exercise not found", fmt.Errorf("session %s: %w", sess.ID, err))
		return
	}
	s.jsonResponse(w, http.StatusOK, preview.RenderExercise(ex, sess.HTMLCode, sess.Code))
}
