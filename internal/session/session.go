package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/ipssi/codequest/internal/domain"
)

// State is where a session is in the edit/check cycle
type State string

const (
	StateEditing          State = "editing"
	StateChecked          State = "checked"
	StateSolutionRevealed State = "solution_revealed"
	StateReset            State = "reset"
)

// Session is the editing state of one learner on one exercise. Switching
// exercise means starting a new session; nothing carries over.
type Session struct {
	ID         string          `json:"id"`
	CourseID   string          `json:"course_id"`
	ExerciseID int             `json:"exercise_id"`
	Language   domain.Language `json:"language"`
	Code       string          `json:"code"`
	HTMLCode   string          `json:"html_code,omitempty"`
	State      State           `json:"state"`

	ShowHint     bool `json:"show_hint"`
	ShowSolution bool `json:"show_solution"`
	IsCorrect    bool `json:"is_correct"`

	// Output is the text of the feedback panel: the last check report or the
	// solution notice
	Output   string   `json:"output"`
	Messages []string `json:"messages,omitempty"`

	// Statistics
	CheckCount  int        `json:"check_count"`
	HintCount   int        `json:"hint_count"`
	LastCheckAt *time.Time `json:"last_check_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session positioned on the exercise's starting code
func NewSession(ex *domain.Exercise) *Session {
	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		CourseID:   ex.CourseID,
		ExerciseID: ex.ID,
		Language:   ex.Language,
		Code:       ex.InitialCode,
		State:      StateEditing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if ex.UseMultiTab {
		s.HTMLCode = ex.StartingHTML()
	}
	return s
}

// ExerciseKey returns the "<course>/<id>" key of the session's exercise
func (s *Session) ExerciseKey() string {
	return domain.ExerciseKey(s.CourseID, s.ExerciseID)
}

// UpdateCode replaces the edited code and returns to editing
func (s *Session) UpdateCode(code string) {
	s.Code = code
	s.edited()
}

// UpdateHTML replaces the HTML tab of a multi-file exercise
func (s *Session) UpdateHTML(html string) {
	s.HTMLCode = html
	s.edited()
}

func (s *Session) edited() {
	s.State = StateEditing
	s.IsCorrect = false
	s.UpdatedAt = time.Now()
}

// RecordCheck stores the outcome of a check
func (s *Session) RecordCheck(matched bool, messages []string, output string) {
	now := time.Now()
	s.State = StateChecked
	s.IsCorrect = matched
	s.Messages = messages
	s.Output = output
	s.CheckCount++
	s.LastCheckAt = &now
	s.UpdatedAt = now
}

// RevealSolution replaces the code with the reference solution
func (s *Session) RevealSolution(ex *domain.Exercise, notice string) {
	s.State = StateSolutionRevealed
	s.ShowSolution = true
	s.Code = ex.Solution
	if html := ex.RevealedHTML(); ex.UseMultiTab && html != "" {
		s.HTMLCode = html
	}
	s.Messages = nil
	s.Output = notice
	s.UpdatedAt = time.Now()
}

// Reset restores the starting code and clears every flag and message
func (s *Session) Reset(ex *domain.Exercise) {
	s.State = StateReset
	s.Code = ex.InitialCode
	if ex.UseMultiTab {
		s.HTMLCode = ex.StartingHTML()
	}
	s.ShowHint = false
	s.ShowSolution = false
	s.IsCorrect = false
	s.Messages = nil
	s.Output = ""
	s.UpdatedAt = time.Now()
}

// ToggleHint flips hint visibility and returns the new value
func (s *Session) ToggleHint() bool {
	s.ShowHint = !s.ShowHint
	if s.ShowHint {
		s.HintCount++
	}
	s.UpdatedAt = time.Now()
	return s.ShowHint
}

// Clone returns a copy that shares no mutable state with s
func (s *Session) Clone() *Session {
	c := *s
	if s.Messages != nil {
		c.Messages = append([]string(nil), s.Messages...)
	}
	if s.LastCheckAt != nil {
		t := *s.LastCheckAt
		c.LastCheckAt = &t
	}
	return &c
}
