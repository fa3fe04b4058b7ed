package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/domain"
)

var (
	ErrHTMLNotEditable = errors.New("html tab is not editable for this exercise")
	ErrNoHTMLTab       = errors.New("exercise has no html tab")
)

// CheckObserver is notified after every check, e.g. to record metrics
type CheckObserver func(ex *domain.Exercise, result checker.Result)

// Service manages exercise sessions
type Service struct {
	store     SessionStore
	catalog   Catalog
	evaluator checker.Evaluator
	observer  CheckObserver
	events    *domain.EventDispatcher
}

// NewService creates a new session service
func NewService(store SessionStore, catalog Catalog, evaluator checker.Evaluator) *Service {
	return &Service{
		store:     store,
		catalog:   catalog,
		evaluator: evaluator,
	}
}

// SetCheckObserver sets a callback run after every check
func (s *Service) SetCheckObserver(fn CheckObserver) {
	s.observer = fn
}

// SetEventDispatcher sets where session events are published
func (s *Service) SetEventDispatcher(d *domain.EventDispatcher) {
	s.events = d
}

// UpdateRequest carries new editor content. Nil fields are left unchanged.
type UpdateRequest struct {
	Code *string `json:"code,omitempty"`
	HTML *string `json:"html,omitempty"`
}

// CheckRequest asks for a check. Code, when set, replaces the session code
// first. Locale selects the feedback language.
type CheckRequest struct {
	Code   *string `json:"code,omitempty"`
	Locale string  `json:"locale,omitempty"`
}

// Feedback is the outcome of a check or a solution reveal
type Feedback struct {
	Session *Session        `json:"session"`
	Result  *checker.Result `json:"result,omitempty"`
	Output  string          `json:"output"`
}

// HintView is the hint panel state after a toggle
type HintView struct {
	Session *Session `json:"session"`
	Visible bool     `json:"visible"`
	Hint    string   `json:"hint"`
}

// Start opens a session on an exercise
func (s *Service) Start(ctx context.Context, courseID string, exerciseID int) (*Session, error) {
	ex, err := s.catalog.GetExercise(courseID, exerciseID)
	if err != nil {
		return nil, err
	}

	sess := NewSession(ex)
	if err := s.store.Save(sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.events.Publish(domain.NewSessionStartedEvent(sess.ID, ex))
	slog.Debug("session started", "session_id", sess.ID, "exercise", ex.Key())
	return sess, nil
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(id)
}

// Delete removes a session
func (s *Service) Delete(ctx context.Context, id string) error {
	sess, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.events.Publish(domain.NewSessionEndedEvent(id, time.Since(sess.CreatedAt)))
	return nil
}

// List returns all live sessions
func (s *Service) List(ctx context.Context) []*Session {
	return s.store.List()
}

// UpdateCode replaces the edited code and, for multi-file exercises with an
// editable HTML tab, the HTML
func (s *Service) UpdateCode(ctx context.Context, id string, req UpdateRequest) (*Session, error) {
	return s.store.Update(id, func(sess *Session) error {
		if req.HTML != nil {
			ex, err := s.exercise(sess)
			if err != nil {
				return err
			}
			if !ex.UseMultiTab {
				return ErrNoHTMLTab
			}
			if !ex.EditableHTML {
				return ErrHTMLNotEditable
			}
			sess.UpdateHTML(*req.HTML)
		}
		if req.Code != nil {
			sess.UpdateCode(*req.Code)
		}
		return nil
	})
}

// Check compares the session code with the exercise solution. Only the main
// code is compared, never the HTML tab.
func (s *Service) Check(ctx context.Context, id string, req CheckRequest) (*Feedback, error) {
	ev := s.evaluator.WithLocale(req.Locale)
	var result checker.Result
	var checked *domain.Exercise

	sess, err := s.store.Update(id, func(sess *Session) error {
		ex, err := s.exercise(sess)
		if err != nil {
			return err
		}
		if req.Code != nil {
			sess.Code = *req.Code
		}
		result = ev.Evaluate(ex, sess.Code)
		sess.RecordCheck(result.Matched, result.Messages, ev.Report(result))
		checked = ex
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.observer != nil {
		s.observer(checked, result)
	}
	s.events.Publish(domain.NewCodeCheckedEvent(sess.ID, sess.ExerciseKey(), result.Matched, len(result.Messages), sess.CheckCount))
	slog.Debug("session checked",
		"session_id", sess.ID,
		"exercise", sess.ExerciseKey(),
		"matched", result.Matched,
		"messages", len(result.Messages),
	)

	return &Feedback{Session: sess, Result: &result, Output: sess.Output}, nil
}

// RevealSolution replaces the code with the solution. The evaluator is not
// run.
func (s *Service) RevealSolution(ctx context.Context, id, locale string) (*Feedback, error) {
	notice := s.evaluator.WithLocale(locale).SolutionNotice()

	sess, err := s.store.Update(id, func(sess *Session) error {
		ex, err := s.exercise(sess)
		if err != nil {
			return err
		}
		sess.RevealSolution(ex, notice)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(domain.NewSolutionRevealedEvent(sess.ID, sess.ExerciseKey()))
	return &Feedback{Session: sess, Output: notice}, nil
}

// Reset restores the starting code and clears every flag
func (s *Service) Reset(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Update(id, func(sess *Session) error {
		ex, err := s.exercise(sess)
		if err != nil {
			return err
		}
		sess.Reset(ex)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(domain.NewSessionResetEvent(sess.ID))
	return sess, nil
}

// ToggleHint flips hint visibility. The hint text is returned verbatim from
// the exercise.
func (s *Service) ToggleHint(ctx context.Context, id string) (*HintView, error) {
	var hint string
	var visible bool

	sess, err := s.store.Update(id, func(sess *Session) error {
		ex, err := s.exercise(sess)
		if err != nil {
			return err
		}
		visible = sess.ToggleHint()
		hint = ex.Hint
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(domain.NewHintToggledEvent(sess.ID, visible))
	return &HintView{Session: sess, Visible: visible, Hint: hint}, nil
}

func (s *Service) exercise(sess *Session) (*domain.Exercise, error) {
	ex, err := s.catalog.GetExercise(sess.CourseID, sess.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	return ex, nil
}
