package session

import (
	"context"

	"github.com/ipssi/codequest/internal/domain"
)

// SessionService defines the interface for session operations used by the
// daemon handlers and the MCP tools
type SessionService interface {
	// Start opens a session on an exercise
	Start(ctx context.Context, courseID string, exerciseID int) (*Session, error)

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error

	// UpdateCode replaces the edited code
	UpdateCode(ctx context.Context, id string, req UpdateRequest) (*Session, error)

	// Check compares the session code with the solution
	Check(ctx context.Context, id string, req CheckRequest) (*Feedback, error)

	// RevealSolution shows the reference solution
	RevealSolution(ctx context.Context, id, locale string) (*Feedback, error)

	// Reset restores the starting code
	Reset(ctx context.Context, id string) (*Session, error)

	// ToggleHint flips hint visibility
	ToggleHint(ctx context.Context, id string) (*HintView, error)
}

// Ensure Service implements SessionService
var _ SessionService = (*Service)(nil)

// SessionStore defines the persistence interface for sessions
type SessionStore interface {
	Save(s *Session) error
	Get(id string) (*Session, error)
	Update(id string, fn func(*Session) error) (*Session, error)
	Delete(id string) error
	List() []*Session
	Exists(id string) bool
}

// Ensure MemoryStore implements SessionStore
var _ SessionStore = (*MemoryStore)(nil)

// Catalog resolves exercises for sessions
type Catalog interface {
	GetExercise(courseID string, id int) (*domain.Exercise, error)
}
