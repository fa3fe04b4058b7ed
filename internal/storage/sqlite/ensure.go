package sqlite

import (
	"github.com/ipssi/codequest/internal/exercise"
)

// Ensure SQLite stores implement the storage interfaces.
var (
	_ exercise.Store = (*CatalogStore)(nil)
)
