package domain

import (
	"fmt"
	"strings"
)

// Language is the language an exercise is written in. It selects the
// normalization rules and the feedback rule set.
type Language string

const (
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
)

// Languages returns every supported language in display order
func Languages() []Language {
	return []Language{LanguageHTML, LanguageCSS, LanguageJavaScript, LanguagePython}
}

// IsValid checks if the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguageHTML, LanguageCSS, LanguageJavaScript, LanguagePython:
		return true
	default:
		return false
	}
}

// String returns the language as a string
func (l Language) String() string {
	return string(l)
}

// ParseLanguage converts a string to a Language. Matching is case-insensitive
// and "js" is accepted for javascript.
func ParseLanguage(s string) (Language, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "js" {
		v = string(LanguageJavaScript)
	}
	lang := Language(v)
	if !lang.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return lang, nil
}

// Difficulty is a display-only label on an exercise
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts the English labels and the French ones used by the
// course files (Facile, Moyen, Difficile). An empty label means easy.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "easy", "facile":
		return DifficultyEasy, nil
	case "medium", "moyen":
		return DifficultyMedium, nil
	case "hard", "difficile":
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
	}
}
