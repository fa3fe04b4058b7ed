package domain

import (
	"errors"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    Language
		wantErr bool
	}{
		{"html", LanguageHTML, false},
		{"CSS", LanguageCSS, false},
		{"javascript", LanguageJavaScript, false},
		{"js", LanguageJavaScript, false},
		{" Python ", LanguagePython, false},
		{"go", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedLanguage) {
					t.Errorf("ParseLanguage(%q) error = %v; want ErrUnsupportedLanguage", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguage(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input   string
		want    Difficulty
		wantErr bool
	}{
		{"Facile", DifficultyEasy, false},
		{"Moyen", DifficultyMedium, false},
		{"Difficile", DifficultyHard, false},
		{"hard", DifficultyHard, false},
		{"", DifficultyEasy, false},
		{"extreme", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDifficulty(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDifficulty(%q) error = %v; wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDifficulty(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCourse_Next(t *testing.T) {
	course := &Course{
		ID: "html",
		Exercises: []*Exercise{
			{ID: 1, CourseID: "html"},
			{ID: 2, CourseID: "html"},
			{ID: 5, CourseID: "html"},
		},
	}

	tests := []struct {
		name   string
		id     int
		wantID int // 0 means nil
	}{
		{"first", 1, 2},
		{"gap in ids", 2, 5},
		{"last", 5, 0},
		{"unknown", 42, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := course.Next(tt.id)
			if tt.wantID == 0 {
				if next != nil {
					t.Errorf("Next(%d) = %d; want nil", tt.id, next.ID)
				}
				return
			}
			if next == nil || next.ID != tt.wantID {
				t.Errorf("Next(%d) = %v; want %d", tt.id, next, tt.wantID)
			}
		})
	}
}

func TestExerciseKey_RoundTrip(t *testing.T) {
	courseID, id, err := ParseExerciseKey(ExerciseKey("python", 7))
	if err != nil {
		t.Fatalf("ParseExerciseKey() error = %v", err)
	}
	if courseID != "python" || id != 7 {
		t.Errorf("ParseExerciseKey() = (%q, %d); want (python, 7)", courseID, id)
	}
}

func TestParseExerciseKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "html", "/3", "html/abc"} {
		if _, _, err := ParseExerciseKey(key); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseExerciseKey(%q) error = %v; want ErrInvalidInput", key, err)
		}
	}
}

func TestExercise_HTMLTabs(t *testing.T) {
	bare := &Exercise{UseMultiTab: true}
	if bare.StartingHTML() != DefaultBaseHTML {
		t.Errorf("StartingHTML() = %q; want default", bare.StartingHTML())
	}
	if bare.RevealedHTML() != "" {
		t.Errorf("RevealedHTML() = %q; want empty", bare.RevealedHTML())
	}

	full := &Exercise{BaseHTML: "<p class='a'></p>", SolutionHTML: "<p class='a'>x</p>"}
	if full.StartingHTML() != full.BaseHTML {
		t.Errorf("StartingHTML() = %q; want %q", full.StartingHTML(), full.BaseHTML)
	}
	if full.RevealedHTML() != full.SolutionHTML {
		t.Errorf("RevealedHTML() = %q; want %q", full.RevealedHTML(), full.SolutionHTML)
	}
}
