package preview

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ipssi/codequest/internal/domain"
)

func TestRunPython(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []string
	}{
		{"string literal", `print("Bonjour IPSSI")`, []string{"Bonjour IPSSI"}},
		{"single quotes", `print('Nice')`, []string{"Nice"}},
		{"variable", "nom = \"Alice\"\nprint(nom)", []string{"Alice"}},
		{"zero is a value", "x = 0\nprint(x)", []string{"0"}},
		{"addition", "print(2 + 3)", []string{"5"}},
		{"float division", "print(10 / 4)", []string{"2.5"}},
		{"division by zero", "print(1 / 0)", []string{"Infinity"}},
		{"power", "print(2 ** 3)", []string{"8"}},
		{"assignment from expression", "x = 5\ny = x * 2\nprint(y)", []string{"10"}},
		{"expression with variables", "age = 20\nprint(age + 1)", []string{"21"}},
		{"unknown call echoed", "nom = 'Alice'\nprint(len(nom))", []string{"len(nom)"}},
		{"invalid arithmetic echoed", "print(()", []string{"("}},
		{"comments and blank lines skipped", "# titre\n\n   \nprint('a')\n# fin", []string{"a"}},
		{"indented lines", "def f():\n    print('dedans')", []string{"dedans"}},
		{"several prints", "print(1)\nprint(2)", []string{"1", "2"}},
		{"no output", "x = 1", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RunPython(tt.code)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RunPython(%q) mismatch (-want +got):\n%s", tt.code, diff)
			}
		})
	}
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"-3 + 5", 2},
		{"10 - 2 - 3", 5},
		{"2 ** 3 ** 2", 512},
		{"7 / 2", 3.5},
		{" ( 1 ) ", 1},
	}
	for _, tt := range tests {
		got, err := evalArithmetic(tt.expr)
		if err != nil {
			t.Errorf("evalArithmetic(%q) error = %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("evalArithmetic(%q) = %v; want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvalArithmetic_Errors(t *testing.T) {
	for _, expr := range []string{"", "()", "2 3", "-2 ** 2", "4 // 2", "(1", "2(3)", "1 +"} {
		if _, err := evalArithmetic(expr); err == nil {
			t.Errorf("evalArithmetic(%q) expected error", expr)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5, "5"},
		{-12, "-12"},
		{2.5, "2.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e21, "1e+21"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocument(t *testing.T) {
	t.Run("html in body", func(t *testing.T) {
		doc := Document(domain.LanguageHTML, "<h1>Salut</h1>")
		if !strings.Contains(doc, "<body><h1>Salut</h1></body>") {
			t.Errorf("html document does not wrap code in body:\n%s", doc)
		}
	})

	t.Run("css over demo body", func(t *testing.T) {
		doc := Document(domain.LanguageCSS, ".titre { color: red; }")
		for _, want := range []string{".titre { color: red; }", `class="ipssi-card"`, `class="titre"`} {
			if !strings.Contains(doc, want) {
				t.Errorf("css document missing %q", want)
			}
		}
	})

	t.Run("javascript console capture", func(t *testing.T) {
		doc := Document(domain.LanguageJavaScript, "console.log('hi')")
		if !strings.Contains(doc, "console.log('hi')") || !strings.Contains(doc, "console-output") {
			t.Errorf("javascript document missing code or console:\n%s", doc)
		}
	})

	t.Run("blank code", func(t *testing.T) {
		if doc := Document(domain.LanguageHTML, "  \n"); doc != "" {
			t.Errorf("Document(blank) = %q; want empty", doc)
		}
	})

	t.Run("python has no document", func(t *testing.T) {
		if doc := Document(domain.LanguagePython, "print(1)"); doc != "" {
			t.Errorf("Document(python) = %q; want empty", doc)
		}
	})
}

func TestRender(t *testing.T) {
	p := Render(domain.LanguagePython, "print('ok')")
	if diff := cmp.Diff([]string{"ok"}, p.Output); diff != "" {
		t.Errorf("Render(python).Output mismatch (-want +got):\n%s", diff)
	}
	if p.Document != "" {
		t.Errorf("Render(python).Document = %q; want empty", p.Document)
	}

	if !Render(domain.LanguageCSS, "").Empty() {
		t.Error("Render(css, empty) should be empty")
	}
}

func TestCombine(t *testing.T) {
	css := &domain.Exercise{Language: domain.LanguageCSS}
	got := Combine(css, "<p>x</p>", "p { color: red; }")
	want := "<!DOCTYPE html>\n<html>\n<head>\n<style>\np { color: red; }\n</style>\n</head>\n<body>\n<p>x</p>\n</body>\n</html>"
	if got != want {
		t.Errorf("Combine(css) = %q; want %q", got, want)
	}

	js := &domain.Exercise{Language: domain.LanguageJavaScript}
	got = Combine(js, "<p id='x'></p>", "alert(1)")
	want = "<!DOCTYPE html>\n<html>\n<body>\n<p id='x'></p>\n<script>\nalert(1)\n</script>\n</body>\n</html>"
	if got != want {
		t.Errorf("Combine(javascript) = %q; want %q", got, want)
	}

	html := &domain.Exercise{Language: domain.LanguageHTML}
	if got := Combine(html, "<p>ignored</p>", "<h1>main</h1>"); got != "<h1>main</h1>" {
		t.Errorf("Combine(html) = %q; want main code", got)
	}
}

func TestRenderExercise_MultiTabDefaultsHTML(t *testing.T) {
	ex := &domain.Exercise{Language: domain.LanguageCSS, UseMultiTab: true}
	p := RenderExercise(ex, "", ".container { padding: 1rem; }")
	if !strings.Contains(p.Document, domain.DefaultBaseHTML) {
		t.Errorf("multi-tab preview should start from the default base HTML:\n%s", p.Document)
	}
	if !strings.Contains(p.Document, "<style>\n.container { padding: 1rem; }\n</style>") {
		t.Errorf("multi-tab preview missing style block:\n%s", p.Document)
	}
}
