package checker

import (
	"strings"

	"github.com/ipssi/codequest/internal/domain"
)

// Result is the outcome of one check. Messages is empty exactly when Matched
// is true.
type Result struct {
	Matched  bool      `json:"matched"`
	Messages []string  `json:"messages"`
	Findings []Finding `json:"findings,omitempty"`
}

// Evaluator compares submissions with exercise solutions. It holds only an
// immutable message catalog, so one value can serve any number of concurrent
// checks.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator creates an evaluator that words its feedback with catalog.
// A nil catalog means English.
func NewEvaluator(catalog *Catalog) Evaluator {
	if catalog == nil {
		catalog = english
	}
	return Evaluator{catalog: catalog}
}

// Catalog returns the evaluator's message catalog
func (e Evaluator) Catalog() *Catalog {
	if e.catalog == nil {
		return english
	}
	return e.catalog
}

// WithLocale returns an evaluator using the catalog for locale
func (e Evaluator) WithLocale(locale string) Evaluator {
	if locale == "" {
		return e
	}
	return Evaluator{catalog: CatalogFor(locale)}
}

// Evaluate checks userCode against the exercise solution. Only the edited
// code is compared, never a combined multi-file document.
func (e Evaluator) Evaluate(ex *domain.Exercise, userCode string) Result {
	return e.Compare(userCode, ex.Solution, ex.Language)
}

// Compare checks userCode against solution for a language
func (e Evaluator) Compare(userCode, solution string, lang domain.Language) Result {
	if Normalize(userCode, lang) == Normalize(solution, lang) {
		return Result{Matched: true, Messages: []string{}}
	}

	findings := Diagnose(userCode, solution, lang)
	if len(findings) == 0 {
		findings = []Finding{{ID: MsgFallback}}
	}
	return Result{
		Matched:  false,
		Messages: render(findings, e.Catalog()),
		Findings: findings,
	}
}

// Evaluate checks a submission with the default English evaluator
func Evaluate(ex *domain.Exercise, userCode string) Result {
	return NewEvaluator(nil).Evaluate(ex, userCode)
}

// Report renders a result the way the editor output panel shows it: a
// success line, or a headline followed by one message per line. The lone
// fallback message is shown on its own.
func (e Evaluator) Report(r Result) string {
	c := e.Catalog()
	if r.Matched {
		return c.Format(MsgSuccess)
	}
	if len(r.Findings) == 1 && r.Findings[0].ID == MsgFallback {
		return r.Messages[0]
	}
	return c.Format(MsgFailureIntro) + "\n\n" + strings.Join(r.Messages, "\n")
}

// SolutionNotice is the fixed message shown when the solution is revealed
func (e Evaluator) SolutionNotice() string {
	return e.Catalog().Format(MsgSolutionShown)
}
