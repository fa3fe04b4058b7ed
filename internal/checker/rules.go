package checker

import (
	"regexp"
	"strings"

	"github.com/ipssi/codequest/internal/domain"
)

// Finding is one discrepancy detected between a submission and a solution.
// Arg carries the tag or property name for messages that need one.
type Finding struct {
	ID  MessageID `json:"id"`
	Arg string    `json:"arg,omitempty"`
}

// Render formats the finding with the given catalog
func (f Finding) Render(c *Catalog) string {
	if f.Arg != "" {
		return c.Format(f.ID, f.Arg)
	}
	return c.Format(f.ID)
}

// RuleSet explains mismatches for one language. Rules run on the raw text and
// each contributes at most one finding per item it inspects.
type RuleSet interface {
	// Language returns the language this rule set handles
	Language() domain.Language

	// Findings returns discrepancies in rule order
	Findings(userCode, solution string) []Finding
}

var ruleSets = map[domain.Language]RuleSet{
	domain.LanguageHTML:       htmlRules{},
	domain.LanguageCSS:        cssRules{},
	domain.LanguageJavaScript: javascriptRules{},
	domain.LanguagePython:     pythonRules{},
}

// RuleSetFor returns the rule set for a language, or nil for an unsupported one
func RuleSetFor(lang domain.Language) RuleSet {
	return ruleSets[lang]
}

// Diagnose runs the language rules followed by the universal empty-submission
// rule. The result may be empty.
func Diagnose(userCode, solution string, lang domain.Language) []Finding {
	var findings []Finding
	if rs := RuleSetFor(lang); rs != nil {
		findings = rs.Findings(userCode, solution)
	}
	if strings.TrimFunc(userCode, isSpace) == "" {
		findings = append(findings, Finding{ID: MsgEmptySubmission})
	}
	return findings
}

// Analyze returns the English discrepancy messages for a submission
func Analyze(userCode, solution string, lang domain.Language) []string {
	return render(Diagnose(userCode, solution, lang), english)
}

func render(findings []Finding, c *Catalog) []string {
	if len(findings) == 0 {
		return nil
	}
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Render(c)
	}
	return out
}

// -----------------------------------------------------------------------------
// html
// -----------------------------------------------------------------------------

var (
	openTagRe  = regexp.MustCompile(`<(\w+)[^>]*>`)
	closeTagRe = regexp.MustCompile(`</(\w+)>`)
)

type htmlRules struct{}

func (htmlRules) Language() domain.Language { return domain.LanguageHTML }

func (htmlRules) Findings(userCode, solution string) []Finding {
	var findings []Finding

	userTags := openTagRe.FindAllString(userCode, -1)
	for _, m := range openTagRe.FindAllStringSubmatch(solution, -1) {
		name := m[1]
		if !anyContains(userTags, name) {
			findings = append(findings, Finding{ID: MsgMissingTag, Arg: name})
		}
	}

	if len(userTags) > len(closeTagRe.FindAllString(userCode, -1)) {
		findings = append(findings, Finding{ID: MsgUnclosedTags})
	}

	// Lengths are counted in UTF-16 code units, the way the browser editor counts them.
	user := utf16Len(Normalize(userCode, domain.LanguageHTML))
	sol := utf16Len(Normalize(solution, domain.LanguageHTML))
	if float64(user) < float64(sol)*0.5 {
		findings = append(findings, Finding{ID: MsgMissingContent})
	}

	return findings
}

func anyContains(items []string, sub string) bool {
	for _, item := range items {
		if strings.Contains(item, sub) {
			return true
		}
	}
	return false
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// -----------------------------------------------------------------------------
// css
// -----------------------------------------------------------------------------

var cssPropertyRe = regexp.MustCompile(`[\w-]+\s*:`)

type cssRules struct{}

func (cssRules) Language() domain.Language { return domain.LanguageCSS }

func (cssRules) Findings(userCode, solution string) []Finding {
	var findings []Finding

	if strings.Contains(solution, ".") && !strings.Contains(userCode, ".") {
		findings = append(findings, Finding{ID: MsgMissingClassDot})
	}

	if !strings.Contains(userCode, "{") || !strings.Contains(userCode, "}") {
		findings = append(findings, Finding{ID: MsgMissingBraces})
	}

	// Substring containment, so "color" is satisfied by "background-color".
	for _, m := range cssPropertyRe.FindAllString(solution, -1) {
		name := strings.TrimSpace(strings.TrimSuffix(m, ":"))
		if !strings.Contains(userCode, name) {
			findings = append(findings, Finding{ID: MsgMissingProperty, Arg: name})
		}
	}

	return findings
}

// -----------------------------------------------------------------------------
// javascript
// -----------------------------------------------------------------------------

type javascriptRules struct{}

func (javascriptRules) Language() domain.Language { return domain.LanguageJavaScript }

func (javascriptRules) Findings(userCode, solution string) []Finding {
	var findings []Finding

	if strings.Contains(solution, "function") && !strings.Contains(userCode, "function") {
		findings = append(findings, Finding{ID: MsgMissingFunction})
	}

	if strings.Contains(solution, "console.log") && !strings.Contains(userCode, "console.log") {
		findings = append(findings, Finding{ID: MsgMissingConsoleLog})
	}

	solDeclares := strings.Contains(solution, "const") || strings.Contains(solution, "let")
	userDeclares := strings.Contains(userCode, "const") || strings.Contains(userCode, "let")
	if solDeclares && !userDeclares {
		findings = append(findings, Finding{ID: MsgMissingDeclaration})
	}

	if strings.Count(userCode, "(") != strings.Count(userCode, ")") {
		findings = append(findings, Finding{ID: MsgUnbalancedParens})
	}

	return findings
}

// -----------------------------------------------------------------------------
// python
// -----------------------------------------------------------------------------

var indentedBodyRe = regexp.MustCompile(`def.*:\n\s{2,}`)

type pythonRules struct{}

func (pythonRules) Language() domain.Language { return domain.LanguagePython }

func (pythonRules) Findings(userCode, solution string) []Finding {
	var findings []Finding

	if strings.Contains(solution, "print") && !strings.Contains(userCode, "print") {
		findings = append(findings, Finding{ID: MsgMissingPrint})
	}

	solDefines := strings.Contains(solution, "def ")
	userDefines := strings.Contains(userCode, "def ")
	if solDefines && !userDefines {
		findings = append(findings, Finding{ID: MsgMissingDef})
	}

	if solDefines && userDefines && !indentedBodyRe.MatchString(userCode) {
		findings = append(findings, Finding{ID: MsgMissingIndentation})
	}

	return findings
}
