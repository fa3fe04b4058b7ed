package preview

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	printCallRe  = regexp.MustCompile(`print\((.*)\)`)
	assignmentRe = regexp.MustCompile(`^(\w+)\s*=\s*(.+)$`)
	quotedRe     = regexp.MustCompile(`^['"].*['"]$`)
	arithmeticRe = regexp.MustCompile(`^[\d\s+\-*/()]+$`)
)

// scope keeps variables in assignment order so substitution is deterministic
type scope struct {
	names  []string
	values map[string]string
}

func newScope() *scope {
	return &scope{values: make(map[string]string)}
}

func (s *scope) set(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// substitute replaces whole-word variable names in expr with their values
func (s *scope) substitute(expr string) string {
	for _, name := range s.names {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		expr = re.ReplaceAllLiteralString(expr, s.values[name])
	}
	return expr
}

// RunPython simulates the output of a small Python program line by line. It
// understands print calls and simple assignments. Anything it cannot evaluate
// is echoed back verbatim rather than reported as an error.
func RunPython(code string) []string {
	var output []string
	vars := newScope()

	for _, line := range strings.Split(strings.TrimSpace(code), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := printCallRe.FindStringSubmatch(line); m != nil {
			output = append(output, printValue(strings.TrimSpace(m[1]), vars))
			continue
		}

		if m := assignmentRe.FindStringSubmatch(line); m != nil {
			vars.set(m[1], assignedValue(strings.TrimSpace(m[2]), vars))
		}
	}

	return output
}

func printValue(arg string, vars *scope) string {
	if quotedRe.MatchString(arg) {
		return arg[1 : len(arg)-1]
	}
	if v := vars.values[arg]; v != "" {
		return v
	}
	if arithmeticRe.MatchString(arg) {
		if n, err := evalArithmetic(arg); err == nil {
			return formatNumber(n)
		}
		return arg
	}
	if expr := vars.substitute(arg); arithmeticRe.MatchString(expr) {
		if n, err := evalArithmetic(expr); err == nil {
			return formatNumber(n)
		}
	}
	return arg
}

func assignedValue(value string, vars *scope) string {
	if quotedRe.MatchString(value) {
		return value[1 : len(value)-1]
	}
	if isNumeric(value) {
		return value
	}
	if expr := vars.substitute(value); arithmeticRe.MatchString(expr) {
		if n, err := evalArithmetic(expr); err == nil {
			return formatNumber(n)
		}
	}
	return value
}

// isNumeric reports whether s reads as a plain number
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, "_xXpP") {
		return false
	}
	switch strings.TrimLeft(s, "+-") {
	case "Infinity":
		return true
	case "NaN", "nan", "inf", "Inf", "infinity":
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// formatNumber prints integral values without a decimal part
func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
