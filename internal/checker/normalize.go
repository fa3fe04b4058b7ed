package checker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ipssi/codequest/internal/domain"
)

var (
	htmlCommentRe  = regexp.MustCompile(`<!--[\s\S]*?-->`)
	blockCommentRe = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	// Line comments end at any line terminator, not only \n.
	slashCommentRe = regexp.MustCompile(`//[^\n\r\x{2028}\x{2029}]*`)
	hashCommentRe  = regexp.MustCompile(`#[^\n\r\x{2028}\x{2029}]*`)

	// \s alone misses \v, NBSP and the other Unicode separators. NEL (U+0085)
	// is not whitespace.
	whitespaceRunRe = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	punctSpaceRe    = regexp.MustCompile(` ?([<>{}();,:]) ?`)
)

// Normalize maps source text to the canonical form used for equality checks.
// Comments are stripped for every language, quotes are unified for html,
// python and javascript, semicolons are dropped for javascript, whitespace is
// collapsed and squeezed out around < > { } ( ) ; , : and the result is
// lower-cased.
//
// The output is a fixed point: Normalize(Normalize(x), l) == Normalize(x, l).
func Normalize(text string, lang domain.Language) string {
	out := normalizePass(text, lang)
	// Dropping a semicolon or a space can splice a new comment opener
	// together ("/;/" in javascript, "< !--"), so settle on a fixed point.
	// Later passes only ever remove characters.
	for {
		next := normalizePass(out, lang)
		if next == out {
			return out
		}
		out = next
	}
}

func normalizePass(text string, lang domain.Language) string {
	s := htmlCommentRe.ReplaceAllString(text, "")
	s = blockCommentRe.ReplaceAllString(s, "")
	s = slashCommentRe.ReplaceAllString(s, "")
	s = hashCommentRe.ReplaceAllString(s, "")

	switch lang {
	case domain.LanguageHTML, domain.LanguagePython, domain.LanguageJavaScript:
		s = strings.ReplaceAll(s, `"`, "'")
	}
	if lang == domain.LanguageJavaScript {
		s = strings.ReplaceAll(s, ";", "")
	}

	s = strings.TrimFunc(s, isSpace)
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	s = punctSpaceRe.ReplaceAllString(s, "$1")
	return strings.ToLower(s)
}

// isSpace matches the same set as whitespaceRunRe.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Z, r)
}
