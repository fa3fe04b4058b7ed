package checker

import (
	"fmt"
	"strings"
)

// MessageID identifies a piece of learner-facing feedback independently of
// its wording.
type MessageID string

const (
	MsgMissingTag         MessageID = "html.missing_tag"
	MsgUnclosedTags       MessageID = "html.unclosed_tags"
	MsgMissingContent     MessageID = "html.missing_content"
	MsgMissingClassDot    MessageID = "css.missing_class_dot"
	MsgMissingBraces      MessageID = "css.missing_braces"
	MsgMissingProperty    MessageID = "css.missing_property"
	MsgMissingFunction    MessageID = "js.missing_function"
	MsgMissingConsoleLog  MessageID = "js.missing_console_log"
	MsgMissingDeclaration MessageID = "js.missing_declaration"
	MsgUnbalancedParens   MessageID = "js.unbalanced_parens"
	MsgMissingPrint       MessageID = "python.missing_print"
	MsgMissingDef         MessageID = "python.missing_def"
	MsgMissingIndentation MessageID = "python.missing_indentation"
	MsgEmptySubmission    MessageID = "empty_submission"
	MsgFallback           MessageID = "fallback"

	MsgSuccess       MessageID = "success"
	MsgFailureIntro  MessageID = "failure_intro"
	MsgSolutionShown MessageID = "solution_shown"
)

// Locales
const (
	LocaleEnglish = "en"
	LocaleFrench  = "fr"
)

// Catalog holds the wording of every message for one locale. A Catalog is
// immutable once built and safe for concurrent use.
type Catalog struct {
	locale   string
	messages map[MessageID]string
}

// Locale returns the catalog's locale tag
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders a message. Messages that take an argument use a single %s
// verb; unknown IDs render as the ID itself.
func (c *Catalog) Format(id MessageID, args ...any) string {
	tmpl, ok := c.messages[id]
	if !ok {
		return string(id)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

var english = &Catalog{
	locale: LocaleEnglish,
	messages: map[MessageID]string{
		MsgMissingTag:         "❌ Missing tag <%s>",
		MsgUnclosedTags:       "❌ You forgot to close one or more tags",
		MsgMissingContent:     "❌ Some content is missing from your code",
		MsgMissingClassDot:    "❌ Don't forget the dot (.) before the class name!",
		MsgMissingBraces:      "❌ Missing braces { } around your CSS rules",
		MsgMissingProperty:    "❌ Missing property %s",
		MsgMissingFunction:    `❌ Declare a function with the "function" keyword`,
		MsgMissingConsoleLog:  "❌ Use console.log() to display output",
		MsgMissingDeclaration: "❌ Declare a variable with const or let",
		MsgUnbalancedParens:   "❌ Check your parentheses ( ) - some are not closed",
		MsgMissingPrint:       "❌ Use print() to display output",
		MsgMissingDef:         `❌ Define a function with "def"`,
		MsgMissingIndentation: "❌ Remember the indentation (4 spaces) after a function definition!",
		MsgEmptySubmission:    "❌ You haven't written anything yet! Start coding.",
		MsgFallback:           "❌ Not quite right... check the details: capitalization, spacing, punctuation. 💪",
		MsgSuccess:            "✅ Well done! Your code is correct! 🎉",
		MsgFailureIntro:       "❌ Almost! Here is what's wrong:",
		MsgSolutionShown:      "💡 Solution revealed! Take the time to understand it.",
	},
}

var french = &Catalog{
	locale: LocaleFrench,
	messages: map[MessageID]string{
		MsgMissingTag:         "❌ Il manque une balise <%s>",
		MsgUnclosedTags:       "❌ Tu as oublié de fermer une ou plusieurs balises",
		MsgMissingContent:     "❌ Il manque du contenu dans ton code",
		MsgMissingClassDot:    "❌ N'oublie pas le point (.) devant le nom de la classe !",
		MsgMissingBraces:      "❌ Il manque les accolades { } pour ton style CSS",
		MsgMissingProperty:    "❌ Il manque la propriété %s",
		MsgMissingFunction:    `❌ Tu dois créer une fonction avec le mot-clé "function"`,
		MsgMissingConsoleLog:  "❌ Tu dois utiliser console.log() pour afficher",
		MsgMissingDeclaration: "❌ Tu dois déclarer une variable avec const ou let",
		MsgUnbalancedParens:   "❌ Vérifie tes parenthèses ( ) - certaines ne sont pas fermées",
		MsgMissingPrint:       "❌ Tu dois utiliser print() pour afficher",
		MsgMissingDef:         `❌ Tu dois créer une fonction avec "def"`,
		MsgMissingIndentation: "❌ N'oublie pas l'indentation (4 espaces) après la définition de fonction !",
		MsgEmptySubmission:    "❌ Tu n'as rien écrit ! Commence à coder.",
		MsgFallback:           "❌ Pas tout à fait... Vérifie les détails : majuscules, espaces, ponctuation. 💪",
		MsgSuccess:            "✅ Bravo ! Ton code est correct ! 🎉",
		MsgFailureIntro:       "❌ Presque ! Voici ce qui ne va pas :",
		MsgSolutionShown:      "💡 Solution affichée ! Prends le temps de la comprendre.",
	},
}

// English returns the default catalog
func English() *Catalog { return english }

// French returns the catalog with the original site's wording
func French() *Catalog { return french }

// CatalogFor returns the catalog for a locale tag such as "fr", "fr-FR" or
// "fr_FR". Unknown or empty tags get the English catalog.
func CatalogFor(locale string) *Catalog {
	tag := strings.ToLower(strings.TrimSpace(locale))
	tag = strings.ReplaceAll(tag, "_", "-")
	if base, _, ok := strings.Cut(tag, "-"); ok {
		tag = base
	}
	if tag == LocaleFrench {
		return french
	}
	return english
}
