// Package preview renders what a learner's code produces: a sandboxed HTML
// document for the web languages and a simulated console for Python.
package preview

import (
	"strings"

	"github.com/ipssi/codequest/internal/domain"
)

// codeMarker is replaced by the learner's code in the document templates
const codeMarker = "{{code}}"

const htmlDocument = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { margin: 0; padding: 1rem; font-family: sans-serif; background-color: #f9fafb; color: #1f2937; }
  </style>
</head>
<body>{{code}}</body>
</html>`

const cssDocument = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { margin: 0; padding: 1rem; font-family: sans-serif; background-color: #f9fafb; color: #1f2937; }
    {{code}}
  </style>
</head>
<body>
  <div class="ipssi">Bonjour IPSSI Nice ! 🎓</div>
  <h1 class="titre">IPSSI CodeQuest</h1>
  <div class="campus">
    <h2>Campus IPSSI Nice</h2>
    <p>Une école d'excellence</p>
  </div>
  <span class="badge">Étudiant IPSSI</span>
  <div class="ipssi-card">
    <h2>Formation Web</h2>
    <p>Développement front-end et back-end</p>
    <p><strong>📍 IPSSI Nice</strong></p>
  </div>
</body>
</html>`

const javascriptDocument = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { margin: 0; padding: 1rem; font-family: sans-serif; background-color: #1f2937; color: #f9fafb; }
    #console-output { background-color: #111827; color: #10b981; padding: 12px; border-radius: 8px; font-family: 'Courier New', monospace; font-size: 14px; white-space: pre-wrap; min-height: 100px; border: 2px solid #374151; }
    .console-line { margin: 4px 0; display: flex; align-items: start; }
    .console-prefix { color: #10b981; margin-right: 8px; font-weight: bold; }
  </style>
</head>
<body>
  <h3 style="color: #10b981; margin-top: 0;">Console JavaScript</h3>
  <div id="console-output"></div>
  <script>
    const originalLog = console.log;
    const consoleOutput = document.getElementById('console-output');
    console.log = (...args) => {
      originalLog(...args);
      const line = document.createElement('div');
      line.className = 'console-line';
      const prefix = document.createElement('span');
      prefix.className = 'console-prefix';
      prefix.textContent = '>>>';
      const content = document.createElement('span');
      content.textContent = args.map(arg => {
        if (typeof arg === 'object' && arg !== null) {
          return JSON.stringify(arg, null, 2);
        }
        return String(arg);
      }).join(' ');
      line.appendChild(prefix);
      line.appendChild(content);
      consoleOutput.appendChild(line);
    };
    try {
      {{code}}
    } catch (e) {
      const errorLine = document.createElement('div');
      errorLine.className = 'console-line';
      errorLine.innerHTML = '<span class="console-prefix" style="color: #ef4444;">❌</span><span style="color: #ef4444;">Error: ' + e.message + '</span>';
      consoleOutput.appendChild(errorLine);
    }
    if (consoleOutput.innerHTML === '') {
      consoleOutput.innerHTML = '<div style="color: #6b7280; font-style: italic;">No console output...</div>';
    }
  </script>
</body>
</html>`

var documents = map[domain.Language]string{
	domain.LanguageHTML:       htmlDocument,
	domain.LanguageCSS:        cssDocument,
	domain.LanguageJavaScript: javascriptDocument,
}

// Preview is the rendered output of a piece of code. Web languages produce a
// Document meant for a sandboxed iframe; Python produces console Output.
type Preview struct {
	Language domain.Language `json:"language"`
	Document string          `json:"document,omitempty"`
	Output   []string        `json:"output,omitempty"`
}

// Empty reports whether there is nothing to show
func (p Preview) Empty() bool {
	return p.Document == "" && len(p.Output) == 0
}

// Render builds the preview for code written in lang
func Render(lang domain.Language, code string) Preview {
	p := Preview{Language: lang}
	if lang == domain.LanguagePython {
		p.Output = RunPython(code)
		return p
	}
	p.Document = Document(lang, code)
	return p
}

// Document wraps code in the preview document for its language. Blank code,
// Python and unknown languages produce an empty document.
func Document(lang domain.Language, code string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	tmpl, ok := documents[lang]
	if !ok {
		return ""
	}
	return strings.Replace(tmpl, codeMarker, code, 1)
}

// Combine joins the HTML tab and the main tab of a multi-file exercise into a
// single document: CSS goes into the head, JavaScript runs after the body
// markup. Other languages return mainCode unchanged. The combined document is
// only ever rendered, never compared against the solution.
func Combine(ex *domain.Exercise, htmlCode, mainCode string) string {
	switch ex.Language {
	case domain.LanguageCSS:
		return "<!DOCTYPE html>\n<html>\n<head>\n<style>\n" + mainCode +
			"\n</style>\n</head>\n<body>\n" + htmlCode + "\n</body>\n</html>"
	case domain.LanguageJavaScript:
		return "<!DOCTYPE html>\n<html>\n<body>\n" + htmlCode +
			"\n<script>\n" + mainCode + "\n</script>\n</body>\n</html>"
	default:
		return mainCode
	}
}

// RenderExercise builds the preview for a session on ex. Multi-file
// exercises get the combined document; everything else renders mainCode.
func RenderExercise(ex *domain.Exercise, htmlCode, mainCode string) Preview {
	if ex.UseMultiTab && (ex.Language == domain.LanguageCSS || ex.Language == domain.LanguageJavaScript) {
		if htmlCode == "" {
			htmlCode = ex.StartingHTML()
		}
		return Preview{Language: ex.Language, Document: Combine(ex, htmlCode, mainCode)}
	}
	return Render(ex.Language, mainCode)
}
