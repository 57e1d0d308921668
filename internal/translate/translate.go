// Package translate dispatches source text to the front end of its language.
package translate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/flowchart/internal/csharp"
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/javascript"
	"github.com/dusk-indust/flowchart/internal/python"
)

// ErrUnsupportedLanguage is returned for a language tag or file extension
// no front end handles.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Frontend converts source text in one language into flowcharts.
// Implementations: python.Frontend (strict), javascript.Frontend and
// csharp.Frontend (tolerant).
type Frontend interface {
	// Language reports the language this front end handles.
	Language() flow.Language

	// Translate draws every unit of source. It fails only on a syntax error
	// (strict front ends), a depth overflow, or a canceled context.
	Translate(ctx context.Context, source []byte) (*flow.Result, error)
}

var extensions = map[string]flow.Language{
	".py":  flow.LangPython,
	".pyw": flow.LangPython,
	".js":  flow.LangJavaScript,
	".mjs": flow.LangJavaScript,
	".cjs": flow.LangJavaScript,
	".jsx": flow.LangJavaScript,
	".cs":  flow.LangCSharp,
}

var aliases = map[string]flow.Language{
	"python":     flow.LangPython,
	"py":         flow.LangPython,
	"javascript": flow.LangJavaScript,
	"js":         flow.LangJavaScript,
	"csharp":     flow.LangCSharp,
	"cs":         flow.LangCSharp,
	"c#":         flow.LangCSharp,
}

// DetectLanguage maps a file path to its language by extension.
func DetectLanguage(path string) (flow.Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensions[ext]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnsupportedLanguage, ext)
}

// ParseLanguage maps a language tag such as "python", "js" or "c#" to its
// Language. Tags are case-insensitive.
func ParseLanguage(tag string) (flow.Language, error) {
	if lang, ok := aliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, tag)
}

// Resolve picks the language for a source: an explicit tag wins, otherwise
// the file name's extension decides.
func Resolve(tag, filename string) (flow.Language, error) {
	if tag != "" {
		return ParseLanguage(tag)
	}
	if filename == "" {
		return "", fmt.Errorf("%w: no language tag or file name", ErrUnsupportedLanguage)
	}
	return DetectLanguage(filename)
}

// Extensions returns the file extensions recognized for lang, sorted.
func Extensions(lang flow.Language) []string {
	var out []string
	for ext, l := range extensions {
		if l == lang {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// Registry holds one Frontend per language.
type Registry struct {
	frontends map[flow.Language]Frontend
}

// NewRegistry returns a Registry with the Python, JavaScript and C# front
// ends registered. maxDepth is passed to each; non-positive selects
// flow.DefaultMaxDepth.
func NewRegistry(maxDepth int) *Registry {
	r := &Registry{frontends: make(map[flow.Language]Frontend)}
	r.Register(python.New(maxDepth))
	r.Register(javascript.New(maxDepth))
	r.Register(csharp.New(maxDepth))
	return r
}

// Register adds or replaces the front end for f.Language().
func (r *Registry) Register(f Frontend) {
	r.frontends[f.Language()] = f
}

// Frontend returns the front end for lang.
func (r *Registry) Frontend(lang flow.Language) (Frontend, bool) {
	f, ok := r.frontends[lang]
	return f, ok
}

// Languages returns the registered languages in flow.Languages order.
func (r *Registry) Languages() []flow.Language {
	out := make([]flow.Language, 0, len(r.frontends))
	for _, l := range flow.Languages {
		if _, ok := r.frontends[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Translate converts source with the front end registered for lang.
func (r *Registry) Translate(ctx context.Context, lang flow.Language, source []byte) (*flow.Result, error) {
	f, ok := r.frontends[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	res, err := f.Translate(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("translate %s: %w", lang, err)
	}
	return res, nil
}
