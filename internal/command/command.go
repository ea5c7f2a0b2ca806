// Package command holds the declarative catalog of user-invocable prompt
// templates and the registry that merges builtin, user-defined, and base
// templates into resolved commands.
package command

import (
	"strings"

	"github.com/codewing-ai/codewing/internal/config"
)

// Insertion governs how a finished response is written back to the editor.
type Insertion string

const (
	// InsertNone leaves the editor untouched (chat-style commands).
	InsertNone Insertion = "none"
	// InsertReplace replaces the selected line range with the response.
	InsertReplace Insertion = "replace"
	// InsertBefore inserts the response above the selection.
	InsertBefore Insertion = "before"
	// InsertAfter inserts the response below the selection.
	InsertAfter Insertion = "after"
	// InsertNew opens the response in a new buffer.
	InsertNew Insertion = "new"
)

// Command is one resolved user-invocable prompt template.
type Command struct {
	ID       string
	Label    string
	Category string

	// Message is the user-message template. System is the optional
	// system-message template.
	Message string
	System  string

	// LanguageInstructions maps a language identifier to guidance substituted
	// for {{language_instructions}}.
	LanguageInstructions map[string]string

	Insertion Insertion

	// Provider names the backend this command targets; empty means the
	// configured default.
	Provider string

	// Optional completion-parameter overrides. Nil means "use the provider
	// default".
	Model       string
	Temperature *float64
	MaxTokens   *int
	Choices     *int
}

// uncategorized is the bucket for commands that set no category anywhere.
const uncategorized = "Uncategorized"

// merge resolves one command with precedence base < builtin < user. The
// language-instruction map is merged key-by-key; every other field is
// whole-value override. Message templates are trimmed after the merge.
func merge(user *config.CommandConfig, builtin *Command, base Command) Command {
	out := base
	out.LanguageInstructions = cloneInstructions(base.LanguageInstructions)

	if builtin != nil {
		overlayCommand(&out, *builtin)
	}
	if user != nil {
		overlayUser(&out, *user)
	}

	if out.Category == "" {
		out.Category = uncategorized
	}
	out.Message = strings.TrimSpace(out.Message)
	out.System = strings.TrimSpace(out.System)
	return out
}

func overlayCommand(dst *Command, src Command) {
	if src.ID != "" {
		dst.ID = src.ID
	}
	if src.Label != "" {
		dst.Label = src.Label
	}
	if src.Category != "" {
		dst.Category = src.Category
	}
	if src.Message != "" {
		dst.Message = src.Message
	}
	if src.System != "" {
		dst.System = src.System
	}
	if src.Insertion != "" {
		dst.Insertion = src.Insertion
	}
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Temperature != nil {
		dst.Temperature = src.Temperature
	}
	if src.MaxTokens != nil {
		dst.MaxTokens = src.MaxTokens
	}
	if src.Choices != nil {
		dst.Choices = src.Choices
	}
	for lang, inst := range src.LanguageInstructions {
		dst.LanguageInstructions[lang] = inst
	}
}

func overlayUser(dst *Command, src config.CommandConfig) {
	overlayCommand(dst, Command{
		ID:                   src.ID,
		Label:                src.Label,
		Category:             src.Category,
		Message:              src.Message,
		System:               src.System,
		Insertion:            Insertion(src.Insertion),
		Provider:             src.Provider,
		Model:                src.Model,
		Temperature:          src.Temperature,
		MaxTokens:            src.MaxTokens,
		Choices:              src.Choices,
		LanguageInstructions: src.LanguageInstructions,
	})
}

func cloneInstructions(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Slugify turns a display label into a camelCase command identifier:
// "Write unit tests" -> "writeUnitTests".
func Slugify(label string) string {
	var words []string
	var cur strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}
