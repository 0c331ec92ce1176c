package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultTemplate renders one block per account followed by a tally.
const DefaultTemplate = `{{ .Title }}
{{- range .Accounts }}

{{ .Marker }} {{ .Identifier }}
{{ .Message }}
Balance: {{ .Balance }}
{{- end }}

{{ .Succeeded }}/{{ len .Accounts }} succeeded`

// Entry is one account's result as handed to the notifier. Identifier is
// the raw identifier; it is masked before any template sees it.
type Entry struct {
	Identifier string
	Succeeded  bool
	Message    string
	Balance    string
}

// TemplateData holds all data available to notification templates.
type TemplateData struct {
	Title     string
	Accounts  []Account
	Succeeded int
	Failed    int
}

// Account is the template view of an Entry.
type Account struct {
	Identifier string // masked
	Succeeded  bool
	Marker     string
	Message    string
	Balance    string
}

// BuildTemplateData masks identifiers and derives the per-account markers.
func BuildTemplateData(title string, entries []Entry) TemplateData {
	data := TemplateData{Title: title, Accounts: make([]Account, len(entries))}
	for i, e := range entries {
		data.Accounts[i] = Account{
			Identifier: Mask(e.Identifier),
			Succeeded:  e.Succeeded,
			Marker:     statusEmoji(e.Succeeded),
			Message:    e.Message,
			Balance:    e.Balance,
		}
		if e.Succeeded {
			data.Succeeded++
		} else {
			data.Failed++
		}
	}
	return data
}

func statusEmoji(ok bool) string {
	if ok {
		return "\u2705" // ✅
	}
	return "\u274c" // ❌
}

// Render executes a Go text/template string with Sprig functions.
func Render(tmplStr string, data TemplateData) (string, error) {
	if tmplStr == "" {
		tmplStr = DefaultTemplate
	}

	t, err := template.New("notify").Funcs(sprig.TxtFuncMap()).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
