package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template base names. Each has <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
const (
	Welcome        = "welcome"
	AccountDeleted = "account_deleted"
)

// EmailData defines the fields available to account email templates.
type EmailData struct {
	Name        string    `json:"Name"`
	Email       string    `json:"Email"`
	AppName     string    `json:"AppName"`
	CompanyName string    `json:"CompanyName"`
	SupportURL  string    `json:"SupportURL"`
	TimeAt      time.Time `json:"TimeAt"`
}

// ToMap converts EmailData to the generic map carried by an email job.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// FromMap decodes job data back into EmailData; unknown keys are ignored.
func FromMap(m map[string]any) (EmailData, error) {
	var d EmailData
	if len(m) == 0 {
		return d, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return d, err
	}
	err = json.Unmarshal(b, &d)
	return d, err
}

// orDefault backs {{ .Name | default "there" }}.
func orDefault(fallback, value any) any {
	switch x := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
	case time.Time:
		if x.IsZero() {
			return fallback
		}
	}
	return value
}

var funcs = map[string]any{
	"now":        func() time.Time { return time.Now().UTC() },
	"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
	"upper":      strings.ToUpper,
	"default":    orDefault,
}

// Parsed once at init; Must panics on a malformed template.
var (
	textSet = texttpl.Must(texttpl.New("text").Funcs(funcs).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
	htmlSet = htmpl.Must(htmpl.New("html").Funcs(funcs).ParseFS(FS, "*.html.tmpl"))
)

// executor is satisfied by both *texttpl.Template and *htmpl.Template.
type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func execute(e executor, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Render produces the subject, plain text and HTML bodies for the named email.
func Render(name string, data any) (subject, text, html string, err error) {
	if subject, err = execute(textSet, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = execute(textSet, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = execute(htmlSet, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
