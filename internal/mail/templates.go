package mail

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// Template names.
const (
	TemplateContactNotification = "contact_notification"
	TemplateContactAutoReply    = "contact_autoreply"
	TemplateNewsletterConfirm   = "newsletter_confirm"
	TemplateToolResults         = "tool_results"
	TemplateAssessmentResults   = "assessment_results"
)

// FallbackLocale is used when a template is missing for the requested locale.
const FallbackLocale = "en"

// ErrUnknownTemplate is returned when no locale has the requested template.
var ErrUnknownTemplate = errors.New("unknown mail template")

//go:embed templates
var templateFS embed.FS

// Templates holds the parsed templates per locale. Each file defines a
// "subject" and a "body" template.
type Templates struct {
	sets map[string]map[string]*template.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return ParseTemplates(sub)
}

// ParseTemplates parses <locale>/<name>.tmpl files from fsys.
func ParseTemplates(fsys fs.FS) (*Templates, error) {
	files, err := fs.Glob(fsys, "*/*.tmpl")
	if err != nil {
		return nil, err
	}

	t := &Templates{sets: map[string]map[string]*template.Template{}}
	for _, file := range files {
		locale := path.Dir(file)
		name := strings.TrimSuffix(path.Base(file), ".tmpl")

		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Funcs(funcs).Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if tmpl.Lookup("subject") == nil || tmpl.Lookup("body") == nil {
			return nil, fmt.Errorf("template %s must define subject and body", file)
		}

		if t.sets[locale] == nil {
			t.sets[locale] = map[string]*template.Template{}
		}
		t.sets[locale][name] = tmpl
	}
	return t, nil
}

// Render executes a template for locale, falling back to FallbackLocale.
func (t *Templates) Render(locale, name string, data any) (subject, body string, err error) {
	tmpl, ok := t.sets[locale][name]
	if !ok {
		tmpl, ok = t.sets[FallbackLocale][name]
	}
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, "body", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subject, strings.TrimSpace(buf.String()) + "\n", nil
}

// Compose renders a template into a Message addressed to to.
func (t *Templates) Compose(locale, name, to string, data any) (Message, error) {
	subject, body, err := t.Render(locale, name, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, Text: body, Tag: name}, nil
}

var funcs = template.FuncMap{
	"default": func(fallback, v string) string {
		if v == "" {
			return fallback
		}
		return v
	},
}

// Field is one labelled line of a calculator result.
type Field struct {
	Label string
	Value string
}

// ResultFields flattens a calculator result into sorted, printable lines.
func ResultFields(result any) ([]Field, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{
			Label: strings.ReplaceAll(k, "_", " "),
			Value: formatValue(m[k]),
		})
	}
	return fields, nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
				continue
			}
			b, _ := json.Marshal(item)
			parts = append(parts, string(b))
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
