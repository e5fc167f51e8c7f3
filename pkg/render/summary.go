package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/editstate"
	"github.com/goliatone/go-formstate/pkg/model"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// DefaultTemplate is the name of the bundled summary template.
const DefaultTemplate = "summary.html"

// FieldMessages groups the messages of one field.
type FieldMessages struct {
	Path     string
	Label    string
	Messages []string
}

// SummaryData is the input of a summary template.
type SummaryData struct {
	FormID string
	Title  string
	Valid  bool
	Fields []FieldMessages
	Form   []string
}

// Renderer renders validation summaries.
type Renderer struct {
	template     *pongo2.Template
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
	okText       string
	logger       *zap.Logger
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templates    fs.FS
	name         string
	source       string
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
	okText       string
	logger       *zap.Logger
}

// WithTemplateFS loads the summary template name from files instead of the
// bundled one.
func WithTemplateFS(files fs.FS, name string) Option {
	return func(cfg *config) {
		cfg.templates = files
		cfg.name = strings.TrimSpace(name)
	}
}

// WithTemplateString compiles the summary template from source.
func WithTemplateString(source string) Option {
	return func(cfg *config) {
		cfg.source = source
	}
}

// WithThemeSelector resolves theme tokens for every render.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(cfg *config) {
		cfg.selector = selector
		cfg.themeName = name
		cfg.themeVariant = variant
	}
}

// WithValidText sets the sentence shown when there are no messages.
func WithValidText(text string) Option {
	return func(cfg *config) {
		cfg.okText = text
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// New compiles the summary template.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{
		name:   DefaultTemplate,
		okText: "All fields are valid.",
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	files := cfg.templates
	if files == nil {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("render: embedded templates: %w", err)
		}
		files = sub
	}
	set := pongo2.NewSet("formstate", pongo2.NewFSLoader(files))

	var (
		tmpl *pongo2.Template
		err  error
	)
	if cfg.source != "" {
		tmpl, err = set.FromString(cfg.source)
	} else {
		if cfg.name == "" {
			return nil, errors.New("render: template name is required")
		}
		tmpl, err = set.FromFile(cfg.name)
	}
	if err != nil {
		return nil, fmt.Errorf("render: compile template: %w", err)
	}

	return &Renderer{
		template:     tmpl,
		selector:     cfg.selector,
		themeName:    cfg.themeName,
		themeVariant: cfg.themeVariant,
		okText:       cfg.okText,
		logger:       cfg.logger,
	}, nil
}

// Summary renders the current messages of ec.
func (r *Renderer) Summary(ec *editstate.EditContext) ([]byte, error) {
	if ec == nil {
		return nil, errors.New("render: edit context is required")
	}
	return r.SummaryFromStore(ec.Form(), ec.Store())
}

// SummaryFromStore renders store using the labels declared by form.
func (r *Renderer) SummaryFromStore(form model.FormModel, store *editstate.MessageStore) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, BuildSummary(form, store)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render executes the template with data. Messages are sanitised here.
func (r *Renderer) Render(w io.Writer, data SummaryData) error {
	resolved, err := resolveTheme(r.selector, r.themeName, r.themeVariant)
	if err != nil {
		return err
	}

	fields := make([]map[string]any, 0, len(data.Fields))
	for _, field := range data.Fields {
		messages := sanitizeAll(field.Messages)
		if len(messages) == 0 {
			continue
		}
		fields = append(fields, map[string]any{
			"Path":     field.Path,
			"Label":    field.Label,
			"Messages": messages,
		})
	}
	formMessages := sanitizeAll(data.Form)

	ctx := pongo2.Context{
		"form_id":       data.FormID,
		"title":         data.Title,
		"valid":         len(fields) == 0 && len(formMessages) == 0,
		"ok_text":       r.okText,
		"fields":        fields,
		"form_messages": formMessages,
		"theme": map[string]any{
			"name":    resolved.Name,
			"variant": resolved.Variant,
			"tokens":  resolved.Tokens,
			"style":   resolved.Style,
		},
	}
	if err := r.template.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("render: execute summary: %w", err)
	}
	r.logger.Debug("summary rendered", zap.String("form", data.FormID), zap.Int("fields", len(fields)))
	return nil
}

// BuildSummary groups store messages by field, labelled from form.
func BuildSummary(form model.FormModel, store *editstate.MessageStore) SummaryData {
	data := SummaryData{
		FormID: form.ID,
		Title:  form.Summary,
		Form:   store.ModelMessages(),
	}
	for _, id := range store.Fields() {
		label := id.Field
		if field, ok := form.Lookup(id.Field); ok {
			label = field.Label
			if label == "" {
				label = model.DefaultLabeler(field.Name)
			}
		}
		data.Fields = append(data.Fields, FieldMessages{
			Path:     id.Field,
			Label:    label,
			Messages: store.Messages(id),
		})
	}
	data.Valid = len(data.Fields) == 0 && len(data.Form) == 0
	return data
}

func sanitizeAll(messages []string) []string {
	out := make([]string, 0, len(messages))
	for _, message := range messages {
		if cleaned := SanitizeMessage(message); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
