package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/openapi"
)

// ErrUnknownForm is returned by Catalog.Form for ids that were never loaded.
var ErrUnknownForm = errors.New("schema: unknown form")

// Catalog holds form schemas keyed by id.
type Catalog struct {
	forms   map[string]model.FormModel
	sources map[string]string
}

// Option configures LoadFS.
type Option func(*loadOptions)

type loadOptions struct {
	decorators []model.Decorator
	logger     *zap.Logger
}

// WithDecorators runs decorators on every loaded form, in order.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *loadOptions) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewCatalog builds a catalog from in-memory forms.
func NewCatalog(forms ...model.FormModel) (*Catalog, error) {
	c := newCatalog()
	for _, form := range forms {
		if err := c.Add(form, "memory"); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newCatalog() *Catalog {
	return &Catalog{
		forms:   make(map[string]model.FormModel),
		sources: make(map[string]string),
	}
}

// LoadFS walks fsys and loads every .json, .yaml and .yml file. A nil fsys
// yields an empty catalog.
func LoadFS(ctx context.Context, fsys fs.FS, opts ...Option) (*Catalog, error) {
	cfg := loadOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	catalog := newCatalog()
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		forms, err := parseFile(ctx, data, path)
		if err != nil {
			return err
		}
		for _, form := range forms {
			for _, decorator := range cfg.decorators {
				if decorator == nil {
					continue
				}
				if err := decorator.Decorate(&form); err != nil {
					return fmt.Errorf("schema: decorate %q (file %s): %w", form.ID, path, err)
				}
			}
			if err := catalog.Add(form, path); err != nil {
				return err
			}
			cfg.logger.Debug("form loaded", zap.String("form", form.ID), zap.String("file", path), zap.Int("fields", len(form.Fields)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Add registers form. Ids must be unique and the form must pass
// model.ValidateForm.
func (c *Catalog) Add(form model.FormModel, source string) error {
	form.ID = strings.TrimSpace(form.ID)
	if err := model.ValidateForm(form); err != nil {
		return fmt.Errorf("schema: file %s: %w", source, err)
	}
	if existing, ok := c.sources[form.ID]; ok {
		return fmt.Errorf("schema: duplicate form %q (files %s and %s)", form.ID, existing, source)
	}
	c.forms[form.ID] = form
	c.sources[form.ID] = source
	return nil
}

// Form returns the form registered under id.
func (c *Catalog) Form(id string) (model.FormModel, error) {
	if c != nil {
		if form, ok := c.forms[id]; ok {
			return form, nil
		}
	}
	return model.FormModel{}, fmt.Errorf("%w: %q", ErrUnknownForm, id)
}

// Source returns the file a form was loaded from.
func (c *Catalog) Source(id string) string {
	if c == nil {
		return ""
	}
	return c.sources[id]
}

// IDs lists form ids in lexical order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.forms))
	for id := range c.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Forms lists forms ordered by id.
func (c *Catalog) Forms() []model.FormModel {
	ids := c.IDs()
	out := make([]model.FormModel, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.forms[id])
	}
	return out
}

// Len counts forms.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.forms)
}

type documentFile struct {
	model.FormModel `yaml:",inline"`
	Forms           []model.FormModel `json:"forms" yaml:"forms"`
}

func parseFile(ctx context.Context, data []byte, source string) ([]model.FormModel, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("schema: file %s is empty", source)
	}
	if isOpenAPI(data) {
		forms, err := openapi.LoadForms(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("schema: file %s: %w", source, err)
		}
		out := make([]model.FormModel, 0, len(forms))
		for _, form := range forms {
			out = append(out, form)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
		}
	}

	forms := append([]model.FormModel(nil), doc.Forms...)
	if doc.ID != "" || len(doc.Fields) > 0 {
		forms = append(forms, doc.FormModel)
	}
	if len(forms) == 0 {
		return nil, fmt.Errorf("schema: file %s does not define any form", source)
	}
	return forms, nil
}

func isOpenAPI(raw []byte) bool {
	var header struct {
		OpenAPI string `json:"openapi" yaml:"openapi"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &header); err == nil {
			return header.OpenAPI != ""
		}
		return false
	}
	if err := yaml.Unmarshal(trimmed, &header); err != nil {
		return false
	}
	return header.OpenAPI != ""
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
